package roomclient

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeAvatars struct {
	mu     sync.Mutex
	urls   map[string]string
	asked  []string
	failOn string
}

func (f *fakeAvatars) ResolveAvatar(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	f.asked = append(f.asked, username)
	f.mu.Unlock()

	if username == f.failOn {
		return "", errors.New("avatar backend down")
	}
	return f.urls[username], nil
}

type fakeParticipants struct {
	usernames []string
	err       error
}

func (f *fakeParticipants) GetParticipants(_ context.Context, _ string) ([]string, error) {
	return f.usernames, f.err
}

// syncSpawn runs resolution inline so assertions see final avatars.
func syncSpawn(p *Presence) {
	p.spawn = func(f func()) { f() }
}

func memberByName(t *testing.T, members []Member, username string) Member {
	t.Helper()
	for _, m := range members {
		if m.Username == username {
			return m
		}
	}
	t.Fatalf("member %q not in roster %+v", username, members)
	return Member{}
}

func TestPresenceSeed(t *testing.T) {
	avatars := &fakeAvatars{urls: map[string]string{"alice": "http://s3/avatars/alice"}}
	p := NewPresence("AAAA1111", &fakeParticipants{usernames: []string{"alice"}}, avatars)
	syncSpawn(p)

	if err := p.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if p.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", p.Count())
	}
	if got := memberByName(t, p.Members(), "alice"); got.AvatarURL != "http://s3/avatars/alice" {
		t.Errorf("alice avatar = %q", got.AvatarURL)
	}
}

func TestPresenceFullReplace(t *testing.T) {
	avatars := &fakeAvatars{urls: map[string]string{}}
	p := NewPresence("AAAA1111", &fakeParticipants{}, avatars)
	syncSpawn(p)

	p.replace([]string{"alice"})
	p.replace([]string{"alice", "bob"})

	if p.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", p.Count())
	}

	// Shrinking updates replace too, nothing lingers.
	p.replace([]string{"bob"})
	members := p.Members()
	if len(members) != 1 || members[0].Username != "bob" {
		t.Errorf("roster = %+v, want just bob", members)
	}
}

func TestPresenceRosterVisibleBeforeAvatarsResolve(t *testing.T) {
	avatars := &fakeAvatars{urls: map[string]string{"alice": "http://s3/avatars/alice"}}
	p := NewPresence("AAAA1111", &fakeParticipants{}, avatars)

	// Capture resolution instead of running it, the way a slow avatar
	// backend would leave it pending.
	var pending []func()
	p.spawn = func(f func()) { pending = append(pending, f) }

	p.replace([]string{"alice"})

	// The roster is already complete, with placeholders.
	if got := memberByName(t, p.Members(), "alice"); got.AvatarURL != PlaceholderAvatar {
		t.Errorf("alice avatar before resolution = %q, want placeholder", got.AvatarURL)
	}

	pending[0]()
	if got := memberByName(t, p.Members(), "alice"); got.AvatarURL != "http://s3/avatars/alice" {
		t.Errorf("alice avatar after resolution = %q", got.AvatarURL)
	}
}

func TestPresenceStaleResolutionDropped(t *testing.T) {
	avatars := &fakeAvatars{urls: map[string]string{
		"alice": "http://s3/avatars/alice",
		"bob":   "http://s3/avatars/bob",
	}}
	p := NewPresence("AAAA1111", &fakeParticipants{}, avatars)

	var pending []func()
	p.spawn = func(f func()) { pending = append(pending, f) }

	p.replace([]string{"alice"})
	p.replace([]string{"alice", "bob"})

	// The newer roster resolves first; the older one finishes late and
	// must not shrink the roster back.
	pending[1]()
	pending[0]()

	members := p.Members()
	if len(members) != 2 {
		t.Fatalf("roster = %+v, stale resolution overwrote the newer roster", members)
	}
	if got := memberByName(t, members, "bob"); got.AvatarURL != "http://s3/avatars/bob" {
		t.Errorf("bob avatar = %q", got.AvatarURL)
	}
}

func TestPresenceAvatarFailureIsolated(t *testing.T) {
	avatars := &fakeAvatars{
		urls:   map[string]string{"alice": "http://s3/avatars/alice"},
		failOn: "bob",
	}
	p := NewPresence("AAAA1111", &fakeParticipants{}, avatars)
	syncSpawn(p)

	p.replace([]string{"alice", "bob"})

	members := p.Members()
	if len(members) != 2 {
		t.Fatalf("roster size = %d, want 2; one bad avatar must not hide a member", len(members))
	}

	if got := memberByName(t, members, "alice"); got.AvatarURL != "http://s3/avatars/alice" {
		t.Errorf("alice avatar = %q", got.AvatarURL)
	}
	if got := memberByName(t, members, "bob"); got.AvatarURL != PlaceholderAvatar {
		t.Errorf("bob avatar = %q, want placeholder", got.AvatarURL)
	}
}

func TestPresenceMissingAvatarGetsPlaceholder(t *testing.T) {
	avatars := &fakeAvatars{urls: map[string]string{}}
	p := NewPresence("AAAA1111", &fakeParticipants{}, avatars)
	syncSpawn(p)

	p.replace([]string{"carol"})

	if got := memberByName(t, p.Members(), "carol"); got.AvatarURL != PlaceholderAvatar {
		t.Errorf("carol avatar = %q, want placeholder", got.AvatarURL)
	}
}
