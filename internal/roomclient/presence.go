package roomclient

import (
	"context"
	"sync"
	"time"

	"github.com/rx3lixir/studyhall/internal/protocol"
)

// PlaceholderAvatar is shown for any participant whose avatar can't
// be resolved.
const PlaceholderAvatar = "/static/default-avatar.png"

// AvatarResolver turns a username into an avatar URL.
type AvatarResolver interface {
	ResolveAvatar(ctx context.Context, username string) (string, error)
}

// ParticipantAPI seeds the roster before any stream update arrives.
type ParticipantAPI interface {
	GetParticipants(ctx context.Context, roomCode string) ([]string, error)
}

// Member is one participant as displayed in the roster.
type Member struct {
	Username  string
	AvatarURL string
}

// Presence mirrors the room roster. Every participants_update replaces
// the whole roster, immediately and with placeholder avatars; the real
// avatars resolve concurrently off the stream goroutine and land only
// if no newer roster has replaced this one. One broken avatar never
// hides a user.
type Presence struct {
	roomCode string
	api      ParticipantAPI
	avatars  AvatarResolver

	mu      sync.Mutex
	members []Member
	gen     uint64

	// Injectable for deterministic tests
	spawn func(func())
}

func NewPresence(roomCode string, api ParticipantAPI, avatars AvatarResolver) *Presence {
	return &Presence{
		roomCode: roomCode,
		api:      api,
		avatars:  avatars,
		spawn:    func(f func()) { go f() },
	}
}

// Bind subscribes the roster to presence events on the stream. The
// handler only swaps slices and spawns, so the stream never stalls
// behind avatar lookups.
func (p *Presence) Bind(conn *Conn) {
	conn.On(protocol.TypeParticipantsUpdate, func(event any) {
		if e, ok := event.(protocol.ParticipantsUpdate); ok {
			p.replace(e.Participants)
		}
	})
}

// Seed loads the current roster over REST. Used right after joining,
// before the first broadcast lands.
func (p *Presence) Seed(ctx context.Context) error {
	usernames, err := p.api.GetParticipants(ctx, p.roomCode)
	if err != nil {
		return err
	}

	p.replace(usernames)
	return nil
}

func (p *Presence) replace(usernames []string) {
	members := make([]Member, len(usernames))
	for i, username := range usernames {
		members[i] = Member{Username: username, AvatarURL: PlaceholderAvatar}
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.members = members
	p.mu.Unlock()

	p.spawn(func() { p.resolveAvatars(gen, usernames) })
}

// resolveAvatars fills in avatar URLs for one roster generation. A
// roster that arrived in the meantime wins; the stale result is
// dropped wholesale.
func (p *Presence) resolveAvatars(gen uint64, usernames []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	members := make([]Member, len(usernames))

	var wg sync.WaitGroup
	for i, username := range usernames {
		members[i] = Member{Username: username, AvatarURL: PlaceholderAvatar}

		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			if url, err := p.avatars.ResolveAvatar(ctx, username); err == nil && url != "" {
				members[i].AvatarURL = url
			}
		}(i, username)
	}
	wg.Wait()

	p.mu.Lock()
	if p.gen == gen {
		p.members = members
	}
	p.mu.Unlock()
}

// Members returns a snapshot of the roster.
func (p *Presence) Members() []Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Member(nil), p.members...)
}

// Count returns the roster size.
func (p *Presence) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}
