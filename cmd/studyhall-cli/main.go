// Package main implements a terminal client for a studyhall room. It
// signs in, joins (or creates) a room, and mirrors the live session:
// chat, the roster, the shared task list, and shared materials.
//
// Usage:
//
//	go run ./cmd/studyhall-cli -api http://localhost:8000 -email you@x.com -password secret -room AB12CD34
//
// Lines typed at the prompt are chat messages; /commands drive the rest.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/internal/roomclient"
	"github.com/rx3lixir/studyhall/pkg/logger"
)

func main() {
	apiBase := flag.String("api", "http://localhost:8000", "HTTP API base URL")
	wsBase := flag.String("ws", "ws://localhost:8000", "WebSocket base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	roomCode := flag.String("room", "", "room code to join (omit to create a room)")
	sessionName := flag.String("name", "study session", "session name when creating a room")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		os.Exit(1)
	}

	log := logger.Must(logger.New(logger.Config{Env: "test"}))
	ctx := context.Background()

	api := roomclient.NewAPI(*apiBase, nil)

	authResp, err := api.Signin(ctx, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "signin failed: %v\n", err)
		os.Exit(1)
	}
	username := authResp.User.Username
	fmt.Printf("signed in as %s\n", username)

	opts := roomclient.SessionOptions{
		Username:  username,
		Dial:      roomclient.NewDialer(api.Token()),
		WSBaseURL: *wsBase,
		Log:       log,
	}

	var session *roomclient.Session
	if *roomCode != "" {
		session, err = roomclient.JoinRoom(ctx, api, *roomCode, opts)
	} else {
		session, err = roomclient.CreateRoom(ctx, api, *sessionName, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not enter room: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("in room %s (%s), %d participant(s)\n",
		session.Info.RoomCode, session.Info.SessionName, session.Presence.Count())

	session.Conn.On(protocol.TypeChatMessage, func(event any) {
		if e, ok := event.(protocol.ChatMessage); ok && e.Sender != username {
			fmt.Printf("<%s> %s\n", e.Sender, e.Message)
		}
	})
	session.Conn.On(protocol.TypeTyping, func(event any) {
		if e, ok := event.(protocol.Typing); ok && e.Sender != username {
			fmt.Printf("... %s is typing\n", e.Sender)
		}
	})
	session.Conn.On(protocol.TypeParticipantsUpdate, func(event any) {
		if e, ok := event.(protocol.ParticipantsUpdate); ok {
			fmt.Printf("participants: %s\n", strings.Join(e.Participants, ", "))
		}
	})
	session.Conn.On(protocol.TypeStudyUpdate, func(event any) {
		if e, ok := event.(protocol.StudyUpdate); ok {
			fmt.Printf("* %s\n", e.Update)
		}
	})
	session.Conn.On(protocol.TypeFileUploaded, func(event any) {
		if e, ok := event.(protocol.FileUploaded); ok {
			fmt.Printf("file shared: %s\n", e.File.Name)
		}
	})
	session.Conn.On(protocol.TypeFileDeleted, func(event any) {
		if e, ok := event.(protocol.FileDeleted); ok {
			fmt.Printf("file removed: %s\n", e.FileName)
		}
	})

	// Leave cleanly on Ctrl-C as well as /leave.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		leave(session)
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("type a message, or /tasks /task /done /rm /files /who /sync /leave")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := session.Chat.SendMessage(sendCtx, session.Conn, line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
			cancel()
			continue
		}

		if handleCommand(ctx, session, line) {
			return
		}
	}
}

// handleCommand runs one /command and reports whether the client
// should exit.
func handleCommand(ctx context.Context, session *roomclient.Session, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/leave":
		leave(session)
		return true

	case "/who":
		for _, m := range session.Presence.Members() {
			fmt.Printf("  %s\n", m.Username)
		}

	case "/tasks":
		for _, list := range session.Lists.Lists() {
			fmt.Printf("%s:\n", list.Name)
			for _, task := range list.Tasks {
				mark := " "
				if task.IsCompleted {
					mark = "x"
				}
				fmt.Printf("  [%s] %s  %s\n", mark, task.Title, task.ID)
			}
		}

	case "/task":
		if arg == "" {
			fmt.Println("usage: /task <title>")
			return false
		}
		if _, err := session.Lists.AddTask(ctx, session.Info.ListID, arg, ""); err != nil {
			fmt.Fprintf(os.Stderr, "add task failed: %v\n", err)
		}

	case "/done":
		withTaskID(arg, func(id uuid.UUID) {
			if err := session.Lists.ToggleTask(ctx, id); err != nil {
				fmt.Fprintf(os.Stderr, "toggle failed: %v\n", err)
			}
		})

	case "/rm":
		withTaskID(arg, func(id uuid.UUID) {
			if err := session.Lists.RemoveTask(ctx, id); err != nil {
				fmt.Fprintf(os.Stderr, "remove failed: %v\n", err)
			}
		})

	case "/sync":
		if arg == "" {
			fmt.Println("usage: /sync <update>")
			return false
		}
		if err := session.SendStudyUpdate(ctx, arg); err != nil {
			fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
		}

	case "/files":
		for _, f := range session.Materials.Files() {
			fmt.Printf("  %s  %s\n", f.Name, f.URL)
		}

	default:
		fmt.Printf("unknown command %s\n", cmd)
	}

	return false
}

func withTaskID(arg string, f func(uuid.UUID)) {
	id, err := uuid.Parse(arg)
	if err != nil {
		fmt.Println("expected a task id, see /tasks")
		return
	}
	f(id)
}

func leave(session *roomclient.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := session.Leave(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "leave failed: %v\n", err)
		return
	}
	fmt.Println("left the room")
}
