package main

import (
	"bufio"
	"chatpat/pkg/chatclient"
	"chatpat/pkg/chatsync"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
)

// terminalUI prints store side effects to the terminal
type terminalUI struct {
	out io.Writer
}

func (u terminalUI) ClearInput() {}

func (u terminalUI) Notify(title, message string) {
	fmt.Fprintf(u.out, "[%s] %s\n", title, message)
}

func (u terminalUI) RedirectToLogin() {
	fmt.Fprintln(u.out, "Session expired, restart to log in again")
}

type session struct {
	client  *chatclient.Client
	store   *chatsync.Store
	typing  *chatclient.TypingConn
	out     io.Writer
	current string
}

const help = `Commands:
  /list            list conversations
  /open <id>       open a conversation and print its messages
  /new <message>   start a conversation with a first message
  /rename <title>  rename the open conversation
  /delete <id>     delete a conversation
  /quit            exit
Anything else is sent to the open conversation.`

func main() {
	server := flag.String("server", envOr("CHAT_SERVER_URL", "http://localhost:8080"), "chat server base URL")
	username := flag.String("user", envOr("CHAT_USERNAME", "demo"), "username")
	password := flag.String("password", envOr("CHAT_PASSWORD", "demo123"), "password")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *server, *username, *password, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, username, password string, in io.Reader, out io.Writer) error {
	client := chatclient.New(server)
	auth, err := client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(out, "Logged in as %s\n", displayName(auth.User, username))

	s := &session{
		client: client,
		store:  chatsync.NewStore(client, terminalUI{out: out}),
		out:    out,
	}

	if typing, err := client.DialTyping(ctx); err != nil {
		fmt.Fprintln(out, "Typing notifications unavailable:", err)
	} else {
		s.typing = typing
		defer typing.Close()
		go s.printTyping()
	}

	if err := s.store.RefreshConversations(ctx); err != nil {
		return err
	}
	s.list()
	fmt.Fprintln(out, help)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := s.handle(ctx, line); err != nil {
			if chatclient.IsUnauthorized(err) {
				return err
			}
			fmt.Fprintln(out, "error:", err)
		}
	}
}

func (s *session) handle(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		fmt.Fprintln(s.out, help)
	case "/list":
		if err := s.store.RefreshConversations(ctx); err != nil {
			return err
		}
		s.list()
	case "/open":
		if err := s.store.Refresh(ctx, arg); err != nil {
			return err
		}
		s.current = arg
		s.printMessages(s.store.Messages(arg))
	case "/new":
		conv, sub, err := s.store.StartConversation(ctx, arg)
		if conv != nil {
			s.current = conv.ID
			fmt.Fprintf(s.out, "Started %q (%s)\n", conv.Title, conv.ID)
		}
		if err != nil {
			return err
		}
		s.printReply(sub)
	case "/rename":
		if s.current == "" {
			return errors.New("no conversation open")
		}
		conv, err := s.client.RenameConversation(ctx, s.current, arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Renamed to %q\n", conv.Title)
		return s.store.RefreshConversations(ctx)
	case "/delete":
		if err := s.store.DeleteConversation(ctx, arg); err != nil {
			return err
		}
		if s.current == arg {
			s.current = ""
		}
		fmt.Fprintln(s.out, "Deleted", arg)
	default:
		if strings.HasPrefix(cmd, "/") {
			return fmt.Errorf("unknown command %s", cmd)
		}
		if s.current == "" {
			return errors.New("no conversation open, use /open <id> or /new <message>")
		}
		s.notifyTyping(s.current, true)
		sub, err := s.store.Submit(ctx, s.current, line)
		s.notifyTyping(s.current, false)
		if err != nil {
			return err
		}
		s.printReply(sub)
	}
	return nil
}

func (s *session) list() {
	conversations := s.store.Conversations()
	if len(conversations) == 0 {
		fmt.Fprintln(s.out, "No conversations yet")
		return
	}
	for _, conv := range conversations {
		fmt.Fprintf(s.out, "  %s  %-50s  %s\n", conv.ID, conv.Title, conv.UpdatedAt.Local().Format(time.DateTime))
	}
}

func (s *session) printReply(sub *chatsync.Submission) {
	if sub == nil || sub.State != chatsync.Committed {
		return
	}
	messages := s.store.Messages(sub.ConversationID)
	if n := len(messages); n > 0 && messages[n-1].Role == "assistant" {
		s.printMessages(messages[n-1:])
	}
}

func (s *session) printMessages(messages []chatclient.Message) {
	for _, m := range messages {
		fmt.Fprintf(s.out, "%s: %s\n", m.Role, m.Content)
		if m.ImageURL != nil {
			fmt.Fprintf(s.out, "  [image, %d bytes as data URI]\n", len(*m.ImageURL))
		}
	}
}

func (s *session) notifyTyping(conversationID string, isTyping bool) {
	if s.typing == nil || conversationID == "" {
		return
	}
	s.typing.SendTyping(conversationID, isTyping)
}

func (s *session) printTyping() {
	for event := range s.typing.Events() {
		if event.IsTyping {
			fmt.Fprintf(s.out, "\n(someone is typing in %s)\n", event.ConversationID)
		}
	}
}

func displayName(user *chatclient.User, fallback string) string {
	if user == nil {
		return fallback
	}
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		return name
	}
	if user.Email != "" {
		return user.Email
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
