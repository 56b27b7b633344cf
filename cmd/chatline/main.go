package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/adi-253/Chatline/client/internal/chat"
	"github.com/adi-253/Chatline/client/internal/composer"
	"github.com/adi-253/Chatline/client/internal/config"
	"github.com/adi-253/Chatline/client/internal/models"
	"github.com/adi-253/Chatline/client/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "chatline",
	Short: "Terminal chat client (REST backend + websocket realtime channel)",
	RunE:  runClient,
}

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Persist an auth token obtained from the identity provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(loginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute chatline command")
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	token := args[0]

	identity, err := session.DecodeIdentity(token)
	if err != nil {
		return fmt.Errorf("token is not usable: %w", err)
	}
	if err := session.NewStore(cfg.TokenPath).Save(token); err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", identity.Name, identity.UserID)
	return nil
}

func runClient(cmd *cobra.Command, args []string) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if flagVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	notifier := chat.NotifierFunc(func(message string) {
		fmt.Printf("!! %s\n", message)
	})

	client, err := chat.Connect(ctx, cfg, notifier)
	if err != nil {
		if err == session.ErrNoToken {
			return fmt.Errorf("not signed in; run `chatline login <token>` first")
		}
		return err
	}
	defer client.Close()

	client.SetOnMessage(func(msg models.Message) {
		fmt.Printf("<- %s: %s\n", msg.Sender, renderBody(msg))
	})

	self := client.Self()
	fmt.Printf("Welcome, %s. Type /help for commands.\n", self.Name)
	if id, name := client.Conversation.Partner(); id != "" {
		fmt.Printf("Resumed conversation with %s (%s).\n", name, id)
	}

	lines := readLines(ctx, os.Stdin)
	recorder := composer.NewRecorder("")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			fmt.Println("connection lost; restart to reconnect")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, client, recorder, line); quit {
				return nil
			}
		}
	}
}

// readLines feeds input lines into a channel until the reader is
// exhausted or the context ends, so the goroutine never outlives the
// REPL it serves.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// handleLine executes one REPL input. Returns true when the session
// should end.
func handleLine(ctx context.Context, client *chat.Client, recorder *composer.Recorder, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		client.SendText(ctx, line, nil)
		return false
	}

	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/help":
		fmt.Println(`commands:
  /friends            list friends with presence and previews
  /open <userID>      switch the active conversation
  /msgs               print the active conversation
  /invite <userID>    send a friend request
  /resend <userID>    confirm re-sending a declined request
  /accept <userID>    accept an incoming request
  /decline <userID>   decline an incoming request
  /voice <path>       send the audio file at path as a voice message
  /file <path>        send the file at path as an attachment
  /name <display>     change your display name
  /logout             sign out and wipe session state
  /quit               exit`)

	case "/friends":
		for _, f := range client.Roster.Friends() {
			status := "offline"
			if client.Roster.IsOnline(f.UserID) {
				status = "online"
			}
			preview := ""
			if msg, ok := client.Roster.Preview(f.UserID); ok {
				preview = " | " + renderBody(msg)
			}
			fmt.Printf("  %s (%s) [%s]%s\n", f.Name, f.UserID, status, preview)
		}

	case "/open":
		friend := models.Friend{UserID: arg, Name: arg}
		for _, f := range client.Roster.Friends() {
			if f.UserID == arg {
				friend = f
				break
			}
		}
		if err := client.OpenConversation(ctx, friend); err != nil {
			fmt.Printf("!! %v\n", err)
			break
		}
		fmt.Printf("chatting with %s\n", friend.Name)

	case "/msgs":
		self := client.Self()
		for _, msg := range client.Conversation.Messages() {
			prefix := "<-"
			if msg.Sender == self.UserID {
				prefix = "->"
			}
			fmt.Printf("%s %s [%s]\n", prefix, renderBody(msg), msg.Status)
		}

	case "/invite":
		if err := client.Invites.Send(arg); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/resend":
		if err := client.Invites.ConfirmResend(arg); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/accept":
		if err := client.Invites.Accept(ctx, arg); err != nil {
			fmt.Printf("!! %v\n", err)
			break
		}
		friend := models.Friend{UserID: arg, Name: client.Invites.Name(arg)}
		client.Roster.AddFriend(friend)
		if err := client.OpenConversation(ctx, friend); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/decline":
		if err := client.Invites.Decline(ctx, arg); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/voice":
		if err := sendVoiceFile(ctx, client, recorder, arg); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/file":
		if err := sendFile(ctx, client, arg); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/name":
		display := strings.TrimSpace(strings.TrimPrefix(line, "/name"))
		if display == "" {
			fmt.Println("!! usage: /name <display>")
			break
		}
		if err := client.UpdateProfile(ctx, display, ""); err != nil {
			fmt.Printf("!! %v\n", err)
		}

	case "/logout":
		if err := client.Logout(); err != nil {
			fmt.Printf("!! %v\n", err)
		}
		return true

	case "/quit":
		return true

	default:
		fmt.Printf("!! unknown command %s\n", fields[0])
	}
	return false
}

// renderBody summarizes a message body for the terminal.
func renderBody(msg models.Message) string {
	switch {
	case msg.Text != "":
		return msg.Text
	case msg.Audio != "":
		return fmt.Sprintf("[voice, %ds]", msg.Duration)
	case msg.FileURL != "":
		return fmt.Sprintf("[file: %s]", msg.FileName)
	}
	return "[empty]"
}

// sendVoiceFile streams an audio file through the recorder and sends
// the assembled payload.
func sendVoiceFile(ctx context.Context, client *chat.Client, recorder *composer.Recorder, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read audio: %w", err)
	}
	if err := recorder.Start(); err != nil {
		return err
	}
	if _, err := recorder.Write(data); err != nil {
		recorder.Cancel()
		return err
	}
	rec, err := recorder.Stop()
	if err != nil {
		return err
	}
	_, err = client.Composer.SendVoice(ctx, rec, nil)
	return err
}

// sendFile uploads and sends a file attachment.
func sendFile(ctx context.Context, client *chat.Client, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}
	_, err = client.Composer.SendFile(ctx, path, detectContentType(path, data), data, nil)
	return err
}

// detectContentType prefers the extension, falling back to sniffing.
func detectContentType(path string, data []byte) string {
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(path, ".webm"):
		return "video/webm"
	}
	if len(data) > 0 {
		return strings.Split(http.DetectContentType(data), ";")[0]
	}
	return "application/octet-stream"
}
