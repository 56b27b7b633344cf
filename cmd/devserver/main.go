package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/adi-253/Chatline/client/internal/devserver"
	"github.com/adi-253/Chatline/client/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Local stub of the chat backend (REST + websocket) for development",
	RunE:  runServer,
}

var (
	flagPort    int
	flagOrigins string
	flagSeed    []string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&flagPort, "port", 5000, "HTTP port to listen on")
	flags.StringVar(&flagOrigins, "cors-origins", "", "comma-separated list of allowed CORS origins")
	flags.StringArrayVar(&flagSeed, "seed-friends", nil, "seed a friendship, format id1:name1=id2:name2 (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute devserver command")
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := devserver.NewStore()
	for _, seed := range flagSeed {
		a, b, err := parseSeed(seed)
		if err != nil {
			return err
		}
		store.SeedFriendship(a, b)
		log.Info().Msgf("[devserver] seeded friendship %s <-> %s", a.UserID, b.UserID)
	}

	hub := devserver.NewHub(store)
	handler := devserver.Handler(hub, store, corsOrigins())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", flagPort),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("[devserver] shutdown error")
		}
	}()

	log.Info().Msgf("[devserver] listening on :%d", flagPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// corsOrigins returns allowed CORS origins from the flag, if set.
func corsOrigins() []string {
	if flagOrigins == "" {
		return nil
	}
	origins := strings.Split(flagOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}

// parseSeed parses one id1:name1=id2:name2 friendship seed.
func parseSeed(seed string) (models.Friend, models.Friend, error) {
	var a, b models.Friend
	sides := strings.SplitN(seed, "=", 2)
	if len(sides) != 2 {
		return a, b, fmt.Errorf("invalid seed %q, want id1:name1=id2:name2", seed)
	}
	var err error
	if a, err = parseFriend(sides[0]); err != nil {
		return a, b, err
	}
	if b, err = parseFriend(sides[1]); err != nil {
		return a, b, err
	}
	return a, b, nil
}

func parseFriend(s string) (models.Friend, error) {
	parts := strings.SplitN(s, ":", 2)
	if parts[0] == "" {
		return models.Friend{}, fmt.Errorf("invalid seed side %q, want id:name", s)
	}
	f := models.Friend{UserID: parts[0]}
	if len(parts) == 2 {
		f.Name = parts[1]
	}
	return f, nil
}
