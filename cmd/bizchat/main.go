package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bizchat/bizchat/pkg/auth"
	"github.com/bizchat/bizchat/pkg/chatstore"
	"github.com/bizchat/bizchat/pkg/config"
	"github.com/bizchat/bizchat/pkg/httpapi"
	"github.com/bizchat/bizchat/pkg/inference"
	"github.com/bizchat/bizchat/pkg/webchat"
)

func main() {
	root := &cobra.Command{
		Use:   "bizchat",
		Short: "Business AI chat service",
	}
	root.AddCommand(newServeCommand())
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newServeCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		dbPath     string
		provider   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateway and REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if provider != "" {
				cfg.Provider.Name = provider
			}
			setupLogging(cfg.LogLevel)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides config)")
	cmd.Flags().StringVar(&provider, "provider", "", "completion provider: gemini, openai or static")
	return cmd
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(lvl)
}

func serve(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return errors.New("auth.secret is not configured (set BIZCHAT_AUTH_SECRET or auth.secret in the config file)")
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create database directory")
		}
	}
	dsn, err := chatstore.DSNForFile(cfg.DBPath)
	if err != nil {
		return err
	}
	store, err := chatstore.New(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tokens, err := auth.NewTokenService(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(tokens, store)
	if err != nil {
		return err
	}

	engine, err := inference.FromConfig(cfg.Provider)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Provider.APIKey) == "" && cfg.Provider.Name != "static" {
		log.Warn().Str("provider", cfg.Provider.Name).Msg("no provider API key configured, completions will fail soft")
	}

	gateway, err := webchat.NewGateway(verifier, store, store, engine, cfg.Chat.HistoryWindow)
	if err != nil {
		return err
	}
	api, err := httpapi.NewHandler(store, tokens, verifier)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	api.Routes(mux)
	mux.HandleFunc("/chat/ws", gateway.HandleWS)

	srv, err := webchat.NewServer(cfg.Addr, mux)
	if err != nil {
		return err
	}
	log.Info().
		Str("provider", cfg.Provider.Name).
		Str("db", cfg.DBPath).
		Int("history_window", cfg.Chat.HistoryWindow).
		Msg("bizchat configured")
	return srv.Run(ctx)
}
