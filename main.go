package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/danielhkuo/quickly-survey/logging"
	"github.com/danielhkuo/quickly-survey/router"
	"github.com/danielhkuo/quickly-survey/session"
	"github.com/danielhkuo/quickly-survey/visibility"
)

const version = "1.0.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg cliparse.Config) error {
	printStartUpBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema first, on its own connection
	if err := db.Migrate(ctx, cfg.DatabaseType, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer dbConn.Close()

	nullEndDate, err := visibility.ParseNullEndDate(cfg.NullEndDatePolicy)
	if err != nil {
		return err
	}
	policy := visibility.Policy{NullEndDate: nullEndDate, Location: time.Local}

	creds, err := auth.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return err
	}
	slog.Info("Credentials loaded", "users", len(creds.Users))
	authenticator := auth.NewAuthenticator(creds, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL))

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	mux := router.NewRouter(dbConn, cfg, router.Services{
		Auth:     authenticator,
		Sessions: sessions,
		Policy:   policy,
	})

	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	slog.Info("Listening", "port", cfg.Port, "sessions", cfg.SessionBackend, "null_end_date", nullEndDate)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// newSessionStore builds the navigation-state backend named in cfg.
func newSessionStore(ctx context.Context, cfg cliparse.Config) (session.Store, func(), error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	slog.Info("Redis session store ready", "addr", cfg.RedisAddr)

	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}

// hashPassword prints a bcrypt hash for a credentials file entry. The
// password is read from stdin unless -password is given.
func hashPassword(args []string) error {
	flags := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	password := flags.String("password", "", "Password to hash (default: read a line from stdin)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	if *password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func printStartUpBanner() {
	banner := figure.NewFigure("quickly-survey", "", true)
	banner.Print()

	fmt.Println("======================================================")
	fmt.Printf("quickly-survey API (v%s)\n\n", version)
}
