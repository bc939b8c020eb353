package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"book-exchange/config"
	"book-exchange/library"
	"book-exchange/logger"
	"book-exchange/web"
)

const serviceName = "book-exchange"

// flags override the matching config values when set.
var (
	dbPath   string
	port     int
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "book-exchange",
		Short:        "Community book exchange: browse, list, search and rate books",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (overrides DB_PATH)")
	root.PersistentFlags().IntVar(&port, "port", 0, "HTTP port (overrides HTTP_PORT)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(), newSeedCmd(), newBooksCmd(), newAddUserCmd())
	return root
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if port != 0 {
		cfg.HTTPPort = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openManager(cfg *config.Config, log *slog.Logger) (*library.Manager, error) {
	mgr, err := library.NewManager(cfg.DBPath,
		library.WithLogger(log),
		library.WithBcryptCost(cfg.BcryptCost),
		library.WithPlaceholderCover(cfg.PlaceholderCoverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	return mgr, nil
}

// ---------------- serve ----------------

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed the catalogue if empty and start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	mgr, err := openManager(cfg, log)
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := mgr.Seed(ctx); err != nil {
		return fmt.Errorf("seed catalogue: %w", err)
	}

	sessions := web.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookieSecure)
	router, err := web.NewRouter(mgr, sessions, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			slog.String("addr", srv.Addr),
			slog.String("db", cfg.DBPath),
			slog.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// ---------------- seed ----------------

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo catalogue into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := openManager(cfg, logger.New(serviceName, cfg.LogLevel, cfg.LogFormat))
			if err != nil {
				return err
			}
			defer mgr.Close()

			n, err := mgr.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalogue already has books; nothing seeded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books.\n", n)
			return nil
		},
	}
}

// ---------------- books ----------------

func newBooksCmd() *cobra.Command {
	var (
		search string
		id     int64
	)
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Print the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := openManager(cfg, logger.New(serviceName, cfg.LogLevel, cfg.LogFormat))
			if err != nil {
				return err
			}
			defer mgr.Close()

			out := cmd.OutOrStdout()
			if id > 0 {
				b, err := mgr.GetBook(cmd.Context(), id)
				if errors.Is(err, library.ErrBookNotFound) {
					return fmt.Errorf("no book with ID %d", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(out, library.PrettyBook(b))
				return nil
			}

			var books []library.Book
			if cmd.Flags().Changed("search") {
				books, err = mgr.Search(cmd.Context(), search)
			} else {
				books, err = mgr.Books(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(books) == 0 {
				fmt.Fprintln(out, "No books found.")
				return nil
			}
			fmt.Fprintf(out, "%-5s %-30s %-25s %4s %s\n", "ID", "Title", "Author", "Avg", "(n)")
			fmt.Fprintln(out, strings.Repeat("-", 72))
			for i := range books {
				fmt.Fprintln(out, library.PrettyBook(&books[i]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only show books whose title or author contains this text")
	cmd.Flags().Int64Var(&id, "id", 0, "show a single book by ID")
	return cmd
}

// ---------------- adduser ----------------

func newAddUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adduser [username]",
		Short: "Register an account from the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := openManager(cfg, logger.New(serviceName, cfg.LogLevel, cfg.LogFormat))
			if err != nil {
				return err
			}
			defer mgr.Close()

			var username string
			if len(args) == 1 {
				username = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				sc := bufio.NewScanner(cmd.InOrStdin())
				if !sc.Scan() {
					return errors.New("no username given")
				}
				username = strings.TrimSpace(sc.Text())
			}
			if username == "" {
				return errors.New("username cannot be empty")
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password == "" {
				return errors.New("password cannot be empty")
			}

			id, err := mgr.Register(cmd.Context(), username, password, confirm)
			if errors.Is(err, library.ErrUsernameTaken) {
				return errors.New("username already exists")
			}
			if errors.Is(err, library.ErrPasswordMismatch) {
				return errors.New("passwords do not match")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (ID: %d)\n", username, id)
			return nil
		},
	}
}

// readSecret is swapped out in tests.
var readSecret = term.ReadPassword

// readPassword reads a password from the terminal without echoing it. The
// password is returned exactly as typed, matching the web forms.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := readSecret(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return string(bytePassword), nil
}
