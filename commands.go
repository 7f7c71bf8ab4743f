package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kantong/internal/bot"
	"kantong/internal/config"
	"kantong/internal/database"
	"kantong/internal/router"
	"kantong/internal/util"

	"github.com/spf13/cobra"
)

// logSender records outgoing files in the process log. The chat gateway
// owns delivery; the file stays in its directory for pickup.
type logSender struct{}

func (logSender) SendFile(_ context.Context, to, path, caption string) error {
	log.Printf("[send] %s -> %s (%s)", path, to, firstLine(caption))
	return nil
}

// writerSender prints outgoing files, for the local chat console.
type writerSender struct{ w io.Writer }

func (s writerSender) SendFile(_ context.Context, to, path, caption string) error {
	_, err := fmt.Fprintf(s.w, "📎 [%s] %s\n%s\n", to, path, caption)
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the daily backup and the session sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath, logSender{})
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sessions.Run(ctx, a.cfg.Session.SweepInterval())
	go func() {
		if err := a.backups.Schedule(ctx); err != nil {
			log.Printf("[backup] scheduler stopped: %v", err)
		}
	}()
	go cleanExports(ctx, a)

	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", a.cfg.Server.Address, a.cfg.Server.Port),
		Handler: router.SetupRouter(a.cfg, router.Deps{
			DB:       a.db,
			Bot:      a.bot,
			Ledger:   a.ledger,
			Exporter: a.exporter,
			Backups:  a.backups,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cleanExports(ctx context.Context, a *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := a.exporter.Clean(exportMaxAge); err != nil {
				log.Printf("[export] clean: %v", err)
			} else if n > 0 {
				log.Printf("[export] removed %d old files", n)
			}
		}
	}
}

func newChatCommand(configPath *string) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal, one message per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := openApp(*configPath, writerSender{w: out})
			if err != nil {
				return err
			}
			defer a.Close()
			return chat(cmd.Context(), a.bot, user, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "local@c.us", "chat user id")
	return cmd
}

func chat(ctx context.Context, b *bot.Bot, user string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		replies, err := b.HandleMessage(ctx, bot.Message{UserID: user, Text: scanner.Text()})
		if err != nil {
			return err
		}
		for _, r := range replies {
			fmt.Fprintln(out, r.Text)
			for _, att := range r.Attachments {
				fmt.Fprintf(out, "📎 %s\n", att.Path)
			}
		}
		fmt.Fprint(out, "\n> ")
	}
	return scanner.Err()
}

func newBackupCommand(configPath *string) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath, writerSender{w: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if send {
				_, err = a.backups.SendToOwner(ctx)
				return err
			}
			b, err := a.backups.Create(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", b.FilePath, b.Size)
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "send the snapshot to backup.owner_id")
	return cmd
}

func newTokenCommand(configPath *string) *cobra.Command {
	var (
		gateway   string
		ttl       time.Duration
		newSecret bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a gateway token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if newSecret {
				secret, err := util.RandomString(48)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), secret)
				return nil
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.ExpireHours) * time.Hour
			}
			token, err := util.GenerateToken(cfg.Auth.Secret, cfg.Auth.Issuer, gateway, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&gateway, "gateway", "whatsapp", "gateway name stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.expire_hours)")
	cmd.Flags().BoolVar(&newSecret, "new-secret", false, "print a random value for auth.secret and exit")
	return cmd
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := database.Init(cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.Database.Path)
			return nil
		},
	}
}
