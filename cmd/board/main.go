package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"communityboard/internal/config"
	"communityboard/internal/logger"
	"communityboard/internal/mysql"
	"communityboard/internal/redis"
	"communityboard/internal/routing"
	"communityboard/internal/sqldb"
	"communityboard/pkg/engagement"
	"communityboard/pkg/middleware"
	"communityboard/pkg/session"
)

var rootCmd = &cobra.Command{
	Use:           "board",
	Short:         "Community board backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Delete expired sessions from the sessions table once",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runSweep(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Recompute like and comment counters from the source rows",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runReconcile(cmd.Context()) },
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	db     *sql.DB
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.Load(cfg.LogLevel, string(cfg.Environment))
	if err != nil {
		return nil, err
	}
	db, err := mysql.LoadDB(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) close() {
	e.db.Close()
	_ = e.logger.Sync()
}

func runServe(ctx context.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.cfg

	var store session.Store
	var sweeper *session.Sweeper
	switch cfg.SessionBackend {
	case "redis":
		client, err := redis.LoadClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client)
	default:
		mysqlStore := session.NewMySQLStore(e.db, sqldb.MySQL)
		store = mysqlStore
		sweeper = &session.Sweeper{Store: mysqlStore, Interval: cfg.SweepInterval, Logger: e.logger}
	}

	sessions := session.NewManager(store, cfg.SessionTimeout, session.CookieConfig{
		Name:     cfg.SessionCookieName,
		Path:     "/",
		Secure:   cfg.CookieSecure,
		SameSite: cfg.SameSite(),
	}, e.logger)

	router := routing.NewRouter(routing.Deps{
		DB:           e.db,
		Dialect:      sqldb.MySQL,
		Sessions:     sessions,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst),
		Logger:       e.logger,
	})

	e.logger.Infow("starting", "environment", cfg.Environment, "session_backend", cfg.SessionBackend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return routing.Serve(ctx, cfg.HTTPAddr, router, e.logger)
	})
	if sweeper != nil {
		g.Go(func() error { return sweeper.Run(ctx) })
	}
	return g.Wait()
}

func runSweep(ctx context.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	sweeper := &session.Sweeper{Store: session.NewMySQLStore(e.db, sqldb.MySQL), Logger: e.logger}
	n, err := sweeper.SweepOnce(ctx)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	fmt.Printf("%d expired sessions removed\n", n)
	return nil
}

func runReconcile(ctx context.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	n, err := engagement.NewService(e.db, sqldb.MySQL).Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile counters: %w", err)
	}
	e.logger.Infow("counters reconciled", "posts_fixed", n)
	fmt.Printf("%d posts corrected\n", n)
	return nil
}
