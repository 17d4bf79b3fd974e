package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"daily-goals-backend/internal/auth"
	"daily-goals-backend/internal/db"
	"daily-goals-backend/internal/goals"
	"daily-goals-backend/internal/logging"
	"daily-goals-backend/internal/metrics"
	"daily-goals-backend/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port      string
	NoMigrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Connect to the configured database, apply the schema and serve the API
until SIGINT or SIGTERM.

Example:
  goals-api serve --config ./config.yaml
  DB_DRIVER=sqlite3 SQLITE_PATH=./goals.db JWT_SECRET=dev goals-api serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides config)")
	cmd.Flags().BoolVar(&opts.NoMigrate, "no-migrate", false, "skip schema migration on startup")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	database, err := db.Connect(cfg.DBDriver, cfg.ConnString())
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect DB")
		return err
	}
	defer database.Close()
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	if !opts.NoMigrate {
		if err := db.Migrate(ctx, database, cfg.DBDriver); err != nil {
			return err
		}
	}

	m := metrics.New()
	svc := goals.NewService(goals.NewStore(database),
		goals.WithLocation(cfg.Location()),
		goals.WithMetrics(m),
		goals.WithLogger(logger),
	)

	handler := server.NewRouter(server.Deps{
		DB:             database,
		Goals:          svc,
		Tokens:         auth.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL},
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv, err := server.Start(net.JoinHostPort("", cfg.Port), handler, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
