package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-filtering/pkg/api/middleware"
	"github.com/dd0wney/cluso-filtering/pkg/config"
	"github.com/dd0wney/cluso-filtering/pkg/graphql"
	"github.com/dd0wney/cluso-filtering/pkg/health"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/metrics"
	"github.com/dd0wney/cluso-filtering/pkg/server"
	"github.com/dd0wney/cluso-filtering/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "filter-server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.Level())
	logging.SetDefaultLogger(logger)
	registry := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var books *store.PGStore
	if cfg.Store.DatabaseURL != "" {
		books, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer books.Close()
	}

	var gs *server.GracefulServer
	mux, err := newMux(cfg, logger, registry, books, func() bool {
		return gs != nil && gs.IsShuttingDown()
	})
	if err != nil {
		return err
	}

	gs = server.NewGracefulServer(cfg.Server.Addr, mux,
		server.WithLogger(logger.With(logging.Component("http"))),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	// Only the log level is reloadable; the schema is fixed at startup.
	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(next.Level())
		logger.Info("log level set", logging.String("level", next.Level().String()))
		return nil
	})

	logger.Info("filter server starting",
		logging.String("addr", cfg.Server.Addr),
		logging.String("graphql_path", cfg.Server.GraphQLPath),
		logging.Bool("postgres", books != nil),
	)
	return gs.Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (*store.PGStore, error) {
	books, err := store.NewPGStore(ctx, cfg.Store.DatabaseURL,
		store.WithLogger(logger.With(logging.Component("store"))),
		store.WithCombinators(cfg.Filtering.AndKeyword, cfg.Filtering.OrKeyword),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Seed {
		if err := books.SeedLibrary(ctx, graphql.DemoLibrary()); err != nil {
			books.Close()
			return nil, err
		}
	}
	return books, nil
}

// newMux builds the demo library schema and routes the GraphQL, metrics and
// probe endpoints. A nil books serves Query.books from memory.
func newMux(cfg *config.Config, logger logging.Logger, registry *metrics.Registry, books *store.PGStore, shuttingDown func() bool) (*http.ServeMux, error) {
	conv, err := graphql.NewConvention(cfg.FilterConfig(),
		graphql.WithConventionLogger(logger.With(logging.Component("filtering"))),
		graphql.WithConventionMetrics(registry),
	)
	if err != nil {
		return nil, err
	}
	var opts []graphql.LibraryOption
	if books != nil {
		opts = append(opts, graphql.WithBookFinder(books.FindBooks))
	}
	schema, err := graphql.NewLibrarySchema(conv, graphql.DemoLibrary(), opts...)
	if err != nil {
		return nil, err
	}

	checker := health.NewChecker()
	checker.RegisterReadinessCheck("schema", health.SchemaCheck(schema, conv.FilterInputNames()...))
	checker.RegisterReadinessCheck("shutdown", health.ShutdownCheck(shuttingDown))
	if books != nil {
		checker.RegisterReadinessCheck("database", health.DatabaseCheck(books.Ping, cfg.Store.PingTimeout))
	}
	checker.RegisterLivenessCheck("memory", health.MemoryCheck(0))

	gql := graphql.NewGraphQLHandler(schema,
		graphql.WithHandlerLogger(logger),
		graphql.WithMaxQueryDepth(cfg.Server.MaxQueryDepth),
	)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.GraphQLPath, middleware.Chain(gql,
		middleware.PanicRecovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Metrics(registry),
		middleware.BodySizeLimit(cfg.Server.MaxBodyBytes),
	))
	mux.Handle(cfg.Server.MetricsPath, registry.Handler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	mux.HandleFunc("/livez", checker.LivenessHandler())
	return mux, nil
}
