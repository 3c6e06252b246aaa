package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/ray-remotestate/recipebox/config"
	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/handlers"
	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/server"
	"github.com/ray-remotestate/recipebox/templates"
)

const shutdownTimeOut = 10 * time.Second

const usage = `usage: recipebox [flags] [serve | migrate up|down|version]

flags:
`

func main() {
	host := flag.String("host", "", "listen host (overrides HOST)")
	port := flag.Int("port", 0, "listen port (overrides PORT)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.Debug = true
	}
	setupLogging(cfg)

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"serve"}
	}

	switch args[0] {
	case "serve":
		err = serve(cfg)
	case "migrate":
		err = runMigrate(cfg, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logrus.WithError(err).Fatal("recipebox stopped with an error")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}

func serve(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	db, err := database.ConnectAndMigrate(context.Background(), cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	logrus.Info("migration is successful")

	renderer, err := templates.New()
	if err != nil {
		database.ShutdownDatabase(db)
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.DB.Name),
	)
	metrics := middlewares.NewMetrics(registry)

	h := handlers.New(renderer, db, cfg)
	srv := server.SetupRoutes(h, db, cfg.SessionSecret, metrics)

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.Addr()).Info("server is running")
		if err := srv.Run(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		database.ShutdownDatabase(db)
		return fmt.Errorf("server failed: %w", err)
	}

	logrus.Info("shutting down...")
	if err := srv.Shutdown(shutdownTimeOut); err != nil {
		logrus.WithError(err).Error("failed to gracefully shutdown server")
	}
	if err := database.ShutdownDatabase(db); err != nil {
		logrus.WithError(err).Error("failed to close database connection!")
	}
	logrus.Info("system is shut ..zzz")
	return nil
}

func runMigrate(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		return err
	}
	defer database.ShutdownDatabase(db)

	return migrateCommand(db, cfg.DB.Name, args[0])
}

func migrateCommand(db *sql.DB, dbName, command string) error {
	switch command {
	case "up":
		return database.MigrateUp(db, dbName)
	case "down":
		return database.MigrateDown(db, dbName)
	case "version":
		version, dirty, err := database.MigrationVersion(db, dbName)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
