package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"safewarner"
	_ "safewarner/docs"
	"safewarner/internal/autostart"
	"safewarner/internal/handlers"
	"safewarner/internal/logger"
	"safewarner/internal/metrics"
	"safewarner/internal/notify"
	"safewarner/internal/repository"
	"safewarner/internal/repository/db"
	"safewarner/internal/server"
	"safewarner/internal/service"
	"safewarner/internal/sysinfo"
	"safewarner/internal/vision"
)

// @title           Safe Warner API
// @version         1.0
// @description     Desktop eye health and posture monitor control API

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	autoMode := pflag.Bool("auto-mode", false, "start monitoring in auto mode")
	minimal := pflag.Bool("minimal", false, "boot launch: no voice prompts")
	pflag.Parse()

	// load config.yml first so the logger picks up level and file path
	configErr := loadConfig()

	log := logger.Get(viper.GetString("log.level"), viper.GetString("log.file"))
	if configErr != nil {
		log.Warnw("config not loaded, using defaults", "err", configErr)
	}
	cfg := service.FromViper()

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, prefsPath())
	services := service.NewService(cfg, repos, buildDeps(*minimal, log), log)
	apiHandler := handlers.NewHandler(services, log)

	metrics.Register(conn, log)

	// reconcile the boot registration with the stored preference
	services.Prefs.ApplyOnStartup()

	if *autoMode {
		if err := services.Monitoring.SetMode(safewarner.ModeAuto); err != nil {
			log.Errorw("failed to enable auto mode", "err", err)
		}
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the capture/tick loop
	go services.Runner.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// buildDeps probes the optional collaborators. Anything unavailable falls
// back to its no-op stand-in; the session keeps working without it.
func buildDeps(minimal bool, log *logger.Logger) service.Deps {
	deps := service.Deps{
		Capture:   vision.NoCapture(),
		Detector:  vision.Unavailable(),
		Notifier:  notify.Desktop(),
		Speaker:   notify.SystemSpeaker(),
		Health:    sysinfo.Host(),
		ExportDir: viper.GetString("export.dir"),
	}
	if minimal {
		deps.Speaker = notify.Silent()
	}
	mgr, err := autostart.New()
	if err != nil {
		log.Warnw("autostart unavailable", "err", err)
	} else {
		deps.Autostart = mgr
	}
	if deps.ExportDir == "" {
		deps.ExportDir = "."
	}
	return deps
}

// prefsPath returns the settings file location from config, with a default
// next to the binary.
func prefsPath() string {
	if p := viper.GetString("prefs.path"); p != "" {
		return p
	}
	return "safe_warner_settings.json"
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "safewarner.db")
		dbPath = "safewarner.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals, exports the session and
// performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop background goroutines
	cancel()

	// write the end-of-session report before the process exits
	exportCtx, exportCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if path, err := services.Exporter.Export(exportCtx, service.FormatJSON); err != nil {
		log.Warnw("final session export failed", "err", err)
	} else {
		log.Infow("session exported", "path", path)
	}
	exportCancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
