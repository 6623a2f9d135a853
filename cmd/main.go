package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartgarden/internal/apiclient"
	"smartgarden/internal/handlers"
	"smartgarden/internal/logger"
	"smartgarden/internal/repository"
	"smartgarden/internal/repository/db"
	"smartgarden/internal/server"
	"smartgarden/internal/service"
	"smartgarden/internal/transport"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	// open local DB
	sqlite, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlite.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlite)
	api := apiclient.NewClient(viper.GetString("backend.url"), log)
	adapter := transport.NewMQTTAdapter(transport.Config{
		BrokerURL:      viper.GetString("mqtt.broker_url"),
		ClientID:       viper.GetString("mqtt.client_id"),
		Username:       viper.GetString("mqtt.username"),
		Password:       viper.GetString("mqtt.password"),
		ReconnectDelay: viper.GetDuration("mqtt.reconnect_delay"),
		KeepAlive:      viper.GetDuration("mqtt.keepalive"),
	}, log)
	services := service.NewService(repos, api, adapter, service.Config{
		DeviceUID:              viper.GetString("device.uid"),
		DeviceTopic:            viper.GetString("mqtt.device_topic"),
		CatchAllTopic:          viper.GetString("mqtt.catch_all_topic"),
		PollInterval:           viper.GetDuration("device.poll_interval"),
		HistoryRefreshInterval: viper.GetDuration("history.refresh_interval"),
		SuppressionWindow:      viper.GetDuration("device.suppression_window"),
		SigningKey:             viper.GetString("auth.signing_key"),
		AssistantURL:           viper.GetString("ai.url"),
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the device session: MQTT connect, poller, history refresh
	if err := services.Session.Start(ctx); err != nil {
		log.Fatalw("failed to start device session", "err", err)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services.Session, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "smartgarden.db")
		dbPath = "smartgarden.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, session *service.Session, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines and the MQTT session
	cancel()
	session.Close()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
