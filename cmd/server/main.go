/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration (config.yml + environment)
  2. Initialize SQLite store
  3. Wire the engine: ledger, registry, authority, lifecycle, sinks
  4. Configure HTTP router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the database, exit.

SEE ALSO:
  - config/config.go: configuration keys
  - api/server.go: router configuration
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/notify"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	logger := logrus.New()

	conf, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("loading configuration")
	}
	if level, err := logrus.ParseLevel(conf.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	store, err := sqlite.New(conf.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("initializing database")
	}
	defer store.Close()

	// Engine wiring
	stores := store.Stores()
	ledger := leave.NewBalanceLedger(stores.Employees, stores.Requests)
	registry := leave.NewDelegationRegistry(stores.Delegations, stores.Employees)
	authority := leave.NewApprovalAuthority(stores.Employees, registry)

	var sink leave.NotificationSink = notify.NewLogSink(logger)
	if conf.Notify.WebhookURL != "" {
		sink = notify.Fanout{
			notify.NewLogSink(logger),
			notify.NewWebhookSink(conf.Notify.WebhookURL, logger),
		}
	}
	lifecycle := leave.NewLifecycle(stores, ledger, authority, sink)

	handler := api.NewHandler(lifecycle, ledger, authority, registry, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", conf.App.ListenAddr, conf.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("forced shutdown")
	}

	logger.Info("server stopped")
}
