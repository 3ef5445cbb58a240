package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk/pionstats"
	"github.com/qieqieplus/meeting-view/pkg/server"
	"github.com/qieqieplus/meeting-view/pkg/session"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr, logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			log.Init(cfg.LogLevel)
			log.Info("Starting server...")

			manager := session.NewManager(*cfg, func(meetingID string) mediasdk.SDK {
				return mediasdk.NewMemory(pionstats.NewSource())
			}, session.Options{})

			// The configured session is optional; sessions can also be created over HTTP.
			if cfg.Session.MeetingID != "" {
				if _, err := manager.Create(cfg.Session); err != nil {
					return errors.Wrap(err, "failed to start configured session")
				}
				log.Infof("Session %s started from config", cfg.Session.MeetingID)
			}

			wsServer := server.NewWebSocketServer(manager, cfg)
			httpServer := server.NewHTTPServer(manager, wsServer)

			srv := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: httpServer,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
				if err := srv.ListenAndServe(); err != http.ErrServerClosed {
					serveErr <- err
				}
				close(serveErr)
			}()

			return waitForShutdown(srv, manager, serveErr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func waitForShutdown(srv *http.Server, manager *session.Manager, serveErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var listenErr error
	select {
	case <-stop:
	case err, ok := <-serveErr:
		if ok && err != nil {
			listenErr = errors.Wrap(err, "HTTP server error")
			log.Error(listenErr)
		}
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close sessions first so connected clients get a normal close frame
	if err := manager.Shutdown(); err != nil {
		log.Errorf("Error during session manager shutdown: %v", err)
	} else {
		log.Info("Session manager shut down successfully")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error during HTTP server shutdown: %v", err)
	} else {
		log.Info("HTTP server shut down successfully")
	}

	log.Info("Server shutdown complete.")
	return listenErr
}
