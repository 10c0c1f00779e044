package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hoa-assistant-backend/analytics"
	"hoa-assistant-backend/handlers"
	"hoa-assistant-backend/storage"
)

const shutdownTimeout = 30 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the question answering HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		recorder, err := initRecorder(ctx)
		if err != nil {
			return err
		}

		var askOpts []handlers.AskHandlerOption
		if cfg.Analytics.RecordAnswers {
			askOpts = append(askOpts, handlers.AskWithRecorder(recorder))
		}
		askHandler := handlers.NewAskHandler(env.Answers, askOpts...)

		router := handlers.NewRouter(handlers.RouterConfig{
			Ask:            askHandler,
			Log:            handlers.NewLogHandler(recorder),
			Metrics:        env.Metrics.Handler(),
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
		})

		handler := cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		})(router)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}

		zap.L().Info("starting server", zap.Int("port", port))
		return runServer(ctx, srv, ln, askHandler.Wait)
	},
}

// runServer serves on ln until ctx is done, then shuts srv down and calls
// drain once every in-flight request has finished.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, drain func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return eris.Wrap(err, "server serve")
	}

	// Serve returns as soon as Shutdown starts; in-flight handlers may
	// still queue work until it finishes.
	<-shutdownDone
	if drain != nil {
		drain()
	}
	return nil
}

func initRecorder(ctx context.Context) (analytics.Recorder, error) {
	var store storage.Storage
	if cfg.Analytics.Sink == analytics.SinkStorage {
		s, err := storage.NewStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		store = s
		zap.L().Info("analytics archive storage initialized", zap.String("type", cfg.Storage.Type))
	}

	recorder, err := analytics.NewRecorder(cfg.Analytics, store)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
