package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/po/internal/api"
)

const shutdownTimeout = 15 * time.Second

// Serve runs the HTTP bridge and the service API until a signal arrives or the
// service API asks for shutdown.
func Serve(ctx context.Context, rt *Runtime) error {
	logger := rt.Logger
	cfg := rt.Config
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var source api.NotificationSource
	if rt.Redis != nil && cfg.MockServices {
		source = api.RedisNotifications(rt.Redis)
	} else {
		source = api.RecorderNotifications(rt.Recorder)
	}

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	serviceSrv := &http.Server{
		Addr:    "127.0.0.1:" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(logger, source, shutdownChan),
	}
	mainApiSrv := &http.Server{
		Addr:    cfg.ApiAddr(),
		Handler: api.SetupRouter(ctx, cfg, logger, rt.Session),
	}

	for name, srv := range map[string]*http.Server{"service API": serviceSrv, "main API": mainApiSrv} {
		wg.Add(1)
		go func(name string, srv *http.Server) {
			defer wg.Done()
			logger.Info(name+" listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(name+" ListenAndServe error", zap.Error(err))
				errChan <- err
				return
			}
			logger.Info(name + " stopped")
		}(name, srv)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))
	case <-shutdownChan:
		logger.Info("shutdown requested via service API, shutting down gracefully")
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case runErr = <-errChan:
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("main API shutdown error", zap.Error(err))
	}
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("service API shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("all servers stopped")
	return runErr
}
