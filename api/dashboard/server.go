package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/feederwatch/config"
	"github.com/kilianp07/feederwatch/core/logger"
)

// Serve runs handler on cfg.Address until ctx is cancelled.
func Serve(ctx context.Context, cfg config.DashboardConfig, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("dashboard shutdown: %v", err)
		}
	}()
	log.Infof("serving dashboard on %s", cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
