// ABOUTME: serve command: webhook receiver that keeps the mirror in step with the board
// ABOUTME: Board notifications schedule debounced mirror passes; shuts down on signal
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/webhook"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var initial bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive board webhooks and mirror the board after each burst of changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireBoard(); err != nil {
				return err
			}
			if err := a.cfg.RequireMirror(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler := webhook.NewScheduler(ctx, a.cfg.WebhookDebounce, a.scheduledPass)
			defer scheduler.Close()
			if initial {
				scheduler.Notify()
			}

			gin.SetMode(gin.ReleaseMode)
			router := webhook.NewRouter(webhook.Config{
				BoardID:  a.cfg.BoardID,
				Secret:   a.cfg.WebhookSecret,
				Notifier: scheduler,
				Logger:   a.log,
			})

			return a.listen(ctx, &http.Server{
				Addr:              net.JoinHostPort("", a.cfg.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
	cmd.Flags().BoolVar(&initial, "initial-sync", false, "Run one mirror pass at startup")
	return cmd
}

// scheduledPass is the scheduler's sync function.
func (a *app) scheduledPass(ctx context.Context) error {
	runID, report, err := a.mirrorPass(ctx)
	if err != nil {
		return err
	}
	if report.Failed() > 0 {
		return fmt.Errorf("run %s: %d of %d vendors incomplete", runID, report.Failed(), report.Total())
	}
	return nil
}

// listen serves until ctx is done, then drains in-flight requests.
func (a *app) listen(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("webhook server listening", "addr", server.Addr, "board", a.cfg.BoardID)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down webhook server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down webhook server: %w", err)
	}
	return nil
}
