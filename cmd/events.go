package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/gemini-sub-translator/internal/httpapi"
	"github.com/MimeLyc/gemini-sub-translator/internal/jobs"
	"github.com/MimeLyc/gemini-sub-translator/internal/report"
	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// withEventServer runs fn. When addr is set, the job queue and the event
// stream are served over HTTP for as long as fn runs.
func withEventServer(ctx context.Context, addr string, queue *jobs.Queue, hub *report.EventHub, fn func(context.Context) error) error {
	if addr == "" {
		defer hub.Close()
		return fn(ctx)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		hub.Close()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := httpapi.NewServer(queue, hub)
	log.Info("Serving progress events on http://%s/api/events", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("events server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runErr := fn(gctx)

		// closing the hub ends open event streams so shutdown does not wait
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Events server shutdown: %v", err)
		}
		return runErr
	})
	return g.Wait()
}
