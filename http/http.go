// Package http provides the admin HTTP surface of a build station. It reports
// whether the station tick loop accepts placements and serves grid snapshots
// to debug them.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// ShutdownTimeout is the time given to in-flight admin requests, such as a
// running smoke test, to complete once the station is stopping.
const ShutdownTimeout = 5 * time.Second

// ListenAndServe runs the admin servers of a station and blocks until they
// are stopped. Servers are shut down when the context is done, which happens
// when the station process receives a termination signal.
func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()
		shutdown(servers)
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()
			serve(s)
		}(s)
	}

	wg.Wait()
}

func serve(s *http.Server) {
	logs.WithTag("addr", s.Addr).Info("starting admin server")

	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed, context.Canceled:
		logs.WithTag("addr", s.Addr).Info("admin server stopped")

	default:
		logs.Warn(errors.New("admin server stopped unexpectedly").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}

func shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			logs.Warn(errors.New("shutting down the admin server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}
}

// MetricsPathFormatter returns the path label of an admin request.
//
// Requests that did not reach a station endpoint, answered with HTTP 301,
// 400, 404 or 405, get an empty label so that unknown paths do not create
// new series. Profiling paths share a single label and trailing slashes are
// trimmed, so /debug/grid/ and /debug/grid are counted together.
func MetricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusMovedPermanently ||
		statusCode == http.StatusBadRequest ||
		statusCode == http.StatusNotFound ||
		statusCode == http.StatusMethodNotAllowed {
		return ""
	}

	if strings.HasPrefix(path, "/debug/pprof/") {
		return "/debug/pprof/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
