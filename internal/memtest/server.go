package memtest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// MetricsServer serves a metrics handler on /metrics.
type MetricsServer struct {
	srv *http.Server
	ln  net.Listener
}

// ListenMetrics binds addr and serves handler on /metrics in the background.
func ListenMetrics(addr string, handler http.Handler) (*MetricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	ms := &MetricsServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout},
		ln:  ln,
	}

	go func() {
		serveErr := ms.srv.Serve(ln)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()

	return ms, nil
}

// Addr returns the bound address.
func (ms *MetricsServer) Addr() string {
	return ms.ln.Addr().String()
}

// Shutdown stops the server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return ms.srv.Shutdown(ctx)
}
