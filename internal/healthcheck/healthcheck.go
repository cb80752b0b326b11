// Package healthcheck serves a minimal liveness endpoint for process
// supervisors.
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NormalizeListen accepts "host:port", ":port" or a bare port number and
// returns a listen address, or "" when health serving is disabled.
func NormalizeListen(listen string) string {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return ""
	}
	if port, err := strconv.Atoi(listen); err == nil && port > 0 && port < 65536 {
		return ":" + listen
	}
	return listen
}

// StartServer listens on addr and answers GET /healthz. The returned server
// is already serving; the caller owns shutdown.
func StartServer(ctx context.Context, logger *slog.Logger, addr, component string) (*http.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"component": component,
		})
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("health_server_stopped", "component", component, "error", err.Error())
		}
	}()
	logger.Info("health_server_started", "component", component, "addr", listener.Addr().String())
	return server, nil
}
