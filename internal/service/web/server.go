// Package web is the HTTP transport collaborator: it exposes the
// registry's record/query API over a small set of JSON endpoints, plus
// a websocket channel for live per-symbol stats.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/symrange/symrange/internal/event"
	"github.com/symrange/symrange/internal/registry"
)

// Server is an app.Service: Run blocks until ctx is cancelled, then
// drains in-flight requests before returning.
type Server struct {
	web       *http.Server
	keeper    *keeper
	registry  *registry.Registry
	logger    *slog.Logger
	unhealthy atomic.Bool
}

// New builds a Server listening on addr and routing record/query
// requests to reg. logger may be nil, in which case the server falls
// back to a plain text logger on os.Stderr.
func New(addr string, reg *registry.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	s := &Server{
		web:      &http.Server{Addr: addr},
		keeper:   newKeeper(),
		registry: reg,
		logger:   logger,
	}
	s.web.Handler = s.router()
	return s
}

func (s *Server) Run(ctx context.Context) error {
	closed := make(chan error, 1)

	go func() {
		closed <- s.web.ListenAndServe()
	}()

	select {
	case err := <-closed:
		return err
	case <-ctx.Done():
		_ = s.web.Shutdown(context.Background())
		return ctx.Err()
	}
}

// BroadcastSnapshot fires on the reporter's ticker. For every symbol a
// connected websocket client has subscribed to, it queries the
// registry live and pushes a fresh stats frame — unlike the HTTP
// /stats/ endpoint this is best-effort: a symbol with no data yet, or
// that query error, is silently skipped rather than failing the whole
// broadcast.
func (s *Server) BroadcastSnapshot(ctx context.Context, _ event.RegistrySnapshot) error {
	return s.keeper.walkSubs(func(conn *websocket.Conn, subs map[string]struct{}) error {
		for symbol := range subs {
			stats, err := s.registry.Query(symbol, 1)
			if err != nil {
				continue
			}

			frame := SymbolStatsFrame{
				Symbol:   symbol,
				Min:      stats.Min,
				Max:      stats.Max,
				Last:     stats.Last,
				Mean:     stats.Mean,
				Variance: stats.Variance,
			}
			s.keeper.recordFrame(frame)

			js, err := json.Marshal(NewMessage("symbol_stats", frame))
			if err != nil {
				return fmt.Errorf("marshal symbol stats: %w", err)
			}

			if err := conn.WriteMessage(websocket.TextMessage, js); err != nil {
				return fmt.Errorf("write symbol stats: %w", err)
			}
		}
		return nil
	})
}
