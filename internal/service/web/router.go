package web

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

func (s *Server) router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/add_batch/", s.addBatchHandler)
	mux.HandleFunc("/stats/", s.statsHandler)
	mux.HandleFunc("/ws", s.wsHandler)

	return s.recover(mux)
}

// recover turns a panicking handler into a 500 response and flips the
// unhealthy flag rather than letting it take the whole process down.
func (s *Server) recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.unhealthy.Store(true)
				s.logger.Error("panic handling request",
					"method", r.Method, "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.keeper.addConn(conn)
	go s.keeper.keep(conn)
}
