package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/symrange/symrange/internal/errs"
)

type healthResponse struct {
	Status      string `json:"status"`
	ShardCount  int    `json:"shard_count"`
	SymbolCount int64  `json:"symbol_count"`
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.unhealthy.Load() {
		status = "unhealthy"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      status,
		ShardCount:  s.registry.ShardCount(),
		SymbolCount: s.registry.SymbolCount(),
	})
}

type addBatchRequest struct {
	Symbol string    `json:"symbol"`
	Values []float64 `json:"values"`
}

func (s *Server) addBatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req addBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCoreError(w, errs.New(errs.InvalidValue, "malformed request body: %v", err))
		return
	}

	if err := s.registry.Record(req.Symbol, req.Values); err != nil {
		writeCoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type statsResponse struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Last float64 `json:"last"`
	Avg  float64 `json:"avg"`
	Var  float64 `json:"var"`
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeCoreError(w, errs.New(errs.UnknownSymbol, "symbol query parameter is required"))
		return
	}

	exponent, err := strconv.Atoi(r.URL.Query().Get("exponent"))
	if err != nil {
		writeCoreError(w, errs.New(errs.InvalidExponent, "exponent must be an integer: %v", err))
		return
	}

	stats, err := s.registry.Query(symbol, exponent)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Min:  stats.Min,
		Max:  stats.Max,
		Last: stats.Last,
		Avg:  stats.Mean,
		Var:  stats.Variance,
	})
}

// writeCoreError maps a *errs.Error to the HTTP status its Kind is
// assigned; an error outside that taxonomy is a bug in a collaborator,
// not a client mistake, so it is reported as 500.
func writeCoreError(w http.ResponseWriter, err error) {
	kind, ok := errs.KindOf(err)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, errs.HTTPStatus(kind), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
