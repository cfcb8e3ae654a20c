package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symrange/symrange/internal/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.New(4, 1024)
	return New("127.0.0.1:0", reg, nil)
}

func doAddBatch(t *testing.T, s *Server, symbol string, values []float64) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(addBatchRequest{Symbol: symbol, Values: values})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/add_batch/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler_ReportsShardAndSymbolCounts(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, doAddBatch(t, s, "BTCUSD", []float64{1, 2, 3}).Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.EqualValues(t, 1, resp.SymbolCount)
	assert.Equal(t, 4, resp.ShardCount)
}

func TestAddBatchHandler_Success(t *testing.T) {
	s := newTestServer(t)
	rec := doAddBatch(t, s, "ETHUSD", []float64{10, 20, 30})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddBatchHandler_RejectsEmptyBatch(t *testing.T) {
	s := newTestServer(t)
	rec := doAddBatch(t, s, "ETHUSD", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddBatchHandler_RejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/add_batch/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsHandler_UnknownSymbolIs404(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/stats/?symbol=NOPE&exponent=1", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandler_InvalidExponentIs400(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, doAddBatch(t, s, "BTCUSD", []float64{1, 2, 3}).Code)

	req := httptest.NewRequest(http.MethodGet, "/stats/?symbol=BTCUSD&exponent=abc", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/stats/?symbol=BTCUSD&exponent=9", nil)
	rec = httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsHandler_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, doAddBatch(t, s, "BTCUSD", []float64{1, 2, 3, 4, 4, 3, 2, 1, 1, 4}).Code)

	req := httptest.NewRequest(http.MethodGet, "/stats/?symbol=BTCUSD&exponent=1", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Min)
	assert.Equal(t, 4.0, resp.Max)
	assert.Equal(t, 4.0, resp.Last)
	assert.Equal(t, 2.5, resp.Avg)
}

func TestStatsHandler_InsufficientDataIs400(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, doAddBatch(t, s, "BTCUSD", []float64{1, 2}).Code)

	req := httptest.NewRequest(http.MethodGet, "/stats/?symbol=BTCUSD&exponent=3", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
