package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_airdrop/models"
	"token_airdrop/pkg/service"
)

type memoryProgress struct {
	records []models.DistributionRecord
	err     error
}

func (m *memoryProgress) Load(context.Context) ([]models.DistributionRecord, error) {
	return m.records, m.err
}

func (m *memoryProgress) Records(ctx context.Context) ([]models.DistributionRecord, error) {
	return m.Load(ctx)
}

func (m *memoryProgress) Persist(_ context.Context, records []models.DistributionRecord) error {
	m.records = records
	return nil
}

func newRouter(progress *memoryProgress, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(service.NewStatusService(progress), cfg).InitRoute()
}

func get(t *testing.T, router http.Handler, path string, header map[string]string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

var sampleLog = []models.DistributionRecord{
	{PublicKey: "A", Amount: 1, Status: models.StatusFailed, Error: "timeout"},
	{PublicKey: "A", Amount: 1, Status: models.StatusDone, Txn: "sig1"},
	{PublicKey: "B", Amount: 2, Status: models.StatusFailed, Error: "rejected"},
}

func TestGetSummary(t *testing.T) {
	router := newRouter(&memoryProgress{records: sampleLog}, Config{})

	w, body := get(t, router, "/api/distribution/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.LogSummary
	require.NoError(t, json.Unmarshal(body["data"], &summary))
	assert.Equal(t, models.LogSummary{Records: 3, Done: 1, Failed: 2, Recipients: 2, CompletedRecipients: 1}, summary)
}

func TestGetRecords(t *testing.T) {
	router := newRouter(&memoryProgress{records: sampleLog}, Config{})

	w, body := get(t, router, "/api/distribution/records?status=failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `2`, string(body["count"]))
	assert.JSONEq(t, `[
		{"publicKey":"A","amount":1,"status":1,"error":"timeout"},
		{"publicKey":"B","amount":2,"status":1,"error":"rejected"}
	]`, string(body["data"]))

	w, body = get(t, router, "/api/distribution/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `3`, string(body["count"]))

	w, body = get(t, router, "/api/distribution/records?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(body["message"]), "unknown distribution status")
}

func TestGetRecipient(t *testing.T) {
	router := newRouter(&memoryProgress{records: sampleLog}, Config{})

	w, body := get(t, router, "/api/distribution/records/A", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res service.RecipientStatus
	require.NoError(t, json.Unmarshal(body["data"], &res))
	assert.True(t, res.Completed)
	assert.Len(t, res.Records, 2)

	_, body = get(t, router, "/api/distribution/records/B", nil)
	require.NoError(t, json.Unmarshal(body["data"], &res))
	assert.False(t, res.Completed)
}

func TestStoreErrorIsInternal(t *testing.T) {
	router := newRouter(&memoryProgress{err: errors.New("distribution log is corrupt")}, Config{})

	w, body := get(t, router, "/api/distribution/summary", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, string(body["message"]), "corrupt")
}

func TestAPIKeyAndCORS(t *testing.T) {
	router := newRouter(&memoryProgress{records: sampleLog}, Config{
		APIKey:       "s3cret",
		AllowOrigins: []string{"https://ops.example.com"},
	})

	w, _ := get(t, router, "/api/distribution/summary", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = get(t, router, "/api/distribution/summary", map[string]string{
		"X-Api-Key": "s3cret",
		"Origin":    "https://ops.example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, NewHandler(nil, Config{}).corsConfig().AllowAllOrigins)
	assert.True(t, NewHandler(nil, Config{AllowOrigins: []string{"https://a", "*"}}).corsConfig().AllowAllOrigins)

	cfg := NewHandler(nil, Config{AllowOrigins: []string{"https://a"}}).corsConfig()
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a"}, cfg.AllowOrigins)
}
