package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CryptoPulse/internal/domain/models"
	internalrepo "CryptoPulse/internal/repository"
	"CryptoPulse/internal/service/cache"
	"CryptoPulse/internal/service/ratelimit"
	"CryptoPulse/internal/usecase"
	applogger "CryptoPulse/pkg/logger"
)

type memStore struct {
	mu      sync.Mutex
	samples []models.Sample
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) Append(ctx context.Context, s *models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.samples); n > 0 && !s.Timestamp.After(m.samples[n-1].Timestamp) {
		return models.ErrDuplicateSample
	}
	m.samples = append(m.samples, *s)
	return nil
}

func (m *memStore) LastN(ctx context.Context, n int) ([]models.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.samples) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Sample, len(m.samples)-start)
	copy(out, m.samples[start:])
	return out, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.samples)), nil
}

func (m *memStore) Health(ctx context.Context) error { return nil }
func (m *memStore) Close() error                     { return nil }

type staticSource struct {
	mu sync.Mutex
	i  int
}

func (s *staticSource) FetchSpot(ctx context.Context) (*models.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.i++
	return &models.Sample{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.i) * time.Second),
		Symbol:    "bitcoin",
		Price:     100 + float64(s.i),
		Source:    "test",
	}, nil
}

type nopPub struct{}

func (nopPub) Publish(ctx context.Context, s *models.Sample) error { return nil }
func (nopPub) Close() error                                        { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordSampleIngested(string)     {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

func seed(t *testing.T, store *memStore, n int) {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		s := models.Sample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "bitcoin",
			Price:     price,
			Source:    "test",
		}
		if err := store.Append(context.Background(), &s); err != nil {
			t.Fatalf("seed: %v", err)
		}
		price *= 1.001 + 0.0005*math.Sin(float64(i))
	}
}

func newTestServer(t *testing.T, store *memStore) *echo.Echo {
	t.Helper()

	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	artifacts, err := internalrepo.NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}

	nowcast := usecase.NewNowcastService(store, artifacts, l, 2000, 50)
	ingestor := usecase.NewSampleIngestor(&staticSource{}, store, nopPub{}, nopMetrics{})
	batch := usecase.NewBatchRunner(ingestor, l)

	h := NewNowcastHandler(nowcast, ingestor, batch, store,
		cache.NewTTLCache(), ratelimit.New(), l, time.Second)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictWithoutModelReturns404(t *testing.T) {
	store := &memStore{}
	seed(t, store, 160)
	e := newTestServer(t, store)

	rec := do(e, http.MethodGet, "/api/predict", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want 404, body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ERR_NO_MODEL") {
		t.Fatalf("expected ERR_NO_MODEL in body, got %s", rec.Body.String())
	}
}

func TestTrainInsufficientReturns422(t *testing.T) {
	store := &memStore{}
	seed(t, store, 30)
	e := newTestServer(t, store)

	rec := do(e, http.MethodPost, "/api/train", `{"min_rows":50}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d want 422, body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ERR_INSUFFICIENT_DATA") {
		t.Fatalf("expected ERR_INSUFFICIENT_DATA in body, got %s", rec.Body.String())
	}
}

func TestTrainThenPredict(t *testing.T) {
	store := &memStore{}
	seed(t, store, 160)
	e := newTestServer(t, store)

	rec := do(e, http.MethodPost, "/api/train", `{"min_rows":50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var trainEnv struct {
		Data models.TrainResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &trainEnv); err != nil {
		t.Fatalf("decode train response: %v", err)
	}
	if trainEnv.Data.TestAccuracy <= 0.5 {
		t.Fatalf("accuracy: got %v", trainEnv.Data.TestAccuracy)
	}

	rec = do(e, http.MethodGet, "/api/predict", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var predEnv struct {
		Data models.Prediction `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &predEnv); err != nil {
		t.Fatalf("decode prediction: %v", err)
	}
	if predEnv.Data.ProbabilityUp <= 0.5 || predEnv.Data.PredictedClass != 1 {
		t.Fatalf("expected upward prediction, got %+v", predEnv.Data)
	}

	// Second hit serves from cache and must agree.
	rec = do(e, http.MethodGet, "/api/predict", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cached predict status: got %d", rec.Code)
	}
	var cachedEnv struct {
		Data models.Prediction `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cachedEnv); err != nil {
		t.Fatalf("decode cached prediction: %v", err)
	}
	if cachedEnv.Data.ProbabilityUp != predEnv.Data.ProbabilityUp {
		t.Fatalf("cached prediction diverges")
	}
}

func TestTrainDefaultsToConfiguredMinRows(t *testing.T) {
	store := &memStore{}
	seed(t, store, 130) // 110 labeled rows, below the stock threshold of 120
	e := newTestServer(t, store)

	// The test server configures min_rows 50; omitting it from the
	// request must pick that up rather than a hardcoded default.
	rec := do(e, http.MethodPost, "/api/train", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTrainRejectsInvalidRequest(t *testing.T) {
	store := &memStore{}
	seed(t, store, 160)
	e := newTestServer(t, store)

	rec := do(e, http.MethodPost, "/api/train", `{"min_rows":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want 400, body=%s", rec.Code, rec.Body.String())
	}
}

func TestIngestEndpoint(t *testing.T) {
	store := &memStore{}
	e := newTestServer(t, store)

	rec := do(e, http.MethodPost, "/api/ingest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data models.IngestResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Stored {
		t.Fatalf("expected stored=true, got %+v", env.Data)
	}
}

func TestBatchLifecycleEndpoints(t *testing.T) {
	store := &memStore{}
	e := newTestServer(t, store)

	rec := do(e, http.MethodPost, "/api/ingest/batch", `{"count":2,"delay_seconds":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status: got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/ingest/batch/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint: got %d", rec.Code)
	}
	var env struct {
		Data models.BatchStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if env.Data.Target != 2 {
		t.Fatalf("target: got %d want 2", env.Data.Target)
	}

	rec = do(e, http.MethodPost, "/api/ingest/batch/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status: got %d", rec.Code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = do(e, http.MethodGet, "/api/ingest/batch/status", "")
		var st struct {
			Data models.BatchStatus `json:"data"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &st)
		if !st.Data.Running {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = do(e, http.MethodPost, "/api/ingest/batch/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestBatchOutlivesStartRequest(t *testing.T) {
	store := &memStore{}
	e := newTestServer(t, store)
	srv := httptest.NewServer(e)
	defer srv.Close()

	// Going through a real server cancels the request context as soon
	// as the start response is written; the loop must keep collecting.
	resp, err := http.Post(srv.URL+"/api/ingest/batch", echo.MIMEApplicationJSON,
		strings.NewReader(`{"count":2,"delay_seconds":1}`))
	if err != nil {
		t.Fatalf("start request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status: got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(10 * time.Second)
	var st models.BatchStatus
	for {
		r, err := http.Get(srv.URL + "/api/ingest/batch/status")
		if err != nil {
			t.Fatalf("status request: %v", err)
		}
		var env struct {
			Data models.BatchStatus `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		r.Body.Close()
		st = env.Data
		if !st.Running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("batch did not finish, status %+v", st)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if st.Done != 2 || st.Failed != 0 {
		t.Fatalf("expected 2 done 0 failed after request completed, got %+v", st)
	}
	n, _ := store.Count(context.Background())
	if n != 2 {
		t.Fatalf("expected 2 stored samples, got %d", n)
	}
}

func TestPricesAndHealth(t *testing.T) {
	store := &memStore{}
	seed(t, store, 50)
	e := newTestServer(t, store)

	rec := do(e, http.MethodGet, "/api/prices?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("prices status: got %d", rec.Code)
	}
	var env struct {
		Data struct {
			Rows  []models.PricePoint `json:"rows"`
			Total int64               `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode prices: %v", err)
	}
	if len(env.Data.Rows) != 10 || env.Data.Total != 10 {
		t.Fatalf("expected 10 rows, got %d (total %d)", len(env.Data.Rows), env.Data.Total)
	}

	// The since filter drops everything at or before the cutoff.
	cutoff := time.Date(2025, 6, 1, 0, 45, 0, 0, time.UTC).Format(time.RFC3339)
	rec = do(e, http.MethodGet, "/api/prices?limit=50&since="+cutoff, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("prices since status: got %d", rec.Code)
	}
	env.Data.Rows = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode filtered prices: %v", err)
	}
	if len(env.Data.Rows) != 4 {
		t.Fatalf("expected 4 rows after cutoff, got %d", len(env.Data.Rows))
	}

	rec = do(e, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("expected ok health, got %s", rec.Body.String())
	}
}

func TestModelEndpointWithoutArtifact(t *testing.T) {
	store := &memStore{}
	e := newTestServer(t, store)

	rec := do(e, http.MethodGet, "/api/model", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want 404", rec.Code)
	}
}
