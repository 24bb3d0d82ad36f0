package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/analysis"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/config"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/imagery"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/mapstore"
	"github.com/parultandon1999/gee-urban-heat-analyzer/internal/session"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	cfg := config.Default()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.MapsDir = t.TempDir()

	maps, err := mapstore.Open(cfg.MapsDir)
	if err != nil {
		t.Fatalf("open map store: %v", err)
	}
	t.Cleanup(maps.Close)

	store := session.NewStore()
	srv := New(cfg, store, analysis.NewRunner(store), imagery.NewSynthetic(), maps)
	return srv, srv.Handler()
}

const validBody = `{
	"latitude": 29.518321,
	"longitude": 74.993558,
	"startDate": "2025-05-29",
	"endDate": "2025-08-30"
}`

// submit posts a valid job and returns its session id.
func submit(t *testing.T, handler http.Handler, body string) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a session id")
	}
	return resp.SessionID
}

// pollResult polls the pull reader until the session leaves running state.
func pollResult(t *testing.T, handler http.Handler, id string) *httptest.ResponseRecorder {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest("GET", "/api/analysis-result/"+id, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			return w
		}
		if time.Now().After(deadline) {
			t.Fatal("session never reached a terminal state")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_Health(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestServer_Parameters(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/parameters", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var params map[string]any
	if err := json.NewDecoder(w.Body).Decode(&params); err != nil {
		t.Fatalf("decode parameters: %v", err)
	}
	for _, key := range []string{"latitude", "longitude", "startDate", "endDate", "cloudCover", "hotThreshold", "vegThreshold", "geeProjectId", "dataset"} {
		if _, ok := params[key]; !ok {
			t.Errorf("parameters missing %q", key)
		}
	}
}

func TestServer_CORSHeaders(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/parameters", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestServer_AnalyzeBadJSON(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestServer_AnalyzeMissingFields(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(`{"latitude": 29.5}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "required") {
		t.Errorf("expected required-fields error, got %s", w.Body.String())
	}
}

func TestServer_AnalyzeInvalidParams(t *testing.T) {
	_, handler := newTestServer(t)

	body := strings.Replace(validBody, "29.518321", "95", 1)
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "latitude") {
		t.Errorf("expected latitude diagnostic, got %s", w.Body.String())
	}
}

func TestServer_AnalyzeUnknownDataset(t *testing.T) {
	_, handler := newTestServer(t)

	body := strings.TrimSuffix(validBody, "\n}") + `, "dataset": "NOT/A/DATASET"}`
	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

// downProvider simulates an uninitialized imagery backend.
type downProvider struct{}

func (downProvider) Ready() bool { return false }
func (downProvider) FetchScene(context.Context, imagery.SceneRequest) (*imagery.Scene, error) {
	panic("not reachable")
}
func (downProvider) ComputeIndices(context.Context, *imagery.Scene, imagery.Profile) (*imagery.IndexedScene, error) {
	panic("not reachable")
}
func (downProvider) SampleHotspots(context.Context, *imagery.IndexedScene, imagery.Criteria) ([]imagery.Sample, error) {
	panic("not reachable")
}

func TestServer_AnalyzeBackendUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.MapsDir = t.TempDir()
	maps, err := mapstore.Open(cfg.MapsDir)
	if err != nil {
		t.Fatal(err)
	}
	defer maps.Close()

	store := session.NewStore()
	srv := New(cfg, store, analysis.NewRunner(store), downProvider{}, maps)
	handler := srv.Handler()

	req := httptest.NewRequest("POST", "/api/analyze", strings.NewReader(validBody))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	if store.Len() != 0 {
		t.Error("no session must be created when the backend is down")
	}
}

func TestServer_ResultNotFound(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/analysis-result/nonexistent", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestServer_ResultLifecycle(t *testing.T) {
	_, handler := newTestServer(t)

	id := submit(t, handler, validBody)
	w := pollResult(t, handler, id)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Success       bool             `json:"success"`
		HotspotsFound int              `json:"hotspotsFound"`
		Clusters      int              `json:"clusters"`
		PriorityZones []map[string]any `json:"priorityZones"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Success || result.HotspotsFound == 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.PriorityZones) != result.Clusters {
		t.Errorf("priorityZones length %d != clusters %d", len(result.PriorityZones), result.Clusters)
	}
}

func TestServer_ResultFailedRun(t *testing.T) {
	_, handler := newTestServer(t)

	// 60°C exceeds anything the synthetic scene produces, so extraction fails.
	body := strings.TrimSuffix(validBody, "\n}") + `, "hotThreshold": 60}`
	id := submit(t, handler, body)
	w := pollResult(t, handler, id)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	var resp errorFrame
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error diagnostic")
	}
}

func TestServer_CancelNotFound(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("DELETE", "/api/analysis/nonexistent", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestServer_Cancel(t *testing.T) {
	_, handler := newTestServer(t)

	id := submit(t, handler, validBody)

	req := httptest.NewRequest("DELETE", "/api/analysis/"+id, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "cancelling") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}

	// The session still reaches a terminal state either way.
	pollResult(t, handler, id)
}

func TestServer_MapEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	id := submit(t, handler, validBody)
	if w := pollResult(t, handler, id); w.Code != http.StatusOK {
		t.Fatalf("analysis failed: %s", w.Body.String())
	}

	// The completed run saved one artifact.
	req := httptest.NewRequest("GET", "/api/maps", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list maps: expected 200, got %d", w.Code)
	}
	var list []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode map list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 map artifact, got %d", len(list))
	}
	name := list[0].Name

	// Download it.
	req = httptest.NewRequest("GET", "/api/download-map/"+name, nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "leaflet") {
		t.Error("downloaded artifact is not the rendered map")
	}

	// Delete it, twice: both must report success.
	for i := 0; i < 2; i++ {
		req = httptest.NewRequest("DELETE", "/api/delete-map/"+name, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("delete %d: expected 200, got %d", i, w.Code)
		}
	}

	// Gone now.
	req = httptest.NewRequest("GET", "/api/download-map/"+name, nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestServer_MapInvalidFilename(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/download-map/evil.html", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("download: expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest("DELETE", "/api/delete-map/evil.html", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("delete: expected 400, got %d", w.Code)
	}
}
