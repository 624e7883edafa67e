package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"safewarner"
	"safewarner/internal/service"
)

func doRequest(r http.Handler, method, target string, body *bytes.Buffer, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSessionHandlers_StatusSnapshotModeExport(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{
		status: service.SessionStatus{Mode: "AUTO", SessionSeconds: 120, CameraAvailable: true},
		snapshot: safewarner.SessionSnapshot{
			Mode: "AUTO",
			Alerts: []safewarner.AlertRecord{
				{Kind: safewarner.AlertProximity, Title: "Move Back Slightly"},
			},
		},
		mode: "AUTO",
	}
	exp := &mockExporter{path: "safe_warner_session_20260801_090000.json"}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		Exporter:      exp,
	}
	r := newTestRouter(s)

	// GET status requires auth → 401 without header
	w := doRequest(r, http.MethodGet, "/api/v1/session/status", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200 and status body
	w = doRequest(r, http.MethodGet, "/api/v1/session/status", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var st service.SessionStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.Mode != "AUTO" || st.SessionSeconds != 120 || !st.CameraAvailable {
		t.Fatalf("unexpected status: %+v", st)
	}

	// GET snapshot → 200 with ledger contents
	w = doRequest(r, http.MethodGet, "/api/v1/session/snapshot", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status=%d, body=%s", w.Code, w.Body.String())
	}
	var snap safewarner.SessionSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].Kind != safewarner.AlertProximity {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// POST /mode → 200, passes the mode through and echoes it
	body := bytes.NewBufferString(`{"mode":"MANUAL"}`)
	w = doRequest(r, http.MethodPost, "/api/v1/session/mode", body, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("mode status=%d, body=%s", w.Code, w.Body.String())
	}
	if mon.lastSetMode != "MANUAL" {
		t.Fatalf("SetMode got %q", mon.lastSetMode)
	}
	var modeResp struct {
		Status string `json:"status"`
		Mode   string `json:"mode"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &modeResp)
	if modeResp.Status != statusModeSet || modeResp.Mode != "MANUAL" {
		t.Fatalf("bad mode response: %+v", modeResp)
	}

	// POST /mode with missing body → 400
	w = doRequest(r, http.MethodPost, "/api/v1/session/mode", bytes.NewBufferString(`{}`), "valid")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty mode should 400, got %d", w.Code)
	}

	// POST /export → 200 with path
	w = doRequest(r, http.MethodPost, "/api/v1/session/export", bytes.NewBufferString(`{"format":"json"}`), "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("export status=%d, body=%s", w.Code, w.Body.String())
	}
	if exp.lastFormat != "json" {
		t.Fatalf("export format passed = %q", exp.lastFormat)
	}
	var expResp struct {
		Status string `json:"status"`
		Path   string `json:"path"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &expResp)
	if expResp.Status != statusExported || expResp.Path == "" {
		t.Fatalf("bad export response: %+v", expResp)
	}
}

func TestExerciseHandlers_StartCancelStatus(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	mon := &mockMonitoring{mode: "MANUAL"}
	ex := &mockExercise{
		status: &safewarner.ExerciseStatus{Phase: safewarner.GazeRight, RemainingSeconds: 9},
	}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		Exercise:      ex,
	}
	r := newTestRouter(s)

	// POST /start → 200 and StartExercise called
	w := doRequest(r, http.MethodPost, "/api/v1/exercise/start", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("start status=%d, body=%s", w.Code, w.Body.String())
	}
	if mon.startCalls != 1 {
		t.Fatalf("StartExercise calls = %d", mon.startCalls)
	}

	// Already running → 409
	mon.startErr = service.ErrExerciseActive
	w = doRequest(r, http.MethodPost, "/api/v1/exercise/start", nil, "valid")
	if w.Code != http.StatusConflict {
		t.Fatalf("double start should 409, got %d", w.Code)
	}

	// GET /status → active with phase
	w = doRequest(r, http.MethodGet, "/api/v1/exercise/status", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var stResp struct {
		Active   bool                       `json:"active"`
		Exercise *safewarner.ExerciseStatus `json:"exercise"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !stResp.Active || stResp.Exercise == nil || stResp.Exercise.Phase != safewarner.GazeRight {
		t.Fatalf("bad exercise status: %+v", stResp)
	}

	// POST /cancel → 200
	w = doRequest(r, http.MethodPost, "/api/v1/exercise/cancel", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d, body=%s", w.Code, w.Body.String())
	}
	if ex.cancelCalls != 1 {
		t.Fatalf("Cancel calls = %d", ex.cancelCalls)
	}

	// Nothing running → 409
	ex.cancelErr = service.ErrNoActiveExercise
	w = doRequest(r, http.MethodPost, "/api/v1/exercise/cancel", nil, "valid")
	if w.Code != http.StatusConflict {
		t.Fatalf("idle cancel should 409, got %d", w.Code)
	}
}

func TestHealthEndpoint_NoAuthRequired(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}
