package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"safewarner"
	"safewarner/internal/service"
)

func TestGetAlerts_FiltersAndNormalization(t *testing.T) {
	auth := &mockAuth{parseID: 2}
	ledger := &mockLedger{
		resp: []safewarner.AlertRecord{
			{EventID: "a-1", Kind: safewarner.AlertProximity, Title: "t"},
		},
	}
	s := &service.Service{Authorization: auth, Ledger: ledger}
	r := newTestRouter(s)

	// Date-only 'to' becomes end-of-day inclusive; kind is lowercased.
	w := doRequest(r, http.MethodGet,
		"/api/v1/session/alerts?from=2026-08-01&to=2026-08-02&kind=PROXIMITY", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !ledger.lastFrom.Equal(wantFrom) {
		t.Fatalf("from = %v, want %v", ledger.lastFrom, wantFrom)
	}
	wantTo := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
	if !ledger.lastTo.Equal(wantTo) {
		t.Fatalf("to = %v, want end of day %v", ledger.lastTo, wantTo)
	}
	if ledger.lastKind != "proximity" {
		t.Fatalf("kind = %q, want proximity", ledger.lastKind)
	}

	var resp struct {
		Count  int                      `json:"count"`
		Alerts []safewarner.AlertRecord `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || len(resp.Alerts) != 1 || resp.Alerts[0].EventID != "a-1" {
		t.Fatalf("bad response: %+v", resp)
	}
}

func TestGetAlerts_BadTimeInputs(t *testing.T) {
	auth := &mockAuth{parseID: 2}
	s := &service.Service{Authorization: auth, Ledger: &mockLedger{}}
	r := newTestRouter(s)

	cases := []struct {
		name   string
		target string
	}{
		{"garbage from", "/api/v1/session/alerts?from=yesterday"},
		{"garbage to", "/api/v1/session/alerts?to=not-a-date"},
		{"inverted range", "/api/v1/session/alerts?from=2026-08-02&to=2026-08-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, tc.target, nil, "valid")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400", w.Code)
			}
		})
	}
}

func TestGetAlerts_RFC3339Accepted(t *testing.T) {
	auth := &mockAuth{parseID: 2}
	ledger := &mockLedger{}
	s := &service.Service{Authorization: auth, Ledger: ledger}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet,
		"/api/v1/session/alerts?from=2026-08-01T09:30:00Z", nil, "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	if !ledger.lastFrom.Equal(want) {
		t.Fatalf("from = %v, want %v", ledger.lastFrom, want)
	}
}
