package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"safewarner"
	"safewarner/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	status      service.SessionStatus
	statusErr   error
	snapshot    safewarner.SessionSnapshot
	snapshotErr error
	setModeErr  error
	startErr    error
	mode        string

	lastSetMode string
	startCalls  int
}

func (m *mockMonitoring) Status(ctx context.Context) (service.SessionStatus, error) {
	return m.status, m.statusErr
}
func (m *mockMonitoring) Snapshot(ctx context.Context) (safewarner.SessionSnapshot, error) {
	return m.snapshot, m.snapshotErr
}
func (m *mockMonitoring) SetMode(mode string) error {
	m.lastSetMode = mode
	if m.setModeErr == nil {
		m.mode = mode
	}
	return m.setModeErr
}
func (m *mockMonitoring) Mode() string { return m.mode }
func (m *mockMonitoring) StartExercise(ctx context.Context) error {
	m.startCalls++
	return m.startErr
}

type mockExercise struct {
	cancelErr   error
	status      *safewarner.ExerciseStatus
	cancelCalls int
}

func (m *mockExercise) Cancel(ctx context.Context) error {
	m.cancelCalls++
	return m.cancelErr
}
func (m *mockExercise) Status() *safewarner.ExerciseStatus { return m.status }

type mockLedger struct {
	resp     []safewarner.AlertRecord
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastKind string
}

func (m *mockLedger) ListAlerts(ctx context.Context, f service.LogFilter) ([]safewarner.AlertRecord, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastKind = f.Kind
	return m.resp, m.err
}

type mockExporter struct {
	path       string
	err        error
	lastFormat string
}

func (m *mockExporter) Export(ctx context.Context, format string) (string, error) {
	m.lastFormat = format
	return m.path, m.err
}

type mockPrefs struct {
	prefs  safewarner.Preferences
	setErr error
}

func (m *mockPrefs) Get() safewarner.Preferences { return m.prefs }
func (m *mockPrefs) ApplyOnStartup()             {}
func (m *mockPrefs) Set(p safewarner.Preferences) error {
	if m.setErr == nil {
		m.prefs = p
	}
	return m.setErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
