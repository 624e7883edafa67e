package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"safewarner"
	"safewarner/internal/notify"
	"safewarner/internal/sysinfo"
	"safewarner/internal/vision"
)

type stubDetector struct {
	avail bool
	lm    vision.Landmarks
	err   error
}

func (d stubDetector) Available() bool { return d.avail }
func (d stubDetector) Detect(vision.Frame) (vision.Landmarks, error) {
	return d.lm, d.err
}

func newTestRunner(clk *testClock) (*Runner, *MonitorService) {
	cfg := DefaultConfig()
	m, _, _ := newTestMonitor(clk, sysinfo.Nop())
	r := NewRunner(cfg, vision.NoCapture(), stubDetector{avail: true}, m, nil)
	r.now = clk.Now
	return r, m
}

// blinkingFace builds a face mesh with a tiny eye opening so the EAR lands
// well below the blink threshold but above zero.
func blinkingFace() []vision.Point {
	face := make([]vision.Point, 468)
	for i := range face {
		face[i] = vision.Point{X: 0.5, Y: 0.5}
	}
	place := func(contour []int, startX float64) {
		face[contour[0]] = vision.Point{X: startX, Y: 0.50}
		face[contour[3]] = vision.Point{X: startX + 0.10, Y: 0.50}
		face[contour[1]] = vision.Point{X: startX + 0.03, Y: 0.4995}
		face[contour[5]] = vision.Point{X: startX + 0.03, Y: 0.5005}
		face[contour[2]] = vision.Point{X: startX + 0.07, Y: 0.4995}
		face[contour[4]] = vision.Point{X: startX + 0.07, Y: 0.5005}
	}
	place(vision.LeftEyeContour, 0.35)
	place(vision.RightEyeContour, 0.55)
	// Keep eye centers symmetric around the nose so the gaze stays centered.
	face[vision.FaceNoseTip] = vision.Point{X: 0.5, Y: 0.55}
	return face
}

func TestRunner_BuildSignalsWithoutFaceIsNeutral(t *testing.T) {
	clk := newTestClock()
	r, _ := newTestRunner(clk)

	sig := r.buildSignals(vision.Landmarks{}, vision.Frame{Width: 100, Height: 100})
	if sig.Gaze != safewarner.GazeCenter {
		t.Fatalf("gaze = %q, want center", sig.Gaze)
	}
	if sig.ProximityAlert || sig.LowBlinkRate || sig.Posture != nil {
		t.Fatalf("no-face frame should carry neutral signals: %+v", sig)
	}
}

func TestRunner_BuildSignalsRecordsBlink(t *testing.T) {
	clk := newTestClock()
	r, _ := newTestRunner(clk)

	lm := vision.Landmarks{Face: blinkingFace()}
	sig := r.buildSignals(lm, vision.Frame{Width: 100, Height: 100})

	if sig.EyeAspectRatio <= 0 || sig.EyeAspectRatio >= r.cfg.Thresholds.EAR {
		t.Fatalf("EAR = %.4f, expected (0, %.2f)", sig.EyeAspectRatio, r.cfg.Thresholds.EAR)
	}
	if len(r.blinkTimes) != 1 {
		t.Fatalf("blink history = %d entries, want 1", len(r.blinkTimes))
	}
}

func TestRunner_LowBlinkRateProRata(t *testing.T) {
	clk := newTestClock()
	r, _ := newTestRunner(clk)

	// Expected minimum over the 10s window is 8/min * (10/60) ≈ 1.33 blinks.
	if !r.lowBlinkRate(clk.Now()) {
		t.Fatal("zero blinks should be a low rate")
	}

	r.recordBlink(clk.Now().Add(-2 * time.Second))
	r.recordBlink(clk.Now().Add(-1 * time.Second))
	if r.lowBlinkRate(clk.Now()) {
		t.Fatal("two recent blinks should meet the pro-rata minimum")
	}

	// Blinks older than the window stop counting.
	clk.Advance(30 * time.Second)
	if !r.lowBlinkRate(clk.Now()) {
		t.Fatal("stale blinks should not count toward the window")
	}
}

func TestRunner_BlinkHistoryCapped(t *testing.T) {
	clk := newTestClock()
	r, _ := newTestRunner(clk)

	for i := 0; i < blinkHistoryCap+50; i++ {
		r.recordBlink(clk.Now())
		clk.Advance(10 * time.Millisecond)
	}
	if len(r.blinkTimes) != blinkHistoryCap {
		t.Fatalf("blink history = %d, want cap %d", len(r.blinkTimes), blinkHistoryCap)
	}
}

func TestRunner_CameraAvailabilityReachesMonitor(t *testing.T) {
	clk := newTestClock()
	cfg := DefaultConfig()
	m, _, _ := newTestMonitor(clk, sysinfo.Nop())

	NewRunner(cfg, vision.NoCapture(), stubDetector{avail: false}, m, nil)
	st, _ := m.Status(context.Background())
	if st.CameraAvailable {
		t.Fatal("unavailable detector should disable the camera flag")
	}
}

// trackedCapture records opens and flags any two readers hitting Read at
// the same time.
type trackedCapture struct {
	mu       sync.Mutex
	open     bool
	starts   int
	inFlight int
	overlap  bool
}

func (c *trackedCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		c.open = true
		c.starts++
	}
	return nil
}

func (c *trackedCapture) Read() (vision.Frame, error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return vision.Frame{}, vision.ErrCaptureStopped
	}
	c.inFlight++
	if c.inFlight > 1 {
		c.overlap = true
	}
	c.mu.Unlock()

	// Hold the read long enough for a second reader to collide.
	time.Sleep(2 * time.Millisecond)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	return vision.Frame{Width: 100, Height: 100}, nil
}

func (c *trackedCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *trackedCapture) snapshot() (starts int, overlap, open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.overlap, c.open
}

// newRealTimeRunner builds the full pipeline on the wall clock for loop
// tests that actually run Run.
func newRealTimeRunner(cfg Config, cam vision.Capture) (*Runner, *MonitorService, *ExerciseService) {
	ledger := NewLedgerService(nil, nil, time.Now())
	gate := NewNotificationGate(cfg, notify.Nop(), ledger, nil)
	ex := NewExerciseService(cfg, gate, notify.Silent(), ledger, nil)
	m := NewMonitorService(cfg, ex, gate, sysinfo.Nop(), ledger, nil)
	r := NewRunner(cfg, cam, stubDetector{avail: true}, m, nil)
	return r, m, ex
}

func TestRunner_WakeCheckRunsOnTheTickGoroutine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameDelay = time.Millisecond
	cfg.CaptureWarmup = 0
	cfg.WakeWarmup = 2 * time.Millisecond
	cfg.AutoModeInterval = 10 * time.Millisecond
	cfg.MinSessionBeforeBackground = 0

	cam := &trackedCapture{}
	r, m, ex := newRealTimeRunner(cfg, cam)
	if err := m.SetMode(safewarner.ModeAuto); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// A clean auto session backgrounds on the first tick; the wake check
	// must then reopen capture and start an exercise without a second
	// goroutine ever reading frames.
	deadline := time.Now().Add(5 * time.Second)
	for !ex.Active() {
		if time.Now().After(deadline) {
			cancel()
			<-done
			t.Fatal("wake check never started an exercise")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Let foreground ticks interleave with the resumed session.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	starts, overlap, open := cam.snapshot()
	if overlap {
		t.Fatal("two goroutines read the capture at once")
	}
	if starts < 2 {
		t.Fatalf("capture opens = %d, want the initial open plus the wake reopen", starts)
	}
	if open {
		t.Fatal("capture left open after shutdown")
	}
	if m.BackgroundActive() {
		t.Fatal("session should be foreground after the wake")
	}
}

func TestRunner_ModeChangeWithoutLoopLeavesCameraReleased(t *testing.T) {
	cam := &trackedCapture{}
	_, m, _ := newRealTimeRunner(DefaultConfig(), cam)

	if err := m.SetMode(safewarner.ModeAuto); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMode(safewarner.ModeManual); err != nil {
		t.Fatal(err)
	}

	if starts, _, open := cam.snapshot(); starts != 0 || open {
		t.Fatalf("mode change opened the camera with no loop consuming it (starts=%d open=%v)", starts, open)
	}
}
