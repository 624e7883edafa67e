package service

import (
	"context"
	"sync"
	"time"

	"safewarner"
	"safewarner/internal/logger"
	"safewarner/internal/vision"
)

const blinkHistoryCap = 100

// Runner drives the capture → extract → policy pipeline: one tick per
// captured frame, strictly sequential, paced by cfg.FrameDelay. It also
// owns the background-mode wake timer and the blink history window.
type Runner struct {
	cfg      Config
	capture  vision.Capture
	detector vision.Detector
	monitor  *MonitorService
	log      *logger.Logger
	now      func() time.Time

	// wakeCh hands the wake timer's expiry to the Run goroutine, so the
	// wake check shares the single tick goroutine instead of racing it.
	wakeCh chan struct{}

	mu         sync.Mutex
	capturing  bool
	running    bool
	wakeTimer  *time.Timer
	blinkTimes []time.Time
}

func NewRunner(cfg Config, capture vision.Capture, detector vision.Detector, monitor *MonitorService, log *logger.Logger) *Runner {
	r := &Runner{
		cfg:      cfg,
		capture:  capture,
		detector: detector,
		monitor:  monitor,
		log:      log,
		now:      time.Now,
		wakeCh:   make(chan struct{}, 1),
	}
	monitor.SetCameraAvailable(detector.Available())
	monitor.SetOnModeChange(r.handleModeChange)
	return r
}

// CameraAvailable reports the startup capability probe.
func (r *Runner) CameraAvailable() bool { return r.detector.Available() }

// Run executes the tick loop until ctx is cancelled. Without a usable
// detector the camera features stay disabled and Run returns immediately;
// the rest of the session (API, ledger, manual mode) keeps working.
func (r *Runner) Run(ctx context.Context) {
	if !r.detector.Available() {
		if r.log != nil {
			r.log.Warnw("landmark detector unavailable; camera features disabled")
		}
		return
	}
	if err := r.startCapture(); err != nil {
		if r.log != nil {
			r.log.Warnw("camera unavailable; camera features disabled", "err", err)
		}
		return
	}
	defer r.StopCapture()
	defer r.cancelWake()
	r.setRunning(true)
	defer r.setRunning(false)

	// Let the camera settle before trusting its first frames.
	warm := time.NewTimer(r.cfg.CaptureWarmup)
	select {
	case <-ctx.Done():
		warm.Stop()
		return
	case <-warm.C:
	}

	ticker := time.NewTicker(r.cfg.FrameDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wakeCh:
			r.wake(ctx)
		case <-ticker.C:
			if r.monitor.BackgroundActive() {
				// Capture is stopped; the wake signal brings us back.
				continue
			}
			r.tick(ctx)
		}
	}
}

// tick processes exactly one frame. Any per-frame failure degrades that
// frame's signals and never aborts the loop.
func (r *Runner) tick(ctx context.Context) {
	frame, err := r.readFrame()
	if err != nil {
		return
	}

	lm, err := r.detector.Detect(frame)
	if err != nil {
		if r.log != nil {
			r.log.Debugw("detection failed", "err", err)
		}
		lm = vision.Landmarks{}
	}

	sig := r.buildSignals(lm, frame)
	r.monitor.ProcessSignals(ctx, sig)

	if r.monitor.ShouldEnterBackground(sig) {
		r.enterBackground(ctx)
	}
}

// buildSignals turns one frame's landmarks into the immutable per-tick
// measurement record. Missing landmarks yield neutral defaults.
func (r *Runner) buildSignals(lm vision.Landmarks, frame vision.Frame) safewarner.FrameSignals {
	now := r.now()
	th := r.cfg.Thresholds

	sig := safewarner.FrameSignals{
		Gaze:            safewarner.GazeCenter,
		ScreenTimeAlert: r.monitor.ScreenTimeExceeded(),
		Timestamp:       now,
	}

	if lm.Face != nil {
		sig.Gaze = safewarner.GazeDirection(th.DetectGaze(lm.Face))
		sig.ProximityAlert = th.CheckProximity(lm.Face)
		sig.EyeAspectRatio = vision.EyeAspectRatio(lm.Face, frame.Width, frame.Height)
		if sig.EyeAspectRatio > 0 && sig.EyeAspectRatio < th.EAR {
			r.recordBlink(now)
		}
		sig.LowBlinkRate = r.lowBlinkRate(now)
	}

	if p := th.AnalyzePosture(lm.Pose, frame.Width, frame.Height); p != nil {
		sig.Posture = &safewarner.PostureVerdict{
			TiltAngle:   p.TiltAngle,
			SlouchRatio: p.SlouchRatio,
			Tilted:      p.Tilted,
			Slouching:   p.Slouching,
		}
	}
	return sig
}

func (r *Runner) recordBlink(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blinkTimes = append(r.blinkTimes, at)
	if len(r.blinkTimes) > blinkHistoryCap {
		r.blinkTimes = r.blinkTimes[len(r.blinkTimes)-blinkHistoryCap:]
	}
}

// lowBlinkRate compares recent blinks against the pro-rata expected minimum
// over the blink window.
func (r *Runner) lowBlinkRate(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	windowStart := now.Add(-r.cfg.BlinkWindow)
	recent := 0
	for _, t := range r.blinkTimes {
		if !t.Before(windowStart) {
			recent++
		}
	}
	expected := r.cfg.BlinkWindow.Minutes() * r.cfg.MinBlinksPerMinute
	return float64(recent) < expected
}

func (r *Runner) readFrame() (vision.Frame, error) {
	return r.capture.Read()
}

func (r *Runner) startCapture() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capturing {
		return nil
	}
	if err := r.capture.Start(); err != nil {
		return err
	}
	r.capturing = true
	return nil
}

// StopCapture releases the camera. Idempotent.
func (r *Runner) StopCapture() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing {
		return
	}
	if err := r.capture.Stop(); err != nil && r.log != nil {
		r.log.Warnw("capture stop failed", "err", err)
	}
	r.capturing = false
}

// enterBackground stops capture and schedules the wake timer a full auto
// interval out. The timer only signals; the Run goroutine does the waking.
func (r *Runner) enterBackground(ctx context.Context) {
	r.monitor.EnterBackground()
	r.StopCapture()

	r.mu.Lock()
	if r.wakeTimer != nil {
		r.wakeTimer.Stop()
	}
	r.wakeTimer = time.AfterFunc(r.cfg.AutoModeInterval, r.signalWake)
	r.mu.Unlock()
}

func (r *Runner) signalWake() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

// wake restarts capture, makes the next poll immediately eligible, and
// after a short warm-up re-checks proximity before starting an exercise.
// It runs on the Run goroutine, so no tick can overlap the wake check.
func (r *Runner) wake(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if r.monitor.Mode() != safewarner.ModeAuto {
		return
	}
	if err := r.startCapture(); err != nil {
		if r.log != nil {
			r.log.Warnw("wake capture restart failed", "err", err)
		}
	}
	r.monitor.HandleWake()

	// Let the camera settle before trusting its frames again.
	warm := time.NewTimer(r.cfg.WakeWarmup)
	defer warm.Stop()
	select {
	case <-ctx.Done():
		return
	case <-warm.C:
	}

	frame, err := r.readFrame()
	if err != nil {
		return
	}
	lm, err := r.detector.Detect(frame)
	if err != nil {
		return
	}
	if r.cfg.Thresholds.CheckProximity(lm.Face) {
		if r.log != nil {
			r.log.Infow("wake check: distance not ideal, deferring exercise")
		}
		return
	}
	if err := r.monitor.StartExercise(ctx); err != nil && r.log != nil {
		r.log.Debugw("wake exercise not started", "err", err)
	}
}

// handleModeChange cancels any pending wake when auto mode is turned off
// and restarts capture if the session was backgrounded. Without a running
// loop there is nothing to consume frames, so the camera stays released.
func (r *Runner) handleModeChange(mode string) {
	if mode == safewarner.ModeAuto {
		return
	}
	r.cancelWake()
	if r.loopRunning() && r.detector.Available() {
		if err := r.startCapture(); err != nil && r.log != nil {
			r.log.Warnw("capture restart after mode change failed", "err", err)
		}
	}
}

func (r *Runner) setRunning(on bool) {
	r.mu.Lock()
	r.running = on
	r.mu.Unlock()
}

func (r *Runner) loopRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) cancelWake() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wakeTimer != nil {
		r.wakeTimer.Stop()
		r.wakeTimer = nil
	}
}
