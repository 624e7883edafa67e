package vision

import "errors"

// ErrDetectorUnavailable is returned by the stand-in detector. Callers are
// expected to query Available() once at startup and disable camera features
// rather than hitting this per frame.
var ErrDetectorUnavailable = errors.New("landmark detector unavailable")

// Detector is the face/pose landmark collaborator. Implementations wrap an
// external vision model; this package never runs detection itself.
type Detector interface {
	// Available reports whether the backing model is usable at all.
	Available() bool
	// Detect extracts optional face and pose landmarks from a frame.
	// Either result slice may be nil when nothing was found.
	Detect(frame Frame) (Landmarks, error)
}

// Unavailable returns the capability-checked stand-in used when no vision
// backend is wired in. Camera features degrade; nothing crashes.
func Unavailable() Detector { return unavailableDetector{} }

type unavailableDetector struct{}

func (unavailableDetector) Available() bool { return false }

func (unavailableDetector) Detect(Frame) (Landmarks, error) {
	return Landmarks{}, ErrDetectorUnavailable
}
