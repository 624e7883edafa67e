package vision

import "math"

// Thresholds holds the tuning knobs for the metric extractors.
// Zero value is not useful; start from DefaultThresholds.
type Thresholds struct {
	EAR         float64 // below this, the eye counts as closed
	Proximity   float64 // normalized face bbox height above this is "too close"
	PostureTilt float64 // degrees of head tilt tolerated
	Slouch      float64 // normalized ear-to-shoulder distance above this is slouching
	Gaze        float64 // normalized horizontal eye-center offset for left/right
}

// DefaultThresholds mirrors the tuned values of the desktop build.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EAR:         0.20,
		Proximity:   0.35,
		PostureTilt: 15,
		Slouch:      0.15,
		Gaze:        0.2,
	}
}

// TiltAngle and SlouchRatio of a posture verdict.
type Posture struct {
	TiltAngle   float64
	SlouchRatio float64
	Tilted      bool
	Slouching   bool
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func scale(p Point, w, h float64) Point {
	return Point{X: p.X * w, Y: p.Y * h}
}

// contourEAR computes (|p1-p5| + |p2-p4|) / (2*|p0-p3|) for one eye contour.
// A degenerate horizontal distance yields 0.
func contourEAR(face []Point, contour []int, w, h float64) float64 {
	pts := make([]Point, len(contour))
	for i, idx := range contour {
		pts[i] = scale(face[idx], w, h)
	}
	horizontal := dist(pts[0], pts[3])
	if horizontal == 0 {
		return 0
	}
	return (dist(pts[1], pts[5]) + dist(pts[2], pts[4])) / (2 * horizontal)
}

// EyeAspectRatio averages the EAR of both eyes in pixel coordinates.
// Returns 0 when the face mesh is incomplete.
func EyeAspectRatio(face []Point, width, height int) float64 {
	if len(face) < minFaceLandmarks {
		return 0
	}
	w, h := float64(width), float64(height)
	return (contourEAR(face, LeftEyeContour, w, h) + contourEAR(face, RightEyeContour, w, h)) / 2
}

// DetectGaze buckets the horizontal gaze direction by comparing each eye's
// center offset from the nose tip, normalized by eye width and averaged
// across both eyes. Missing or degenerate landmarks default to center.
func (t Thresholds) DetectGaze(face []Point) string {
	if len(face) < minFaceLandmarks {
		return "center"
	}
	leftInner, leftOuter := face[LeftEyeInner], face[LeftEyeOuter]
	rightInner, rightOuter := face[RightEyeInner], face[RightEyeOuter]
	nose := face[FaceNoseTip]

	leftWidth := math.Abs(leftOuter.X - leftInner.X)
	rightWidth := math.Abs(rightOuter.X - rightInner.X)
	if leftWidth == 0 || rightWidth == 0 {
		return "center"
	}

	leftRel := ((leftInner.X+leftOuter.X)/2 - nose.X) / leftWidth
	rightRel := ((rightInner.X+rightOuter.X)/2 - nose.X) / rightWidth
	gaze := (leftRel + rightRel) / 2

	switch {
	case gaze > t.Gaze:
		return "right"
	case gaze < -t.Gaze:
		return "left"
	default:
		return "center"
	}
}

// CheckProximity reports whether the face fills too much of the frame
// vertically: bounding-box height over all face landmarks, normalized.
func (t Thresholds) CheckProximity(face []Point) bool {
	if len(face) == 0 {
		return false
	}
	minY, maxY := face[0].Y, face[0].Y
	for _, p := range face[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return maxY-minY > t.Proximity
}

// AnalyzePosture computes head tilt (nose offset from the ear midpoint, in
// pixel coordinates) and the slouch ratio (mean normalized ear-to-shoulder
// vertical distance). Returns nil when pose landmarks are missing; that is
// a neutral "no verdict", not an error.
func (t Thresholds) AnalyzePosture(pose []Point, width, height int) *Posture {
	if len(pose) < minPoseLandmarks {
		return nil
	}
	w, h := float64(width), float64(height)

	nose := scale(pose[PoseNose], w, h)
	leftEar := scale(pose[PoseLeftEar], w, h)
	rightEar := scale(pose[PoseRightEar], w, h)

	earCenterX := (leftEar.X + rightEar.X) / 2
	earCenterY := (leftEar.Y + rightEar.Y) / 2
	tilt := math.Atan2(nose.X-earCenterX, earCenterY-nose.Y) * 180 / math.Pi

	leftDist := math.Abs(pose[PoseLeftEar].Y - pose[PoseLeftShoulder].Y)
	rightDist := math.Abs(pose[PoseRightEar].Y - pose[PoseRightShoulder].Y)
	slouch := (leftDist + rightDist) / 2

	return &Posture{
		TiltAngle:   tilt,
		SlouchRatio: slouch,
		Tilted:      math.Abs(tilt) > t.PostureTilt,
		Slouching:   slouch > t.Slouch,
	}
}
