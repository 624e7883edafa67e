package vision

// Point is a single landmark in normalized [0,1] image coordinates.
type Point struct {
	X float64
	Y float64
}

// Face mesh landmark indices for the two 6-point eye contours, ordered
// p0..p5 as the EAR formula expects (p0/p3 horizontal corners).
var (
	LeftEyeContour  = []int{33, 160, 158, 133, 153, 144}
	RightEyeContour = []int{362, 385, 387, 263, 373, 380}
)

// Face mesh indices used for gaze estimation.
const (
	FaceNoseTip       = 1
	LeftEyeOuter      = 33
	LeftEyeInner      = 133
	RightEyeInner     = 362
	RightEyeOuter     = 263
	minFaceLandmarks  = 468
	minPoseLandmarks  = 13
)

// Pose landmark indices.
const (
	PoseNose          = 0
	PoseLeftEar       = 7
	PoseRightEar      = 8
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
)

// Frame is a raw captured image handed to the detector collaborator.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
}

// Landmarks is the optional output of one detector pass over a frame.
// Either slice may be nil when the corresponding model found nothing.
type Landmarks struct {
	Face []Point
	Pose []Point
}
