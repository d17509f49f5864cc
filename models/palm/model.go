package palm

const (
	// InputSize is the side of the palm detector's square input.
	InputSize = 256
	// LegacyAnchorCount is the anchor total hardcoded by earlier revisions of the
	// detector. It does not match DefaultLayout, which generates 3072 anchors.
	LegacyAnchorCount = 2944
	// CoordChannels is the regression row width of the palm model: a box and
	// seven keypoints.
	CoordChannels = 18
	// InputName is the model's image input.
	InputName = "image"
	// ScoresOutput is the per-anchor confidence output, shape 1xNx1.
	ScoresOutput = "box_scores"
	// CoordsOutput is the per-anchor regression output, shape 1xNxC.
	CoordsOutput = "box_coords"
)

// Keypoint indices within a decoded detection.
const (
	Wrist = iota
	IndexMCP
	MiddleMCP
	RingMCP
	PinkyMCP
	ThumbCMC
	ThumbMCP
)
