package images

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateFrame is returned when a frame cannot be letterboxed at all
	// (non-positive dimensions, or a content height that rounds to zero).
	ErrDegenerateFrame = errors.New("degenerate letterbox geometry")
	// ErrNarrowFrame is returned for frames taller than they are wide. The letterbox
	// always scales by width and pads vertically, so such frames would overflow the canvas.
	ErrNarrowFrame = errors.New("frame is taller than it is wide")
)

// Letterbox describes how a source frame was fitted into the square model canvas.
//
// The frame is always scaled so that its width fills the canvas, and the remaining
// rows are split evenly into top and bottom bars. PadX is therefore always zero and
// the horizontal axis needs no correction between canvas and frame space. This only
// holds for frames at least as wide as they are tall, which NewLetterbox enforces.
type Letterbox struct {
	// Scale is CanvasSize / source width.
	Scale float32 `json:"scale"`
	// PadX is the left padding in canvas pixels (always 0).
	PadX int `json:"pad_x"`
	// PadY is the top padding in canvas pixels.
	PadY int `json:"pad_y"`
	// ContentWidth is the width of the scaled frame inside the canvas.
	ContentWidth int `json:"content_width"`
	// ContentHeight is the height of the scaled frame inside the canvas.
	ContentHeight int `json:"content_height"`
	// CanvasSize is the side of the square model input.
	CanvasSize int `json:"canvas_size"`
}

// NewLetterbox computes the letterbox geometry for a width x height frame fitted
// into a canvas x canvas model input.
//
// Arguments:
//   - width: Source frame width in pixels.
//   - height: Source frame height in pixels.
//   - canvas: Side of the square model input in pixels.
//
// Returns:
//   - Letterbox: The per-frame geometry.
//   - error: ErrDegenerateFrame or ErrNarrowFrame when the geometry is undefined.
//
// @example
// lb, err := NewLetterbox(640, 480, 256) // Scale=0.4, ContentHeight=192, PadY=32
func NewLetterbox(width, height, canvas int) (Letterbox, error) {
	if width <= 0 || height <= 0 || canvas <= 0 {
		return Letterbox{}, errors.Wrapf(ErrDegenerateFrame, "frame %dx%d, canvas %d", width, height, canvas)
	}
	if height > width {
		return Letterbox{}, errors.Wrapf(ErrNarrowFrame, "frame %dx%d", width, height)
	}

	scale := float32(canvas) / float32(width)
	contentHeight := int(math32.Round(float32(height) * scale))
	if contentHeight == 0 {
		return Letterbox{}, errors.Wrapf(ErrDegenerateFrame, "frame %dx%d scales to zero height", width, height)
	}

	return Letterbox{
		Scale:         scale,
		PadX:          0,
		PadY:          (canvas - contentHeight) / 2,
		ContentWidth:  canvas,
		ContentHeight: contentHeight,
		CanvasSize:    canvas,
	}, nil
}

func (l Letterbox) padTop() float32 {
	return float32(l.PadY) / float32(l.CanvasSize)
}

func (l Letterbox) contentFraction() float32 {
	return float32(l.ContentHeight) / float32(l.CanvasSize)
}

// ToFrameY maps a canvas-normalized y coordinate to frame-normalized space.
func (l Letterbox) ToFrameY(y float32) float32 {
	return (y - l.padTop()) / l.contentFraction()
}

// ToCanvasY maps a frame-normalized y coordinate to canvas-normalized space.
func (l Letterbox) ToCanvasY(y float32) float32 {
	return y*l.contentFraction() + l.padTop()
}

// ToFrameBox maps a canvas-space box to frame space. Only the vertical edges move.
func (l Letterbox) ToFrameBox(b Box) Box {
	return Box{XMin: b.XMin, YMin: l.ToFrameY(b.YMin), XMax: b.XMax, YMax: l.ToFrameY(b.YMax)}
}

// ToCanvasBox maps a frame-space box to canvas space.
func (l Letterbox) ToCanvasBox(b Box) Box {
	return Box{XMin: b.XMin, YMin: l.ToCanvasY(b.YMin), XMax: b.XMax, YMax: l.ToCanvasY(b.YMax)}
}

// ToFramePoint maps a canvas-space point to frame space.
func (l Letterbox) ToFramePoint(p Point) Point {
	return Point{X: p.X, Y: l.ToFrameY(p.Y)}
}

// ToCanvasPoint maps a frame-space point to canvas space.
func (l Letterbox) ToCanvasPoint(p Point) Point {
	return Point{X: p.X, Y: l.ToCanvasY(p.Y)}
}
