package inference

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-handdetect/images"
)

// PrepareInput letterboxes an image into the model input tensor.
//
// The image is resized to ContentWidth x ContentHeight with bilinear interpolation,
// pasted onto a black CanvasSize x CanvasSize canvas at (PadX, PadY), and converted
// to channel-major RGB with values in [0, 1].
//
// Arguments:
//   - img: The source frame.
//   - lb: The letterbox geometry computed for the frame's dimensions.
//
// Returns:
//   - *tensor.Dense: A float32 tensor shaped [1, 3, S, S].
//   - error: An error if the geometry does not fit the canvas.
func PrepareInput(img image.Image, lb images.Letterbox) (*tensor.Dense, error) {
	size := lb.CanvasSize
	if size <= 0 || lb.ContentWidth <= 0 || lb.ContentHeight <= 0 ||
		lb.PadX+lb.ContentWidth > size || lb.PadY+lb.ContentHeight > size {
		return nil, errors.Wrapf(images.ErrDegenerateFrame, "content %dx%d at (%d, %d) does not fit canvas %d",
			lb.ContentWidth, lb.ContentHeight, lb.PadX, lb.PadY, size)
	}

	content := resize.Resize(uint(lb.ContentWidth), uint(lb.ContentHeight), img, resize.Bilinear)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	target := image.Rect(lb.PadX, lb.PadY, lb.PadX+lb.ContentWidth, lb.PadY+lb.ContentHeight)
	draw.Draw(canvas, target, content, content.Bounds().Min, draw.Src)

	channelSize := size * size
	data := make([]float32, 3*channelSize)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	for i := 0; i < channelSize; i++ {
		px := canvas.Pix[i*4 : i*4+3]
		red[i] = float32(px[0]) / 255.0
		green[i] = float32(px[1]) / 255.0
		blue[i] = float32(px[2]) / 255.0
	}

	return tensor.New(tensor.WithShape(1, 3, size, size), tensor.WithBacking(data)), nil
}
