// Package palm - Anchor grid and regression decoding for the single-shot palm detector.
package palm

import (
	"github.com/pkg/errors"
)

// ErrInvalidLayout is returned when an anchor layout cannot produce a grid.
var ErrInvalidLayout = errors.New("invalid anchor layout")

// Anchor is a reference box normalized to the square model input.
type Anchor struct {
	XCenter float32
	YCenter float32
	W       float32
	H       float32
}

// Layer is one scale level of the detector's feature pyramid.
type Layer struct {
	// Stride is the input pixels covered by one feature map cell.
	Stride int `json:"stride" yaml:"stride"`
	// FeatureMapSize is the side of the square feature map.
	FeatureMapSize int `json:"feature_map_size" yaml:"feature_map_size"`
	// AnchorsPerCell is the number of anchors emitted for each cell.
	AnchorsPerCell int `json:"anchors_per_cell" yaml:"anchors_per_cell"`
}

// Layout is the ordered multi-scale anchor declaration of a detector.
type Layout struct {
	// InputSize is the side of the square model input in pixels.
	InputSize int `json:"input_size" yaml:"input_size"`
	// Layers are enumerated in declaration order.
	Layers []Layer `json:"layers" yaml:"layers"`
}

// DefaultLayers returns the palm detector's pyramid: strides 8, 16, 32, 32 over
// 32, 16, 8 and 8 cell maps with 2, 2, 2 and 6 anchors per cell.
func DefaultLayers() []Layer {
	return []Layer{
		{Stride: 8, FeatureMapSize: 32, AnchorsPerCell: 2},
		{Stride: 16, FeatureMapSize: 16, AnchorsPerCell: 2},
		{Stride: 32, FeatureMapSize: 8, AnchorsPerCell: 2},
		{Stride: 32, FeatureMapSize: 8, AnchorsPerCell: 6},
	}
}

// DefaultLayout returns the palm detector layout for a 256x256 input.
func DefaultLayout() Layout {
	return Layout{InputSize: InputSize, Layers: DefaultLayers()}
}

// Count returns the number of anchors the layout generates:
// the sum of FeatureMapSize^2 * AnchorsPerCell over all layers.
func (l Layout) Count() int {
	n := 0
	for _, layer := range l.Layers {
		n += layer.FeatureMapSize * layer.FeatureMapSize * layer.AnchorsPerCell
	}
	return n
}

// Validate checks that every layer is usable.
func (l Layout) Validate() error {
	if l.InputSize <= 0 {
		return errors.Wrapf(ErrInvalidLayout, "input size %d", l.InputSize)
	}
	if len(l.Layers) == 0 {
		return errors.Wrap(ErrInvalidLayout, "no layers declared")
	}
	for i, layer := range l.Layers {
		if layer.Stride <= 0 || layer.FeatureMapSize <= 0 || layer.AnchorsPerCell <= 0 {
			return errors.Wrapf(ErrInvalidLayout, "layer %d: stride=%d map=%d anchors=%d",
				i, layer.Stride, layer.FeatureMapSize, layer.AnchorsPerCell)
		}
	}
	return nil
}

// AnchorGrid is the immutable, ordered anchor sequence of a detector.
//
// The index of an anchor is the row index into the regression and score tensors,
// so the grid is never reordered after generation.
type AnchorGrid struct {
	layout  Layout
	anchors []Anchor
}

// NewAnchorGrid generates the anchors for a layout.
//
// Anchors are emitted level by level in declaration order, then row by row (top to
// bottom), then column by column (left to right), with AnchorsPerCell identical
// anchors per cell. Centers are ((col+0.5)*stride/input, (row+0.5)*stride/input);
// width and height are fixed at 1.
//
// Arguments:
//   - layout: The multi-scale declaration.
//
// Returns:
//   - *AnchorGrid: The generated grid, whose Len equals layout.Count().
//   - error: ErrInvalidLayout if the layout is unusable.
//
// @example
// grid, err := NewAnchorGrid(DefaultLayout())
// fmt.Println(grid.Len()) // 3072
func NewAnchorGrid(layout Layout) (*AnchorGrid, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	inputSize := float32(layout.InputSize)
	anchors := make([]Anchor, 0, layout.Count())
	for _, layer := range layout.Layers {
		stride := float32(layer.Stride)
		for row := 0; row < layer.FeatureMapSize; row++ {
			for col := 0; col < layer.FeatureMapSize; col++ {
				a := Anchor{
					XCenter: (float32(col) + 0.5) * stride / inputSize,
					YCenter: (float32(row) + 0.5) * stride / inputSize,
					W:       1.0,
					H:       1.0,
				}
				for k := 0; k < layer.AnchorsPerCell; k++ {
					anchors = append(anchors, a)
				}
			}
		}
	}

	layers := make([]Layer, len(layout.Layers))
	copy(layers, layout.Layers)

	return &AnchorGrid{
		layout:  Layout{InputSize: layout.InputSize, Layers: layers},
		anchors: anchors,
	}, nil
}

// Len returns the number of anchors.
func (g *AnchorGrid) Len() int {
	return len(g.anchors)
}

// At returns the anchor at index i.
func (g *AnchorGrid) At(i int) Anchor {
	return g.anchors[i]
}

// InputSize returns the side of the square model input the grid was built for.
func (g *AnchorGrid) InputSize() int {
	return g.layout.InputSize
}

// Layout returns a copy of the layout the grid was generated from.
func (g *AnchorGrid) Layout() Layout {
	layers := make([]Layer, len(g.layout.Layers))
	copy(layers, g.layout.Layers)
	return Layout{InputSize: g.layout.InputSize, Layers: layers}
}
