package postprocess

import (
	"math/rand"
	"testing"

	"github.com/nvr-ai/go-handdetect/images"
)

// BenchmarkApplyGreedyNMS runs suppression over a candidate set shaped like a frame
// with two hands, each reported by many neighbouring anchors.
func BenchmarkApplyGreedyNMS(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	centers := []images.Point{{X: 0.3, Y: 0.5}, {X: 0.7, Y: 0.45}}

	detections := make([]Detection, 128)
	for i := range detections {
		c := centers[i%len(centers)]
		x := c.X + (rng.Float32()-0.5)*0.05
		y := c.Y + (rng.Float32()-0.5)*0.05
		detections[i] = Detection{
			Index: i,
			Score: 1 + rng.Float32()*5,
			Box:   images.Box{XMin: x - 0.1, YMin: y - 0.1, XMax: x + 0.1, YMax: y + 0.1},
		}
	}
	config := &NMSConfig{IoUThreshold: 0.3}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = ApplyGreedyNMS(detections, config)
	}
}

func BenchmarkFilterByScore(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	scores := make([]float32, 3072)
	for i := range scores {
		scores[i] = rng.Float32()*20 - 15
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = FilterByScore(scores, 1.0)
	}
}
