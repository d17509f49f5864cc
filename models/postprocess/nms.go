package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-handdetect/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 // Overlap at or above which the lower-ranked box is suppressed.
}

// SortByScore orders detections by descending score in place. Equal scores keep
// ascending anchor index order, so the result does not depend on the input order.
func SortByScore(detections []Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Score != detections[j].Score {
			return detections[i].Score > detections[j].Score
		}
		return detections[i].Index < detections[j].Index
	})
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// The detections are ranked with SortByScore on a copy. Walking the ranking, each
// detection not yet suppressed is kept and suppresses every later detection whose
// IoU with it is greater than or equal to the threshold. Boxes must all be in the
// same coordinate space.
//
// Arguments:
//   - detections: Detections in any order. The slice is not modified.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections in descending score order. If no detections are
//     provided, returns an empty slice.
func ApplyGreedyNMS(detections []Detection, config *NMSConfig) []Detection {
	n := len(detections)
	if n == 0 {
		return []Detection{}
	}

	ranked := make([]Detection, n)
	copy(ranked, detections)
	SortByScore(ranked)

	filtered := make([]Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := ranked[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}

			// Suppress if IoU reaches the threshold.
			if images.CalculateIoU(anchor.Box, ranked[j].Box) >= config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}

// TopK returns at most the first k detections. A non-positive k yields an empty slice.
func TopK(detections []Detection, k int) []Detection {
	if k <= 0 {
		return []Detection{}
	}
	if len(detections) <= k {
		return detections
	}
	return detections[:k]
}
