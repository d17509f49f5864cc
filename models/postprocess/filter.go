package postprocess

// FilterByScore returns the anchors whose score is strictly greater than the
// threshold, in ascending anchor order.
//
// Scores are compared raw; no sigmoid or other normalization is applied. NaN scores
// never pass.
//
// Arguments:
//   - scores: One confidence per anchor.
//   - threshold: The exclusive lower bound.
//
// Returns:
//   - []Candidate: The surviving anchors. Empty (not nil) when none survive.
func FilterByScore(scores []float32, threshold float32) []Candidate {
	candidates := make([]Candidate, 0)
	for i, s := range scores {
		if s > threshold {
			candidates = append(candidates, Candidate{Index: i, Score: s})
		}
	}
	return candidates
}
