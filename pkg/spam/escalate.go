package spam

// ShouldEscalate reports whether an analysis falls in the medium band that
// warrants AI review: suspicious, but not confident enough to act locally.
// Scores at or above the high-confidence threshold skip review because the
// local verdict already decides the outcome.
func ShouldEscalate(a Analysis) bool {
	return a.Score >= ThresholdSuspicious && a.Score < ThresholdHighConfidence
}
