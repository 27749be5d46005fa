package core

// ArtifactStatus classifies a persisted generation outcome. Valid artifacts
// passed every check; invalid ones exhausted the repair budget; needs-review
// ones failed only on heuristic findings and await a human decision.
type ArtifactStatus string

const (
	ArtifactValid       ArtifactStatus = "valid"
	ArtifactInvalid     ArtifactStatus = "invalid"
	ArtifactNeedsReview ArtifactStatus = "needs_review"
)

// Marker returns the filename marker the status carries, empty for valid.
func (s ArtifactStatus) Marker() string {
	switch s {
	case ArtifactInvalid:
		return "INVALID_"
	case ArtifactNeedsReview:
		return "VALIDATE_"
	}
	return ""
}

// IsUsable reports whether the artifact can be loaded by a downstream
// consumer without manual intervention.
func (s ArtifactStatus) IsUsable() bool {
	return s == ArtifactValid
}
