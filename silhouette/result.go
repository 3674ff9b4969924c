package silhouette

import "image"

// Outcome tells what a recoverable stage did with its input.
type Outcome int

const (
	// Applied means the stage produced a new image.
	Applied Outcome = iota
	// Skipped means there was nothing to do; Image is the input.
	Skipped
	// Recovered means the stage failed; Image is the input and Err the cause.
	Recovered
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Recovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Result is what Filter and Crop return. Image is never nil when the input
// was not nil, so callers that do not care about the outcome can use it directly.
type Result struct {
	Image   image.Image
	Outcome Outcome
	Err     error
}
