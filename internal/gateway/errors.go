package gateway

import (
	"errors"
	"fmt"
)

// ScoringUnavailableError signals that a batch could not be scored after
// the retry budget was exhausted. The batch's companies remain unscored;
// the orchestrator records the anomaly and the run continues.
type ScoringUnavailableError struct {
	Kind PromptKind
	Err  error
}

func (e *ScoringUnavailableError) Error() string {
	return fmt.Sprintf("scoring unavailable (%s): %v", e.Kind, e.Err)
}

func (e *ScoringUnavailableError) Unwrap() error {
	return e.Err
}

// IsScoringUnavailable reports whether err is a scoring-unavailable
// condition.
func IsScoringUnavailable(err error) bool {
	var sue *ScoringUnavailableError
	return errors.As(err, &sue)
}
