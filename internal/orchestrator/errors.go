package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrTurnLimitExceeded matches any *TurnLimitError.
	ErrTurnLimitExceeded = errors.New("turn limit exceeded")

	// ErrStreamConsumed is yielded when a streaming query is ranged over twice.
	ErrStreamConsumed = errors.New("stream already consumed")

	// errYieldStopped signals that the consumer stopped ranging.
	errYieldStopped = errors.New("consumer stopped iteration")
)

// TurnLimitError is returned when the model keeps requesting tools after the
// configured number of provider turns.
type TurnLimitError struct {
	Limit int
}

func (e *TurnLimitError) Error() string {
	return fmt.Sprintf("max turns (%d) reached", e.Limit)
}

func (e *TurnLimitError) Is(target error) bool {
	return target == ErrTurnLimitExceeded
}
