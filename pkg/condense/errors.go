package condense

import "errors"

var (
	// ErrBudgetExceeded means the prompt templates and backstory leave no
	// room for section text within the model token limit.
	ErrBudgetExceeded = errors.New("prompt overhead exceeds the model token limit")
	// ErrOracleFailure wraps any failed or empty oracle call.
	ErrOracleFailure = errors.New("oracle call failed")
	// ErrNonConvergence is returned when max rounds pass without the
	// summary getting below the reasonable length.
	ErrNonConvergence = errors.New("summary did not converge")
	// ErrEmptyInput is returned for input with no sentences.
	ErrEmptyInput = errors.New("input text is empty")
)
