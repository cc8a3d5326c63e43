package app

import "fmt"

// ErrConnection represents a database connection error.
type ErrConnection struct {
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// Stages of a statement run reported by ErrQuery.
const (
	StagePrepare = "prepare"
	StageExecute = "execute"
	StageFetch   = "fetch"
)

// ErrQuery represents a failure while preparing, executing or fetching a
// statement.
type ErrQuery struct {
	Stage string
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("query error: %v", e.Cause)
	}
	return fmt.Sprintf("%s error: %v", e.Stage, e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}
