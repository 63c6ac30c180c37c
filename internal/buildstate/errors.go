package buildstate

import "fmt"

// StateNotReached is returned by an EnforcedStage's Do when the stage
// it wraps was demanded to already be complete out-of-band but isn't.
type StateNotReached struct {
	Stage   string
	Message string
}

func (e *StateNotReached) Error() string {
	return fmt.Sprintf("buildstate: %s: %s", e.Stage, e.Message)
}
