package rill

import "fmt"

// Phase is the connection lifecycle position of a Coordinator.
type Phase int32

const (
	// PhaseDisconnected is the initial phase, and the terminal phase after
	// an explicit Stop.
	PhaseDisconnected Phase = iota

	// PhaseConnecting indicates a connect attempt is in flight.
	PhaseConnecting

	// PhaseConnected indicates the live feed connection is established.
	PhaseConnected

	// PhaseErrored indicates the last connect attempt failed. The
	// coordinator is disconnected and a reconnect attempt is scheduled.
	PhaseErrored
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ConnectionState is the coordinator's connection status. Reason is non-nil
// only for PhaseErrored. States are immutable values replaced atomically;
// observers never see a partial update.
type ConnectionState struct {
	Phase  Phase
	Reason error
}

// Down reports whether the state is a disconnected flavor (PhaseDisconnected
// or PhaseErrored).
func (s ConnectionState) Down() bool {
	return s.Phase == PhaseDisconnected || s.Phase == PhaseErrored
}

// String returns the string representation of the state.
func (s ConnectionState) String() string {
	if s.Phase == PhaseErrored && s.Reason != nil {
		return fmt.Sprintf("errored: %s", s.Reason)
	}
	return s.Phase.String()
}
