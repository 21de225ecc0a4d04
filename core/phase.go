package core

// Phase is the user-visible state of an orchestrated operation.
// Transitions: Idle -> Pending -> {Success, Failed}. Success and Failed
// revert to Idle after a display window; Failed persists until the next
// manual retry replaces it with Pending.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

// Terminal reports whether the phase auto-reverts to idle.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailed
}
