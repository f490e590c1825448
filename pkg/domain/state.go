package domain

import "time"

// NavigatorState is the mode of a session's tree traversal.
type NavigatorState string

const (
	StateIdle     NavigatorState = "idle"
	StateLoading  NavigatorState = "loading"
	StateReady    NavigatorState = "ready"
	StateTerminal NavigatorState = "terminal"
	StateError    NavigatorState = "error"
)

// SessionSnapshot is the explicit, serializable state of one user session.
type SessionSnapshot struct {
	SessionID string         `json:"session_id"`
	State     NavigatorState `json:"state"`
	Node      *TreeNode      `json:"node,omitempty"`
	Path      []string       `json:"path"`
	Terminal  bool           `json:"terminal"`

	// LastError is set while State is StateError.
	LastError     ErrorKind `json:"last_error,omitempty"`
	LastErrorText string    `json:"last_error_text,omitempty"`

	// RecoveryPending reports a scheduled automatic reset.
	RecoveryPending bool `json:"recovery_pending"`

	Pantry    *Pantry   `json:"pantry,omitempty"`
	LastMatch *MatchSet `json:"last_match,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted snapshot when a store encrypts at rest.
	Sealed string `json:"sealed,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s SessionSnapshot) Clone() SessionSnapshot {
	out := s
	out.Path = append([]string(nil), s.Path...)
	if s.Node != nil {
		n := *s.Node
		n.Options = append([]Option(nil), s.Node.Options...)
		n.Ingredients = append([]string(nil), s.Node.Ingredients...)
		out.Node = &n
	}
	if s.Pantry != nil {
		out.Pantry = s.Pantry.Clone()
	}
	if s.LastMatch != nil {
		m := MatchSet{
			Complete:     append([]MatchResult(nil), s.LastMatch.Complete...),
			NearComplete: append([]MatchResult(nil), s.LastMatch.NearComplete...),
			Incomplete:   append([]MatchResult(nil), s.LastMatch.Incomplete...),
		}
		out.LastMatch = &m
	}
	return out
}
