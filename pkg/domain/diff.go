package domain

import "slices"

// SnapshotDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	State    *NavigatorState `json:"state,omitempty"`
	NodeID   *string         `json:"node_id,omitempty"`
	Terminal *bool           `json:"terminal,omitempty"`

	// Path carries appended titles, or the full path when it was truncated by a reset.
	Path *PathDelta `json:"path,omitempty"`

	LastError *ErrorKind `json:"last_error,omitempty"`
}

// PathDelta represents changes to the visited path.
type PathDelta struct {
	Appended []string `json:"appended,omitempty"`
	Reset    []string `json:"reset,omitempty"`
}

// Diff calculates the difference between two snapshots.
// If old is nil, it returns a diff representing the entire new snapshot.
// It returns nil when nothing changed.
func Diff(old, new *SessionSnapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: new.SessionID}

	if old == nil || old.State != new.State {
		diff.State = &new.State
	}
	newID := nodeID(new)
	if old == nil || nodeID(old) != newID {
		diff.NodeID = &newID
	}
	if old == nil || old.Terminal != new.Terminal {
		diff.Terminal = &new.Terminal
	}
	if old == nil || old.LastError != new.LastError {
		if new.LastError != "" || old != nil {
			diff.LastError = &new.LastError
		}
	}
	diff.Path = diffPath(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func nodeID(s *SessionSnapshot) string {
	if s.Node == nil {
		return ""
	}
	return s.Node.ID
}

// diffPath treats the path as append-only between resets.
// A path established from empty (start, or recovery after a failed start) is a reset.
func diffPath(old, new *SessionSnapshot) *PathDelta {
	var oldLen int
	if old != nil {
		oldLen = len(old.Path)
	}
	newLen := len(new.Path)
	switch {
	case oldLen == 0 && newLen == 0:
		return nil
	case oldLen == 0:
		return &PathDelta{Reset: new.Path}
	case newLen > oldLen && slices.Equal(old.Path, new.Path[:oldLen]):
		return &PathDelta{Appended: new.Path[oldLen:]}
	case !slices.Equal(old.Path, new.Path):
		return &PathDelta{Reset: new.Path}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.State == nil &&
		d.NodeID == nil &&
		d.Terminal == nil &&
		d.Path == nil &&
		d.LastError == nil
}
