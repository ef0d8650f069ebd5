package event

// Typed payloads, one struct per kind. Field names mirror the JSON
// shape persisted in the event table and carried through export files.

// CreatedPayload describes a new bullet inserted at (ParentID, Index).
// An empty ParentID means the forest root.
type CreatedPayload struct {
	ID        string `json:"id"`
	ParentID  string `json:"parentId,omitempty"`
	Index     int    `json:"index"`
	Content   string `json:"content"`
	Context   string `json:"context,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty"`
	Checked   bool   `json:"checked,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// DeletedPayload removes a bullet and, implicitly, its subtree.
type DeletedPayload struct {
	ID string `json:"id"`
}

// MovedPayload relocates a bullet to (ToParentID, ToIndex).
type MovedPayload struct {
	ID         string `json:"id"`
	ToParentID string `json:"toParentId,omitempty"`
	ToIndex    int    `json:"toIndex"`
}

// IndentedPayload records an indent: the bullet became the last child
// of its previous sibling. Replay-wise identical to a move; the kind
// preserves the user-level intent in the log.
type IndentedPayload struct {
	ID         string `json:"id"`
	ToParentID string `json:"toParentId"`
	ToIndex    int    `json:"toIndex"`
}

// OutdentedPayload records an outdent: the bullet became the sibling
// immediately after its former parent.
type OutdentedPayload struct {
	ID         string `json:"id"`
	ToParentID string `json:"toParentId,omitempty"`
	ToIndex    int    `json:"toIndex"`
}

// ContentUpdatedPayload overwrites a bullet's text.
type ContentUpdatedPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ContextUpdatedPayload overwrites a bullet's note.
type ContextUpdatedPayload struct {
	ID      string `json:"id"`
	Context string `json:"context"`
}

// CollapsedUpdatedPayload overwrites a bullet's collapse flag.
type CollapsedUpdatedPayload struct {
	ID        string `json:"id"`
	Collapsed bool   `json:"collapsed"`
}

// CheckedUpdatedPayload overwrites a bullet's task-completion flag.
type CheckedUpdatedPayload struct {
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
}

// WorkspacePayload is shared by the workspace metadata events. Name is
// empty for workspace_deleted.
type WorkspacePayload struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
