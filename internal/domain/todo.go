package domain

// Todo is a user-owned item. It is mutated only through a use-case running
// under an active Scope.
type Todo struct {
	ID        int64  `json:"id"`
	OwnerID   string `json:"owner_id"`
	Completed bool   `json:"completed"`
	Text      string `json:"text"`
}

// OwnedBy reports whether callerID owns the todo.
func (t Todo) OwnedBy(callerID string) bool {
	return t.OwnerID == callerID
}
