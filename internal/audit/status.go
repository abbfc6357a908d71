package audit

import (
	"fmt"

	"medley/internal/services"
)

// Status is the lifecycle state of an audit record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// validTransitions is the closed transition table. Completed, Failed, and
// RolledBack are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusRolledBack},
}

// ValidateTransition reports whether from may move to to.
func ValidateTransition(from, to Status) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "audit", "transition",
		fmt.Sprintf("invalid status transition %s -> %s", from, to), nil)
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}
