package audit

import "time"

// Operation records one mutation against one file within a phase.
type Operation struct {
	ID string
	// PlanID links the operation to the plan that requested it, empty for
	// standalone mutations.
	PlanID    string
	FilePath  string
	Phase     string
	Action    string
	Status    Status
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanRecord stores one serialized plan alongside its lifecycle status.
type PlanRecord struct {
	ID            string
	FilePath      string
	PolicyVersion string
	PlanJSON      string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
