package constants

type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusInProgress  TaskStatus = "in-progress"
	StatusUnderReview TaskStatus = "under-review"
	StatusRejected    TaskStatus = "rejected"
	StatusCompleted   TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusUnderReview, StatusRejected, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted
}

type AssigneeRole string

const (
	RolePrimary      AssigneeRole = "primary"
	RoleCollaborator AssigneeRole = "collaborator"
	RoleReviewer     AssigneeRole = "reviewer"
	RoleViewer       AssigneeRole = "viewer"
)

func (r AssigneeRole) IsValid() bool {
	switch r {
	case RolePrimary, RoleCollaborator, RoleReviewer, RoleViewer:
		return true
	default:
		return false
	}
}

type ResponseStatus string

const (
	ResponseCompleted ResponseStatus = "completed"
	ResponsePartial   ResponseStatus = "partial"
)
