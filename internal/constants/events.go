package constants

// TaskEvent names a command applied to a task.
type TaskEvent string

const (
	EventCreate          TaskEvent = "create"
	EventUpdate          TaskEvent = "update"
	EventStart           TaskEvent = "start"
	EventSubmitForReview TaskEvent = "submit-for-review"
	EventReview          TaskEvent = "review"
	EventForceComplete   TaskEvent = "force-complete"
	EventSubmitResponse  TaskEvent = "submit-response"
	EventDeleteResponse  TaskEvent = "delete-response"
	EventDelete          TaskEvent = "delete"
)

// NoticeKind is the kind of notification a transition asks to be delivered.
type NoticeKind string

const (
	NoticeSubmittedForReview NoticeKind = "submitted-for-review"
	NoticeApproved           NoticeKind = "approved"
	NoticeRejected           NoticeKind = "rejected"
	NoticeForceCompleted     NoticeKind = "force-completed"
)
