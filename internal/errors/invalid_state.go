package errors

var ErrInvalidState = New(KindInvalidState, "action is not allowed in the current task state")

func InvalidState(format string, args ...any) *Exception {
	return New(KindInvalidState, format, args...)
}
