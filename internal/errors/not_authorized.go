package errors

var ErrNotAuthorized = New(KindNotAuthorized, "you cannot perform this action")

func NotAuthorized(format string, args ...any) *Exception {
	return New(KindNotAuthorized, format, args...)
}
