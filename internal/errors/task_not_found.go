package errors

var ErrNotFound = New(KindNotFound, "not found")

var ErrTaskNotFound = New(KindNotFound, "task not found")
