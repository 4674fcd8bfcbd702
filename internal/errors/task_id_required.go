package errors

var ErrTaskIDRequired = New(KindBadRequest, "task id is required")
