package errors

var ErrInvalidJSON = New(KindBadRequest, "invalid JSON payload")
