package errors

var ErrInvalidLimit = New(KindBadRequest, "limit must be between 1 and 500")
