package errors

var ErrResponseNotFound = New(KindNotFound, "response entry not found")
