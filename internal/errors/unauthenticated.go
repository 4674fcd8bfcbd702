package errors

var ErrUnauthenticated = New(KindUnauthenticated, "missing or invalid bearer token")
