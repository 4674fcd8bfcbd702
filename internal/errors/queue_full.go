package errors

var ErrNotificationQueueFull = New(KindUnavailable, "notification queue is full")
