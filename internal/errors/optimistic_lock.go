package errors

var ErrOptimisticLock = New(KindConflict, "optimistic locking conflict")
