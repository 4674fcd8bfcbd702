package errors

var ErrValidation = New(KindValidation, "invalid payload")

func Validation(field, format string, args ...any) *Exception {
	e := New(KindValidation, format, args...)
	e.Field = field
	return e
}
