package serrors

import "fmt"

// BaseError is a coded error that callers can match on without string
// comparison. Code is stable across releases; Message is for humans.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	return &BaseError{
		Code:         e.Code,
		Message:      e.Message,
		LocaleKey:    e.LocaleKey,
		TemplateData: data,
	}
}

// Is matches errors by code so wrapped instances produced by
// WithTemplateData still satisfy errors.Is against the sentinel.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// ValidationError carries field level detail for malformed input.
type ValidationError struct {
	*BaseError
	Fields map[string]string
}

func NewValidationError(code, message string, fields map[string]string) *ValidationError {
	return &ValidationError{
		BaseError: NewError(code, message, ""),
		Fields:    fields,
	}
}
