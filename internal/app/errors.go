package app

import "fmt"

// DomainError is a validation or conflict outcome the HTTP layer translates
// directly into a response: the status, a stable machine-readable code
// (TITLE_REQUIRED, DUPLICATE_ORDER, ...), a human message, and optional
// details echoed into the error envelope.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
