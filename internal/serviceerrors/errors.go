package serviceerrors

import "errors"

// ErrorKind classifies an expected service failure so the transport can pick a status code.
type ErrorKind int

const (
	// KindValidation reports rejected input fields.
	KindValidation ErrorKind = iota
	// KindNotFound reports a missing product.
	KindNotFound
	// KindBadRequest reports a request the store refused.
	KindBadRequest
)

// IsOfKind reports whether err wraps a *ServiceError of the given kind.
func IsOfKind(err error, kind ErrorKind) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == kind
	}
	return false
}

// ServiceError is an expected failure of a service operation. Fields is only
// set for KindValidation and maps a JSON field name to its violation message.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewValidationError reports the violated fields, keyed by JSON field name.
func NewValidationError(fields map[string]string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// NewNotFoundError reports a missing resource with a client-facing message.
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

// NewBadRequestError reports a refused request with a client-facing message.
func NewBadRequestError(message string) *ServiceError {
	return &ServiceError{Kind: KindBadRequest, Message: message}
}
