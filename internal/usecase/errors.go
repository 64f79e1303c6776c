package usecase

// DomainError is a business-rule rejection (bad input, unknown lead). It maps
// to a 4xx and its message is safe to show a user.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError is an infrastructure failure (queue down, SMTP refused).
// It maps to a 5xx; the message is logged, the user gets a generic line.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}
