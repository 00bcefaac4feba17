package validator

// Validator validates a struct using its tags and returns an error describing
// every invalid field.
type Validator interface {
	Validate(data any) error
}
