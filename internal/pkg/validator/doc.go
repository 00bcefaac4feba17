// Package validator provides a small validation abstraction for request
// structs.
//
// Usecases depend on the Validator interface. V10Validator is backed by
// go-playground/validator v10 and reports failures as V10ValidationError, a
// snake_case field-to-message map that the router renders as envelope errors.
package validator
