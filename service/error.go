// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import "fmt"

const (
	// CodeRequestValidation marks a caller's input which does not
	// satisfy the declared request type.
	CodeRequestValidation = "validation"

	// CodeResponseValidation marks an implementation's result which
	// does not satisfy the declared response type.
	CodeResponseValidation = "response-validation"
)

// Stable problem type URIs distinguishing validation-of-request from
// validation-of-response. Existing clients discriminate on these, so
// they must never change.
const (
	TypeRequestValidation  = "https://rampartlabs.github.io/problems/request-validation"
	TypeResponseValidation = "https://rampartlabs.github.io/problems/response-validation"
)

// ValidationError is the structured error a call fails with when a
// request or response does not satisfy its declared type. Its JSON
// shape is part of the external contract.
type ValidationError struct {
	// Type is the stable URI identifying the problem kind.
	Type string `json:"type"`

	// Code is [CodeRequestValidation] or [CodeResponseValidation].
	Code string `json:"code"`

	// Message is the formatted, human readable failure description.
	Message string `json:"message"`

	// InstancePath locates the offending value within the input.
	InstancePath string `json:"instancePath"`

	// SchemaPath locates the rejecting keyword within the type.
	SchemaPath string `json:"schemaPath"`
}

// Error implements the [error] interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownMethodError is returned when a call names a method the service
// never declared, even if a same-named function exists on the
// underlying implementation.
type UnknownMethodError struct {
	Service string
	Method  string
}

// Error implements the [error] interface.
func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method: %s.%s", e.Service, e.Method)
}

// MissingContextError is returned by a contextual service when no
// ambient value was associated with the request before dispatch. It is
// an integration error, not a validation error, and occurs before the
// request type is ever evaluated.
type MissingContextError struct {
	Service string
	Method  string
}

// Error implements the [error] interface.
func (e *MissingContextError) Error() string {
	return fmt.Sprintf("no ambient context associated with the request for %s.%s", e.Service, e.Method)
}
