// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package schema compiles type definitions into reusable validators and
// formats validation failures into the exact messages clients match on.
//
// Compilation is expensive and happens once per method when a service is
// registered. The compiled [Validator] is immutable and safe for
// unlimited concurrent use.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/rampartlabs/rampart/typedef"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Mode selects the validation policy a type compiles under.
type Mode int

const (
	// Liberal tolerates undeclared object properties. Requests compile
	// liberal so callers may pass extra fields without rejection.
	Liberal Mode = iota

	// Strict rejects undeclared object properties. Responses compile
	// strict so any shape drift is caught.
	Strict
)

const resourceURL = "https://rampartlabs.github.io/rampart/schema.json"

// Failure records one reason a value was rejected.
type Failure struct {
	// InstancePath locates the offending value within the validated
	// input, as a JSON pointer. Empty for a root level failure.
	InstancePath string

	// SchemaPath locates the keyword within the type definition which
	// rejected the value.
	SchemaPath string

	// Keyword is the rejecting schema keyword, e.g. "type" or "enum".
	Keyword string

	// KeywordValue is the keyword's value in the rendered schema, e.g.
	// the expected type name or the list of allowed enum literals.
	KeywordValue any

	// Message is the engine's raw message for this failure.
	Message string
}

// Validator is the compiled, callable form of a type definition.
type Validator interface {
	// Validate reports every reason v was rejected, in engine order.
	// A nil result means v was accepted. Callers surface only the
	// first failure.
	Validate(v any) []Failure
}

// CompileError reports a structurally invalid type definition or a ref
// naming no entry of the definitions pool. It surfaces at service
// registration time and is never recovered automatically.
type CompileError struct {
	Err error
}

// Error implements the [error] interface.
func (e *CompileError) Error() string {
	return "compile schema: " + e.Err.Error()
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile turns a type definition, plus the shared definitions pool its
// refs resolve against, into a reusable [Validator].
//
// A nil type compiles to a validator accepting any value, including an
// absent one. The [typedef.Void] sentinel compiles to a validator
// accepting only an absent value.
func Compile(t *typedef.Type, defs typedef.Definitions, mode Mode) (Validator, error) {
	if t == nil {
		return anyValidator{}, nil
	}
	if t.Kind() == typedef.KindVoid {
		return voidValidator{}, nil
	}

	opts := typedef.RenderOptions{Strict: mode == Strict}
	doc, err := t.Render(opts)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	if len(defs) > 0 {
		rendered, err := defs.Render(opts)
		if err != nil {
			return nil, &CompileError{Err: err}
		}
		doc["$defs"] = rendered
	}

	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(resourceURL, bytes.NewReader(buf)); err != nil {
		return nil, &CompileError{Err: err}
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	return &engineValidator{schema: compiled, doc: doc}, nil
}

type anyValidator struct{}

func (anyValidator) Validate(any) []Failure {
	return nil
}

type voidValidator struct{}

func (voidValidator) Validate(v any) []Failure {
	if v == nil {
		return nil
	}
	return []Failure{{
		SchemaPath: "/void",
		Keyword:    "void",
		Message:    "must be void",
	}}
}

type engineValidator struct {
	schema *jsonschema.Schema
	doc    map[string]any
}

func (ev *engineValidator) Validate(v any) []Failure {
	err := ev.schema.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Failure{{Message: err.Error()}}
	}

	var failures []Failure
	ev.flatten(ve, &failures)
	if len(failures) == 0 {
		failures = append(failures, ev.failure(ve))
	}
	return failures
}

func (ev *engineValidator) flatten(ve *jsonschema.ValidationError, out *[]Failure) {
	if len(ve.Causes) == 0 {
		*out = append(*out, ev.failure(ve))
		return
	}
	for _, cause := range ve.Causes {
		ev.flatten(cause, out)
	}
}

func (ev *engineValidator) failure(ve *jsonschema.ValidationError) Failure {
	f := Failure{
		InstancePath: ve.InstanceLocation,
		SchemaPath:   ve.KeywordLocation,
		Message:      ve.Message,
	}

	// The keyword location may traverse $ref boundaries, so its value
	// is resolved through the absolute location's fragment instead.
	pointer := fragmentPointer(ve.AbsoluteKeywordLocation)
	if pointer == "" {
		pointer = ve.KeywordLocation
	}
	segments := splitPointer(pointer)
	if len(segments) > 0 {
		f.Keyword = segments[len(segments)-1]
	}
	if value, ok := resolveSchemaValue(ev.doc, segments); ok {
		f.KeywordValue = value
	}
	return f
}

func fragmentPointer(location string) string {
	_, fragment, ok := strings.Cut(location, "#")
	if !ok {
		return ""
	}
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		return unescaped
	}
	return fragment
}

func splitPointer(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}

	segments := strings.Split(pointer, "/")
	for i, s := range segments {
		s = strings.ReplaceAll(s, "~1", "/")
		segments[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return segments
}

func resolveSchemaValue(doc any, segments []string) (any, bool) {
	current := doc
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, ok := sliceIndex(segment, len(node))
			if !ok {
				return nil, false
			}
			current = node[i]
		case []string:
			i, ok := sliceIndex(segment, len(node))
			if !ok {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

func sliceIndex(segment string, n int) (int, bool) {
	i := 0
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
		i = i*10 + int(r-'0')
	}
	if segment == "" || i >= n {
		return 0, false
	}
	return i, true
}
