// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service registers plain service objects, wraps every declared
// method with request and response validation, and builds the manifest a
// routing layer reads for discovery.
//
// Registration compiles each method's schemas exactly once. A compile
// failure aborts registration entirely, so a service is never partially
// registered. After registration the [Service] is read-only and safe
// for unlimited concurrent calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/rampartlabs/rampart"
	"github.com/rampartlabs/rampart/schema"
	"github.com/rampartlabs/rampart/typedef"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Func is the uniform shape of an exposed method implementation. The
// context carries request scoped values and cancellation; arg is the
// raw argument value already deserialized from the wire.
type Func func(ctx context.Context, arg any) (any, error)

// Method declares one exposed method's contract. It is constructed once
// during registration and immutable thereafter.
type Method struct {
	// Timeout is metadata only: this layer has no deadline logic of
	// its own, enforcement belongs to the routing layer.
	Timeout time.Duration

	// Help is the method's documentation shown in the manifest.
	Help string

	// ParamNames documents the argument's parameter names for
	// discovery clients.
	ParamNames []string

	// Request is the declared argument type. Nil accepts any value.
	// Requests validate liberally: declared properties are enforced
	// but undeclared extras pass.
	Request *typedef.Type

	// Response is the declared result type. Nil accepts any value,
	// [typedef.Void] accepts only an absent result. Responses validate
	// strictly: any shape drift fails.
	Response *typedef.Type
}

// Config is the configuration surface consumed at registration.
type Config struct {
	// Name is the service's display name.
	Name string

	// Version is reported by the manifest's OpenAPI document.
	Version string

	// Help is the service's documentation shown in the manifest.
	Help string

	// Definitions is the named type pool shared by every method's
	// request and response types. All refs must resolve within it.
	Definitions typedef.Definitions

	// Methods declares the exposed contract, keyed by method name.
	// Implementation entries without a declaration are unreachable.
	Methods map[string]Method

	// Logger receives lenient mode response drift reports. Defaults
	// to [rampart.Logger].
	Logger *slog.Logger

	// StrictResponses overrides the environment derived default for
	// failing calls on response validation errors. When nil the
	// service is strict iff RAMPART_ENV names a production-like
	// environment.
	StrictResponses *bool
}

type boundMethod struct {
	fn       Func
	request  schema.Validator
	response schema.Validator
}

// Service is a registered, validated method set. It performs no I/O of
// its own and holds no mutable state after registration.
type Service struct {
	name     string
	strict   bool
	log      *slog.Logger
	tracer   trace.Tracer
	methods  map[string]*boundMethod
	manifest *Manifest
}

// Register compiles every declared method's schemas, binds them to the
// implementation and assembles the manifest. It fails fast, naming the
// offending method, when a schema does not compile or a declared method
// has no implementation.
func Register(impl map[string]Func, cfg Config) (*Service, error) {
	if cfg.Name == "" {
		return nil, errors.New("service name is required")
	}

	log := cfg.Logger
	if log == nil {
		log = rampart.Logger("github.com/rampartlabs/rampart/service")
	}

	strict := strictDefault()
	if cfg.StrictResponses != nil {
		strict = *cfg.StrictResponses
	}

	names := make([]string, 0, len(cfg.Methods))
	for name := range cfg.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	svc := &Service{
		name:    cfg.Name,
		strict:  strict,
		log:     log,
		tracer:  otel.Tracer("github.com/rampartlabs/rampart/service"),
		methods: make(map[string]*boundMethod, len(names)),
	}
	manifest := &Manifest{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Help:        cfg.Help,
		Definitions: cfg.Definitions,
	}

	for _, name := range names {
		m := cfg.Methods[name]

		fn, ok := impl[name]
		if !ok {
			return nil, fmt.Errorf("method %q is declared but not implemented", name)
		}

		request, err := schema.Compile(m.Request, cfg.Definitions, schema.Liberal)
		if err != nil {
			return nil, fmt.Errorf("method %q: request schema: %w", name, err)
		}
		response, err := schema.Compile(m.Response, cfg.Definitions, schema.Strict)
		if err != nil {
			return nil, fmt.Errorf("method %q: response schema: %w", name, err)
		}

		svc.methods[name] = &boundMethod{
			fn:       fn,
			request:  request,
			response: response,
		}
		manifest.Methods = append(manifest.Methods, MethodDescriptor{
			Name:       name,
			Timeout:    m.Timeout,
			Help:       m.Help,
			ParamNames: m.ParamNames,
			Request:    m.Request,
			Response:   m.Response,
		})
	}

	svc.manifest = manifest
	return svc, nil
}

func strictDefault() bool {
	switch os.Getenv("RAMPART_ENV") {
	case "production", "prod", "staging":
		return true
	default:
		return false
	}
}

// Name returns the service's display name.
func (s *Service) Name() string {
	return s.name
}

// Manifest returns the read-only metadata a routing layer serves for
// discovery.
func (s *Service) Manifest() *Manifest {
	return s.manifest
}

// Call dispatches one method invocation: validate the request, invoke
// the implementation, validate the result.
//
// A request validation failure short-circuits before the implementation
// is ever invoked. Errors returned by the implementation propagate
// unchanged. A response validation failure either fails the call (strict
// mode) or is logged once and the invalid result delivered anyway.
func (s *Service) Call(ctx context.Context, method string, arg any) (any, error) {
	spanCtx, span := s.tracer.Start(ctx, "Service.Call")
	defer span.End()

	m, ok := s.methods[method]
	if !ok {
		err := &UnknownMethodError{Service: s.name, Method: method}
		span.RecordError(err)
		return nil, err
	}

	if failures := m.request.Validate(arg); len(failures) > 0 {
		err := newValidationError(CodeRequestValidation, failures[0], arg)
		span.RecordError(err)
		return nil, err
	}

	result, err := m.fn(spanCtx, arg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	failures := m.response.Validate(result)
	if len(failures) == 0 {
		return result, nil
	}

	if s.strict {
		err := newValidationError(CodeResponseValidation, failures[0], result)
		span.RecordError(err)
		return nil, err
	}

	s.log.ErrorContext(spanCtx, fmt.Sprintf(
		"%s.%s returned a response not matching its declared schema: %s",
		s.name, method, schema.Format(failures[0], result),
	))
	return result, nil
}

// newValidationError surfaces only the first failure even when several
// properties are invalid.
func newValidationError(code string, f schema.Failure, input any) *ValidationError {
	typeURI := TypeRequestValidation
	if code == CodeResponseValidation {
		typeURI = TypeResponseValidation
	}
	return &ValidationError{
		Type:         typeURI,
		Code:         code,
		Message:      schema.Format(f, input),
		InstancePath: f.InstancePath,
		SchemaPath:   f.SchemaPath,
	}
}
