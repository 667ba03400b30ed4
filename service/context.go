// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rampartlabs/rampart/concurrent"
)

// ContextualFunc is a method implementation whose first parameter is an
// ambient, request scoped value carried alongside the payload without
// being part of its schema. The request validator only ever sees arg.
type ContextualFunc[T any] func(ctx context.Context, ambient T, arg any) (any, error)

type ambientKey struct{}

// ContextualService wraps a context-taking method set into an ordinary
// registered [Service].
//
// The preferred dispatch path is [ContextualService.CallWith], which
// threads the ambient value explicitly through the call chain. For
// routing layers whose call signature cannot carry the ambient value,
// [ContextualService.Bind] associates it with the raw argument object by
// identity ahead of an ordinary [ContextualService.Call].
type ContextualService[T any] struct {
	svc     *Service
	pending *concurrent.Cache[uintptr, T]
}

// RegisterContextual registers a context-taking method set. The
// configuration is identical to [Register].
func RegisterContextual[T any](impl map[string]ContextualFunc[T], cfg Config) (*ContextualService[T], error) {
	plain := make(map[string]Func, len(impl))
	for name, fn := range impl {
		plain[name] = adaptContextual(cfg.Name, name, fn)
	}

	svc, err := Register(plain, cfg)
	if err != nil {
		return nil, err
	}
	return &ContextualService[T]{
		svc:     svc,
		pending: concurrent.NewCache[uintptr, T](),
	}, nil
}

func adaptContextual[T any](service, method string, fn ContextualFunc[T]) Func {
	return func(ctx context.Context, arg any) (any, error) {
		ambient, ok := ctx.Value(ambientKey{}).(T)
		if !ok {
			return nil, &MissingContextError{Service: service, Method: method}
		}
		return fn(ctx, ambient, arg)
	}
}

// CallWith dispatches method with the ambient value threaded
// explicitly. The value reaches the implementation identity preserved.
func (cs *ContextualService[T]) CallWith(ctx context.Context, ambient T, method string, arg any) (any, error) {
	return cs.svc.Call(context.WithValue(ctx, ambientKey{}, ambient), method, arg)
}

// Bind associates an ambient value with the raw argument object it will
// be dispatched with. The association is keyed by object identity, not
// value equality, and is consumed by the next [ContextualService.Call]
// with the same argument object.
//
// Every Bind must be followed by the Call that consumes it: an
// unconsumed association is retained for the life of the service, and
// its identity key is only meaningful while the caller still holds the
// argument object. Bind immediately before dispatch, or prefer
// [ContextualService.CallWith], which needs no association at all.
func (cs *ContextualService[T]) Bind(arg any, ambient T) error {
	key, ok := identityKey(arg)
	if !ok {
		return fmt.Errorf("argument of type %T has no identity: binding requires a map, slice or pointer", arg)
	}
	cs.pending.Put(key, ambient)
	return nil
}

// Call dispatches method using a previously bound ambient value. When
// no value was bound it fails with a [MissingContextError] before the
// request type is ever evaluated.
func (cs *ContextualService[T]) Call(ctx context.Context, method string, arg any) (any, error) {
	key, ok := identityKey(arg)
	if !ok {
		return nil, &MissingContextError{Service: cs.svc.name, Method: method}
	}
	ambient, ok := cs.pending.Take(key)
	if !ok {
		return nil, &MissingContextError{Service: cs.svc.name, Method: method}
	}
	return cs.CallWith(ctx, ambient, method, arg)
}

// Name returns the service's display name.
func (cs *ContextualService[T]) Name() string {
	return cs.svc.Name()
}

// Manifest returns the wrapped service's manifest.
func (cs *ContextualService[T]) Manifest() *Manifest {
	return cs.svc.Manifest()
}

func identityKey(arg any) (uintptr, bool) {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.Pointer(), true
	default:
		return 0, false
	}
}
