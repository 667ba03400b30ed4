// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/rampartlabs/rampart/typedef"

	"github.com/stretchr/testify/assert"
	"github.com/z5labs/sdk-go/ptr"
)

type session struct {
	UserID string
}

func sessionService(t *testing.T, received **session) *ContextualService[*session] {
	t.Helper()

	cfg := Config{
		Name: "greeter",
		Methods: map[string]Method{
			"greet": {
				Request:  typedef.Object(typedef.Field("name", typedef.String())),
				Response: typedef.Object(typedef.Field("greeting", typedef.String())),
			},
		},
		Logger:          slog.New(&captureHandler{}),
		StrictResponses: ptr.Ref(true),
	}
	impl := map[string]ContextualFunc[*session]{
		"greet": func(_ context.Context, ambient *session, arg any) (any, error) {
			*received = ambient
			name := arg.(map[string]any)["name"].(string)
			return map[string]any{"greeting": "hello " + name + " (" + ambient.UserID + ")"}, nil
		},
	}

	cs, err := RegisterContextual(impl, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func TestContextualService(t *testing.T) {
	t.Run("will thread the ambient value explicitly with CallWith", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		sess := &session{UserID: "u-1"}
		result, err := cs.CallWith(context.Background(), sess, "greet", map[string]any{"name": "ada"})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, map[string]any{"greeting": "hello ada (u-1)"}, result)
		assert.Same(t, sess, received)
	})

	t.Run("will fail before request validation when nothing was bound", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		// The argument would also fail request validation; the missing
		// binding must win because it is checked first.
		_, err := cs.Call(context.Background(), "greet", map[string]any{"name": 1})
		if !assert.NotNil(t, err) {
			return
		}

		var mce *MissingContextError
		assert.True(t, errors.As(err, &mce))

		var ve *ValidationError
		assert.False(t, errors.As(err, &ve))
		assert.Nil(t, received)
	})

	t.Run("will deliver the bound ambient value identity preserved", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		arg := map[string]any{"name": "ada"}
		sess := &session{UserID: "u-2"}

		if !assert.Nil(t, cs.Bind(arg, sess)) {
			return
		}

		_, err := cs.Call(context.Background(), "greet", arg)
		if !assert.Nil(t, err) {
			return
		}
		assert.Same(t, sess, received)
	})

	t.Run("will consume a binding on first use", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		arg := map[string]any{"name": "ada"}
		if !assert.Nil(t, cs.Bind(arg, &session{UserID: "u-3"})) {
			return
		}

		_, err := cs.Call(context.Background(), "greet", arg)
		if !assert.Nil(t, err) {
			return
		}

		_, err = cs.Call(context.Background(), "greet", arg)
		var mce *MissingContextError
		assert.True(t, errors.As(err, &mce))
	})

	t.Run("will associate by identity, not value equality", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		arg := map[string]any{"name": "ada"}
		equal := map[string]any{"name": "ada"}

		if !assert.Nil(t, cs.Bind(arg, &session{UserID: "u-4"})) {
			return
		}

		_, err := cs.Call(context.Background(), "greet", equal)
		var mce *MissingContextError
		assert.True(t, errors.As(err, &mce))
	})

	t.Run("will refuse to bind a value without identity", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		assert.NotNil(t, cs.Bind("scalar", &session{}))
	})

	t.Run("will still validate the request after the ambient is resolved", func(t *testing.T) {
		var received *session
		cs := sessionService(t, &received)

		arg := map[string]any{"name": 1}
		if !assert.Nil(t, cs.Bind(arg, &session{UserID: "u-5"})) {
			return
		}

		_, err := cs.Call(context.Background(), "greet", arg)
		if !assert.NotNil(t, err) {
			return
		}

		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
		assert.Nil(t, received)
	})
}
