// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rampart provides a schema validated dispatch layer for exposing
// plain service objects, that is mappings from method name to function,
// over an HTTP-as-RPC style boundary.
//
// The heavy lifting lives in the subpackages:
//
//   - [github.com/rampartlabs/rampart/typedef] declares the structural
//     type definitions a service accepts and produces.
//   - [github.com/rampartlabs/rampart/schema] compiles those definitions
//     into reusable validators and formats validation failures.
//   - [github.com/rampartlabs/rampart/service] registers services, wraps
//     their methods with request/response validation and builds the
//     discovery manifest.
package rampart

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}
