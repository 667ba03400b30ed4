// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Format produces a single line, human readable message for a failure,
// annotated with the value actually received at the failing location.
//
// The message grammar is a wire contract: clients match on the exact
// strings, so the path-to-dot conversion and the type/enum phrasing must
// not change.
func Format(f Failure, input any) string {
	actual, resolved := resolveInstance(input, f.InstancePath)

	var body string
	switch f.Keyword {
	case "type":
		body = fmt.Sprintf(
			"must be %s, received %s (%s)",
			expectedType(f.KeywordValue),
			runtimeType(actual, resolved),
			renderValue(actual, resolved),
		)
	case "enum":
		body = fmt.Sprintf(
			"must be one of [%s], received %s",
			joinJSON(f.KeywordValue),
			renderValue(actual, resolved),
		)
	default:
		body = f.Message
		if resolved {
			body += ", received " + renderValue(actual, true)
		}
	}

	path := dottedPath(f.InstancePath)
	if path == "" {
		return body
	}
	return path + " " + body
}

// dottedPath converts a JSON pointer instance path to the dotted form
// clients expect: the leading slash is stripped and every remaining
// slash becomes a dot, so /a/b renders as a.b. A root level failure
// renders as the empty string.
func dottedPath(instancePath string) string {
	path := strings.TrimPrefix(instancePath, "/")
	return strings.ReplaceAll(path, "/", ".")
}

// resolveInstance walks the instance path segment by segment from the
// input root. A segment into anything not indexable resolves to an
// absent value rather than failing.
func resolveInstance(input any, instancePath string) (any, bool) {
	current := input
	for _, segment := range splitPointer(instancePath) {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

func expectedType(keywordValue any) string {
	switch v := keywordValue.(type) {
	case string:
		return v
	case []any:
		names := make([]string, 0, len(v))
		for _, t := range v {
			names = append(names, fmt.Sprint(t))
		}
		return strings.Join(names, " or ")
	default:
		return fmt.Sprint(v)
	}
}

// runtimeType names the primitive kind of the received value: "null"
// for a literal null, "undefined" for an unresolvable value, else the
// value's own kind.
func runtimeType(v any, resolved bool) string {
	if !resolved {
		return "undefined"
	}
	if v == nil {
		return "null"
	}

	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case []any:
		return "array"
	default:
		return "object"
	}
}

// renderValue JSON-encodes the received value; unresolvable values
// render as the literal text undefined rather than JSON.
func renderValue(v any, resolved bool) string {
	if !resolved {
		return "undefined"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func joinJSON(keywordValue any) string {
	values, ok := keywordValue.([]any)
	if !ok {
		return renderValue(keywordValue, true)
	}

	encoded := make([]string, 0, len(values))
	for _, v := range values {
		encoded = append(encoded, renderValue(v, true))
	}
	return strings.Join(encoded, ", ")
}
