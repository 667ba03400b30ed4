// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package typedef

import (
	"errors"
	"fmt"
)

// DefaultRefPrefix is the reference prefix used when compiling a type
// for validation, where the [Definitions] pool is embedded under $defs.
const DefaultRefPrefix = "#/$defs/"

// RenderOptions control how a [Type] is rendered to a JSON Schema
// document.
type RenderOptions struct {
	// Strict renders every object with additionalProperties: false so
	// that undeclared properties are rejected. Responses render strict,
	// requests render liberal.
	Strict bool

	// RefPrefix is prepended to definition names when rendering ref
	// types. Defaults to [DefaultRefPrefix]. The manifest renders with
	// "#/components/schemas/" instead.
	RefPrefix string
}

// Render produces a JSON Schema (draft 2020-12) document for t as a
// generic value tree. Structurally invalid types fail with a
// descriptive error.
func (t *Type) Render(opts RenderOptions) (map[string]any, error) {
	if opts.RefPrefix == "" {
		opts.RefPrefix = DefaultRefPrefix
	}
	return render(t, opts)
}

// Render renders every definition of the pool, keyed by name.
func (d Definitions) Render(opts RenderOptions) (map[string]any, error) {
	if opts.RefPrefix == "" {
		opts.RefPrefix = DefaultRefPrefix
	}

	rendered := make(map[string]any, len(d))
	for name, t := range d {
		doc, err := render(t, opts)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}
		rendered[name] = doc
	}
	return rendered, nil
}

func render(t *Type, opts RenderOptions) (map[string]any, error) {
	if t == nil {
		return nil, errors.New("nil type")
	}

	switch t.kind {
	case KindString:
		return map[string]any{"type": "string"}, nil
	case KindNumber:
		return map[string]any{"type": "number"}, nil
	case KindInteger:
		return map[string]any{"type": "integer"}, nil
	case KindBoolean:
		return map[string]any{"type": "boolean"}, nil
	case KindTimestamp:
		return map[string]any{"type": "string", "format": "date-time"}, nil
	case KindObject:
		return renderObject(t, opts)
	case KindArray:
		items, err := render(t.items, opts)
		if err != nil {
			return nil, fmt.Errorf("array items: %w", err)
		}
		return map[string]any{"type": "array", "items": items}, nil
	case KindEnum:
		if len(t.values) == 0 {
			return nil, errors.New("enum declares no values")
		}
		return map[string]any{"enum": append([]any(nil), t.values...)}, nil
	case KindUnion:
		return renderUnion(t, opts)
	case KindRef:
		if t.ref == "" {
			return nil, errors.New("ref names no definition")
		}
		return map[string]any{"$ref": opts.RefPrefix + t.ref}, nil
	case KindVoid:
		return nil, errors.New("void type has no schema")
	default:
		return nil, fmt.Errorf("unknown kind %q", t.kind)
	}
}

func renderObject(t *Type, opts RenderOptions) (map[string]any, error) {
	properties := make(map[string]any, len(t.properties))
	required := make([]string, 0, len(t.properties))
	for _, p := range t.properties {
		doc, err := render(p.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		properties[p.Name] = doc
		if !p.Optional {
			required = append(required, p.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	if opts.Strict {
		doc["additionalProperties"] = false
	}
	return doc, nil
}

// renderUnion renders a discriminated union as
//
//	allOf: [
//	  { required: [tag], properties: { tag: { enum: [...] } } },
//	  { oneOf: [ variants, each requiring its tag const ] },
//	]
//
// The leading branch makes an unknown tag value surface as an enum
// failure on the tag property instead of an opaque oneOf mismatch.
func renderUnion(t *Type, opts RenderOptions) (map[string]any, error) {
	if t.tag == "" {
		return nil, errors.New("union names no tag property")
	}
	if len(t.variants) == 0 {
		return nil, errors.New("union declares no variants")
	}

	tags := make([]any, 0, len(t.variants))
	oneOf := make([]any, 0, len(t.variants))
	for _, v := range t.variants {
		doc, err := render(v.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("union variant %q: %w", v.Tag, err)
		}
		tags = append(tags, v.Tag)

		// Inline object variants get the tag property folded into
		// their own schema; a strict variant would otherwise reject
		// the tag as an undeclared property. Ref variants must declare
		// the tag property themselves.
		properties, ok := doc["properties"].(map[string]any)
		if ok {
			if _, declared := properties[t.tag]; !declared {
				properties[t.tag] = map[string]any{"const": v.Tag}
				required, _ := doc["required"].([]string)
				doc["required"] = append(required, t.tag)
			}
			oneOf = append(oneOf, doc)
			continue
		}

		oneOf = append(oneOf, map[string]any{
			"allOf": []any{
				map[string]any{
					"properties": map[string]any{
						t.tag: map[string]any{"const": v.Tag},
					},
					"required": []string{t.tag},
				},
				doc,
			},
		})
	}

	return map[string]any{
		"allOf": []any{
			map[string]any{
				"type":     "object",
				"required": []string{t.tag},
				"properties": map[string]any{
					t.tag: map[string]any{"enum": tags},
				},
			},
			map[string]any{"oneOf": oneOf},
		},
	}, nil
}
