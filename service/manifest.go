// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rampartlabs/rampart/typedef"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// MethodDescriptor is the externally visible metadata for one
// registered method.
type MethodDescriptor struct {
	Name       string
	Timeout    time.Duration
	Help       string
	ParamNames []string
	Request    *typedef.Type
	Response   *typedef.Type
}

// Manifest is the externally visible metadata for one registered
// service: built once at registration, read-only afterward. A routing
// layer serves it for machine readable discovery; this package never
// serves HTTP itself.
type Manifest struct {
	Name        string
	Version     string
	Help        string
	Definitions typedef.Definitions
	Methods     []MethodDescriptor
}

const componentsRefPrefix = "#/components/schemas/"

// OpenAPI renders the manifest as an OpenAPI 3.0 document with one POST
// operation per method at /{service}/{method}. Shared definitions land
// under #/components/schemas.
func (m *Manifest) OpenAPI() (*openapi3.Spec, error) {
	version := m.Version
	if version == "" {
		version = "v0.0.0"
	}

	spec := &openapi3.Spec{
		Openapi: "3.0.3",
		Info: openapi3.Info{
			Title:   m.Name,
			Version: version,
		},
	}
	if m.Help != "" {
		spec.Info.Description = ptr.Ref(m.Help)
	}

	if len(m.Definitions) > 0 {
		rendered, err := m.Definitions.Render(typedef.RenderOptions{
			RefPrefix: componentsRefPrefix,
		})
		if err != nil {
			return nil, err
		}

		schemas := make(map[string]openapi3.SchemaOrRef, len(rendered))
		for name, doc := range rendered {
			sor, err := schemaOrRef(doc.(map[string]any))
			if err != nil {
				return nil, fmt.Errorf("definition %q: %w", name, err)
			}
			schemas[name] = sor
		}
		spec.Components = &openapi3.Components{
			Schemas: &openapi3.ComponentsSchemas{
				MapOfSchemaOrRefValues: schemas,
			},
		}
	}

	for _, md := range m.Methods {
		op, err := m.operation(md)
		if err != nil {
			return nil, fmt.Errorf("method %q: %w", md.Name, err)
		}

		err = spec.AddOperation(http.MethodPost, "/"+m.Name+"/"+md.Name, *op)
		if err != nil {
			return nil, fmt.Errorf("method %q: %w", md.Name, err)
		}
	}
	return spec, nil
}

func (m *Manifest) operation(md MethodDescriptor) (*openapi3.Operation, error) {
	op := &openapi3.Operation{
		Summary: ptr.Ref(m.Name + "." + md.Name),
		Responses: openapi3.Responses{
			MapOfResponseOrRefValues: make(map[string]openapi3.ResponseOrRef),
		},
	}
	if md.Help != "" {
		op.Description = ptr.Ref(md.Help)
	}

	if md.Request != nil && md.Request.Kind() != typedef.KindVoid {
		doc, err := md.Request.Render(typedef.RenderOptions{
			RefPrefix: componentsRefPrefix,
		})
		if err != nil {
			return nil, err
		}
		sor, err := schemaOrRef(doc)
		if err != nil {
			return nil, err
		}
		op.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content: map[string]openapi3.MediaType{
					"application/json": {
						Schema: &sor,
					},
				},
			},
		}
	}

	if md.Response == nil {
		op.Responses.MapOfResponseOrRefValues["200"] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: "Undeclared response value.",
			},
		}
		return op, nil
	}
	if md.Response.Kind() == typedef.KindVoid {
		op.Responses.MapOfResponseOrRefValues["204"] = openapi3.ResponseOrRef{
			Response: &openapi3.Response{
				Description: "No response value.",
			},
		}
		return op, nil
	}

	doc, err := md.Response.Render(typedef.RenderOptions{
		Strict:    true,
		RefPrefix: componentsRefPrefix,
	})
	if err != nil {
		return nil, err
	}
	sor, err := schemaOrRef(doc)
	if err != nil {
		return nil, err
	}
	op.Responses.MapOfResponseOrRefValues["200"] = openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Description: "Validated response value.",
			Content: map[string]openapi3.MediaType{
				"application/json": {
					Schema: &sor,
				},
			},
		},
	}
	return op, nil
}

func schemaOrRef(doc map[string]any) (openapi3.SchemaOrRef, error) {
	var sor openapi3.SchemaOrRef

	b, err := json.Marshal(doc)
	if err != nil {
		return sor, err
	}

	var js jsonschema.Schema
	if err := json.Unmarshal(b, &js); err != nil {
		return sor, err
	}

	sor.FromJSONSchema(js.ToSchemaOrBool())
	return sor, nil
}
