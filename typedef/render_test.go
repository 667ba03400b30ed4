// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package typedef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Render(t *testing.T) {
	t.Run("will render primitives", func(t *testing.T) {
		cases := map[*Type]string{
			String():  "string",
			Number():  "number",
			Integer(): "integer",
			Boolean(): "boolean",
		}

		for typ, name := range cases {
			doc, err := typ.Render(RenderOptions{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, name, doc["type"]) {
				return
			}
		}
	})

	t.Run("will render a timestamp as a date-time string", func(t *testing.T) {
		doc, err := Timestamp().Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, "string", doc["type"])
		assert.Equal(t, "date-time", doc["format"])
	})

	t.Run("will not constrain additional properties when liberal", func(t *testing.T) {
		doc, err := Object(Field("name", String())).Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		_, constrained := doc["additionalProperties"]
		assert.False(t, constrained)
		assert.Equal(t, []string{"name"}, doc["required"])
	})

	t.Run("will reject additional properties when strict", func(t *testing.T) {
		doc, err := Object(Field("name", String())).Render(RenderOptions{Strict: true})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, false, doc["additionalProperties"])
	})

	t.Run("will omit optional properties from required", func(t *testing.T) {
		doc, err := Object(
			Field("name", String()),
			Optional("nickname", String()),
		).Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, []string{"name"}, doc["required"])

		properties := doc["properties"].(map[string]any)
		assert.Contains(t, properties, "name")
		assert.Contains(t, properties, "nickname")
	})

	t.Run("will render refs with the default prefix", func(t *testing.T) {
		doc, err := Ref("User").Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, "#/$defs/User", doc["$ref"])
	})

	t.Run("will render refs with a custom prefix", func(t *testing.T) {
		doc, err := Ref("User").Render(RenderOptions{RefPrefix: "#/components/schemas/"})
		if !assert.Nil(t, err) {
			return
		}

		assert.Equal(t, "#/components/schemas/User", doc["$ref"])
	})

	t.Run("will guard union dispatch with a tag enum", func(t *testing.T) {
		doc, err := Union(
			"kind",
			Case("a", Object(Field("left", Number()))),
			Case("b", Object(Field("right", Number()))),
		).Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		allOf := doc["allOf"].([]any)
		if !assert.Len(t, allOf, 2) {
			return
		}

		guard := allOf[0].(map[string]any)
		assert.Equal(t, []string{"kind"}, guard["required"])

		tag := guard["properties"].(map[string]any)["kind"].(map[string]any)
		assert.Equal(t, []any{"a", "b"}, tag["enum"])

		oneOf := allOf[1].(map[string]any)["oneOf"].([]any)
		assert.Len(t, oneOf, 2)
	})

	t.Run("will fold the tag into inline object variants", func(t *testing.T) {
		doc, err := Union(
			"kind",
			Case("a", Object(Field("left", Number()))),
		).Render(RenderOptions{Strict: true})
		if !assert.Nil(t, err) {
			return
		}

		oneOf := doc["allOf"].([]any)[1].(map[string]any)["oneOf"].([]any)
		variant := oneOf[0].(map[string]any)

		properties := variant["properties"].(map[string]any)
		assert.Equal(t, map[string]any{"const": "a"}, properties["kind"])
		assert.Contains(t, variant["required"], "kind")
	})

	t.Run("will fail on an enum without values", func(t *testing.T) {
		_, err := Enum().Render(RenderOptions{})
		assert.NotNil(t, err)
	})

	t.Run("will fail on a union without variants", func(t *testing.T) {
		_, err := Union("kind").Render(RenderOptions{})
		assert.NotNil(t, err)
	})

	t.Run("will fail on a union without a tag", func(t *testing.T) {
		_, err := Union("", Case("a", String())).Render(RenderOptions{})
		assert.NotNil(t, err)
	})

	t.Run("will fail on a ref without a name", func(t *testing.T) {
		_, err := Ref("").Render(RenderOptions{})
		assert.NotNil(t, err)
	})

	t.Run("will fail on the void sentinel", func(t *testing.T) {
		_, err := Void().Render(RenderOptions{})
		assert.NotNil(t, err)
	})

	t.Run("will fail on a nil property type", func(t *testing.T) {
		_, err := Object(Field("name", nil)).Render(RenderOptions{})
		assert.NotNil(t, err)
	})
}

func TestDefinitions_Render(t *testing.T) {
	t.Run("will render every definition", func(t *testing.T) {
		defs := Definitions{
			"User": Object(Field("name", String())),
			"Tag":  Enum("red", "blue"),
		}

		rendered, err := defs.Render(RenderOptions{})
		if !assert.Nil(t, err) {
			return
		}

		assert.Len(t, rendered, 2)
		assert.Contains(t, rendered, "User")
		assert.Contains(t, rendered, "Tag")
	})

	t.Run("will name the failing definition", func(t *testing.T) {
		defs := Definitions{
			"Bad": Enum(),
		}

		_, err := defs.Render(RenderOptions{})
		if !assert.NotNil(t, err) {
			return
		}
		assert.Contains(t, err.Error(), `"Bad"`)
	})
}
