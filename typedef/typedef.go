// Copyright (c) 2025 Rampart Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package typedef declares structural type definitions for the values a
// service method accepts and produces.
//
// A [Type] is immutable once constructed and is identified by its
// structural content. Types may reference each other by name through a
// shared [Definitions] pool, which enables reuse as well as recursive
// structures. Every reference must resolve within the pool when the
// definition is compiled, never at call time.
package typedef

// Kind identifies the structural category of a [Type].
type Kind string

const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindInteger   Kind = "integer"
	KindBoolean   Kind = "boolean"
	KindTimestamp Kind = "timestamp"
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindEnum      Kind = "enum"
	KindUnion     Kind = "union"
	KindRef       Kind = "ref"
	KindVoid      Kind = "void"
)

// Definitions is a named pool of types shared across all methods of one
// service.
type Definitions map[string]*Type

// Property is a single named member of an object [Type].
type Property struct {
	Name     string
	Type     *Type
	Optional bool
}

// Variant is one branch of a discriminated union, selected when the
// union's tag property equals Tag.
type Variant struct {
	Tag  string
	Type *Type
}

// Type is a structural description of an accepted or produced value.
// The zero value is not usable; construct types with the package level
// constructors.
type Type struct {
	kind       Kind
	properties []Property
	items      *Type
	values     []any
	tag        string
	variants   []Variant
	ref        string
}

// Kind reports the structural category of t.
func (t *Type) Kind() Kind {
	return t.kind
}

// String describes a JSON string value.
func String() *Type {
	return &Type{kind: KindString}
}

// Number describes any JSON number value.
func Number() *Type {
	return &Type{kind: KindNumber}
}

// Integer describes a JSON number value without a fractional part.
func Integer() *Type {
	return &Type{kind: KindInteger}
}

// Boolean describes a JSON boolean value.
func Boolean() *Type {
	return &Type{kind: KindBoolean}
}

// Timestamp describes an RFC 3339 date-time string.
func Timestamp() *Type {
	return &Type{kind: KindTimestamp}
}

// Object describes a JSON object with the given named properties.
// Property order is preserved and reflected in the rendered schema.
func Object(props ...Property) *Type {
	return &Type{kind: KindObject, properties: props}
}

// Field declares a required object property.
func Field(name string, t *Type) Property {
	return Property{Name: name, Type: t}
}

// Optional declares an object property which may be absent.
func Optional(name string, t *Type) Property {
	return Property{Name: name, Type: t, Optional: true}
}

// ArrayOf describes a JSON array whose elements all satisfy items.
func ArrayOf(items *Type) *Type {
	return &Type{kind: KindArray, items: items}
}

// Enum describes a value which must equal one of the given literals.
func Enum(values ...any) *Type {
	return &Type{kind: KindEnum, values: values}
}

// Union describes a discriminated union. The tag property of the value
// selects exactly one variant; a tag value matching no variant is always
// a validation failure.
func Union(tag string, variants ...Variant) *Type {
	return &Type{kind: KindUnion, tag: tag, variants: variants}
}

// Case declares one union variant.
func Case(tag string, t *Type) Variant {
	return Variant{Tag: tag, Type: t}
}

// Ref describes a value satisfying the named entry of the service's
// [Definitions] pool.
func Ref(name string) *Type {
	return &Type{kind: KindRef, ref: name}
}

// Void is the sentinel describing the absence of a value. A void
// response accepts only a nil result and nothing else.
func Void() *Type {
	return &Type{kind: KindVoid}
}

// Properties returns the declared object properties, nil for non-object
// types.
func (t *Type) Properties() []Property {
	return t.properties
}

// Items returns the element type of an array, nil otherwise.
func (t *Type) Items() *Type {
	return t.items
}

// Values returns the literals of an enum, nil otherwise.
func (t *Type) Values() []any {
	return t.values
}

// Tag returns the discriminator property name of a union.
func (t *Type) Tag() string {
	return t.tag
}

// Variants returns the declared union variants in declaration order.
func (t *Type) Variants() []Variant {
	return t.variants
}

// RefName returns the referenced definition name of a ref type.
func (t *Type) RefName() string {
	return t.ref
}
