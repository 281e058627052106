// Package serializer shapes outgoing payloads down to an allow-list of fields.
//
// Shaping works on the payload's JSON form, so the allow-list is expressed in
// the same names clients see on the wire.
package serializer

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"accounts/internal/errors"
)

// ErrUnshapeable is returned for payloads that are neither an object nor a collection of objects.
var ErrUnshapeable = errors.New("payload is not an object or a collection of objects")

// Descriptor is the set of fields a response may expose.
type Descriptor struct {
	names   []string
	allowed map[string]struct{}
}

// Fields builds a Descriptor from explicit field names.
func Fields(names ...string) Descriptor {
	d := Descriptor{
		names:   make([]string, 0, len(names)),
		allowed: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := d.allowed[name]; dup {
			continue
		}
		d.allowed[name] = struct{}{}
		d.names = append(d.names, name)
	}

	return d
}

// DescriptorOf derives a Descriptor from the exported fields of struct T,
// using each field's json name. Fields tagged `json:"-"` are not exposed.
func DescriptorOf[T any]() Descriptor {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return Fields()
	}

	names := make([]string, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names = append(names, name)
	}

	return Fields(names...)
}

// Names returns the allowed fields in declaration order.
func (d Descriptor) Names() []string {
	return append([]string(nil), d.names...)
}

// Allows reports whether name is exposed.
func (d Descriptor) Allows(name string) bool {
	_, ok := d.allowed[name]

	return ok
}

// Shape reduces payload to the fields allowed by desc.
// An object yields map[string]any, a slice or array (or a pointer to one) yields
// []map[string]any in the original order, and nil yields nil.
func Shape(desc Descriptor, payload any) (any, error) {
	if payload == nil || isNilPointer(payload) {
		return nil, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	if isCollection(reflect.TypeOf(payload)) {
		return shapeCollection(desc, raw)
	}
	if isNull(raw) {
		return nil, nil
	}

	return shapeObject(desc, raw)
}

func shapeCollection(desc Descriptor, raw []byte) ([]map[string]any, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, "decode collection")
	}

	shaped := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, err := shapeObject(desc, item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		shaped = append(shaped, obj)
	}

	return shaped, nil
}

func shapeObject(desc Descriptor, raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errors.WithStack(ErrUnshapeable)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Wrap(err, "decode object")
	}

	shaped := make(map[string]any, len(desc.names))
	for _, name := range desc.names {
		value, ok := fields[name]
		if !ok {
			continue
		}
		shaped[name] = value
	}

	return shaped, nil
}

func isCollection(typ reflect.Type) bool {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	switch typ.Kind() {
	case reflect.Array:
		return true
	case reflect.Slice:
		// []byte encodes as a base64 string.
		return typ.Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

func isNilPointer(payload any) bool {
	value := reflect.ValueOf(payload)

	return value.Kind() == reflect.Pointer && value.IsNil()
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
