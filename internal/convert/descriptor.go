package convert

import (
	"encoding"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

type propertyKind int

const (
	kindOpaque     propertyKind = iota // maps, channels, funcs, byte slices
	kindScalar                         // bool, string, numbers, text marshalers
	kindCollection                     // slices and arrays
	kindObject                         // structs and pointers to them
	kindDynamic                        // interfaces, classified per value
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// property is one mappable field of a struct type.
type property struct {
	name  string
	index []int
	kind  propertyKind
}

// descriptor is the per-type table the mapper walks instead of re-inspecting
// the type on every visit.
type descriptor struct {
	typ    reflect.Type
	name   string
	marked bool
	props  []property
	// idIndex is the position of the "id" property in props, or -1.
	idIndex int
}

var descriptors sync.Map // reflect.Type -> *descriptor

// describe returns the cached descriptor for struct type t.
func describe(t reflect.Type) *descriptor {
	if d, ok := descriptors.Load(t); ok {
		return d.(*descriptor)
	}
	d := buildDescriptor(t)
	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*descriptor)
}

func buildDescriptor(t reflect.Type) *descriptor {
	d := &descriptor{
		typ:     t,
		name:    typeName(t),
		marked:  marked(t),
		idIndex: -1,
	}
	seen := make(map[string]bool)
	collectProperties(t, nil, d, seen)
	return d
}

func collectProperties(t reflect.Type, prefix []int, d *descriptor, seen map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag := f.Tag.Get("dl")
		if tag == "-" {
			continue
		}

		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectProperties(ft, index, d, seen)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		name := tag
		if name == "" {
			name = propertyName(f.Name)
		}
		// Outer fields shadow promoted ones.
		if seen[name] {
			continue
		}
		seen[name] = true

		if name == "id" {
			d.idIndex = len(d.props)
		}
		d.props = append(d.props, property{
			name:  name,
			index: index,
			kind:  kindOf(f.Type),
		})
	}
}

func kindOf(t reflect.Type) propertyKind {
	if isScalarType(t) {
		return kindScalar
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return kindOpaque
		}
		return kindCollection
	case reflect.Struct:
		return kindObject
	case reflect.Pointer:
		if isScalarType(t.Elem()) {
			return kindScalar
		}
		if t.Elem().Kind() == reflect.Struct {
			return kindObject
		}
		return kindOpaque
	case reflect.Interface:
		return kindDynamic
	default:
		return kindOpaque
	}
}

func isScalarType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Struct:
		return t.Implements(textMarshalerType) && !marked(t)
	}
	return false
}

// propertyName lower-cases the leading upper-case run of a Go field name:
// IsEgo -> isEgo, ID -> id, URLPath -> urlPath.
func propertyName(field string) string {
	runes := []rune(field)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return field
	case n == len(runes):
		return strings.ToLower(field)
	case n > 1:
		// Keep the last capital; it starts the next word.
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func typeName(t reflect.Type) string {
	if t.Name() == "" {
		return "Anonymous"
	}
	return t.Name()
}
