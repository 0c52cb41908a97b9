package convert

import (
	"reflect"
	"sort"
)

// Convertible marks a struct type as mappable. The method carries no
// behavior; implementing it is the declaration.
//
//	type Vehicle struct { ... }
//	func (Vehicle) DLConvertible() {}
type Convertible interface {
	DLConvertible()
}

var convertibleType = reflect.TypeOf((*Convertible)(nil)).Elem()

// TypeSet is an explicit allow-set of mappable struct types, for types that
// cannot carry the marker.
type TypeSet map[reflect.Type]struct{}

// NewTypeSet builds a set from sample values. Pointers are dereferenced, so
// NewTypeSet(&Lane{}) and NewTypeSet(Lane{}) are equivalent.
func NewTypeSet(samples ...any) TypeSet {
	set := make(TypeSet, len(samples))
	for _, s := range samples {
		if s == nil {
			continue
		}
		set.Add(reflect.TypeOf(s))
	}
	return set
}

// Add inserts t (or the struct it points to).
func (s TypeSet) Add(t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s[t] = struct{}{}
}

// Has reports membership. A nil set contains nothing.
func (s TypeSet) Has(t reflect.Type) bool {
	if s == nil {
		return false
	}
	_, ok := s[t]
	return ok
}

// Names lists the member type names, sorted.
func (s TypeSet) Names() []string {
	names := make([]string, 0, len(s))
	for t := range s {
		names = append(names, typeName(t))
	}
	sort.Strings(names)
	return names
}

// IsMappable reports whether v is a mappable object under the marker-or-set
// rule.
func IsMappable(v any, types TypeSet) bool {
	if v == nil {
		return false
	}
	_, ok := resolve(reflect.ValueOf(v), types)
	return ok
}

func marked(t reflect.Type) bool {
	return t.Implements(convertibleType) || reflect.PointerTo(t).Implements(convertibleType)
}

func mappableType(t reflect.Type, types TypeSet) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	return describe(t).marked || types.Has(t)
}
