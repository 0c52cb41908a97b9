package convert

import "reflect"

// Roots collects the mappable values held by an instant container such as a
// tick: every mappable field, and every mappable element of a collection
// field. The container itself does not need to be mappable. Struct elements
// stored by value are returned as pointers so they keep their identity.
func Roots(container any, types TypeSet) []any {
	if container == nil {
		return nil
	}
	v := unwrapPointers(reflect.ValueOf(container))
	if !v.IsValid() {
		return nil
	}

	var roots []any
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		roots = appendMappable(roots, v, types)
	case reflect.Struct:
		v = addressable(v)
		for _, prop := range describe(v.Type()).props {
			field, err := v.FieldByIndexErr(prop.index)
			if err != nil {
				continue
			}
			field = unwrapInterface(field)
			if !field.IsValid() {
				continue
			}
			if k := field.Kind(); k == reflect.Slice || k == reflect.Array {
				roots = appendMappable(roots, field, types)
				continue
			}
			if obj, ok := resolve(field, types); ok {
				roots = append(roots, obj.value.Addr().Interface())
			}
		}
	}
	return roots
}

func appendMappable(roots []any, coll reflect.Value, types TypeSet) []any {
	for i := 0; i < coll.Len(); i++ {
		if obj, ok := resolve(coll.Index(i), types); ok {
			roots = append(roots, obj.value.Addr().Interface())
		}
	}
	return roots
}

func unwrapPointers(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
