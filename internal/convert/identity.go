package convert

import (
	"fmt"
	"reflect"
	"strconv"
)

// IdentityOf returns the stable name of v: "<TypeName>_<id>" when v has a
// non-nil property named id, else "<TypeName>_<token>" where token is derived
// from the instance's address. The fallback is per instance, so two equal but
// distinct values get different names, and only pointers give the same name
// across calls. Zero-size types have no per-instance address, so without an
// id all their instances are named "<TypeName>_0"; a mapping pass numbers
// them instead. IdentityOf never fails.
func IdentityOf(v any) string {
	if v == nil {
		return "Anonymous_0"
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			t := rv.Type()
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			return typeName(t) + "_0"
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return typeName(rv.Type()) + "_" + fmt.Sprint(rv.Interface())
	}
	obj := addressable(rv)
	name, _ := identify(obj, describe(obj.Type()))
	return name
}

// identify names an addressable struct value. The boolean reports whether
// the name came from a declared id.
func identify(obj reflect.Value, d *descriptor) (string, bool) {
	if id, ok := declaredID(obj, d); ok {
		return d.name + "_" + id, true
	}
	return d.name + "_" + fallbackToken(obj), false
}

func declaredID(obj reflect.Value, d *descriptor) (string, bool) {
	if d.idIndex < 0 {
		return "", false
	}
	field, err := obj.FieldByIndexErr(d.props[d.idIndex].index)
	if err != nil {
		return "", false
	}
	for field.Kind() == reflect.Pointer || field.Kind() == reflect.Interface {
		if field.IsNil() {
			return "", false
		}
		field = field.Elem()
	}
	if !field.CanInterface() {
		return "", false
	}
	return fmt.Sprint(field.Interface()), true
}

func fallbackToken(obj reflect.Value) string {
	if !obj.CanAddr() || obj.Type().Size() == 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(obj.Addr().Pointer()), 16)
}

// addressable returns v itself when it has an address, otherwise a fresh
// addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}
