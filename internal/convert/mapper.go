// Package convert maps graphs of Go values onto knowledge-base facts.
//
// A struct type is mappable when it implements Convertible or is listed in a
// TypeSet. Mapping a mappable value declares a class for its type and an
// individual for the value, then walks its exported fields: scalars become
// data facts, mappable values become relation facts (after being mapped
// themselves), and everything else is skipped. Skipping is silent by policy,
// so a modeling mistake such as a forgotten marker shows up as missing facts,
// not as an error.
package convert

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/logging"

	"go.uber.org/zap"
)

var (
	// ErrDuplicateIdentity means two distinct live objects resolved to the
	// same individual name within one pass.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrMissingIdentity is returned in strict mode for objects without an id.
	ErrMissingIdentity = errors.New("missing identity")
)

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Mapper) { m.logger = logger }
}

// WithStrictIdentity makes objects without a non-nil id an error instead of
// falling back to an address-derived name. Use it for types that must keep
// their identity across instants.
func WithStrictIdentity() Option {
	return func(m *Mapper) { m.strict = true }
}

// Mapper emits facts for object graphs. It holds no per-pass state and is
// safe for concurrent use.
type Mapper struct {
	prefix string
	types  TypeSet
	strict bool
	logger *zap.Logger
}

// New returns a mapper that prefixes every class, individual and property
// name with prefix and treats the members of types as mappable in addition
// to marked types.
func New(prefix string, types TypeSet, opts ...Option) *Mapper {
	m := &Mapper{
		prefix: prefix,
		types:  types,
		logger: logging.Get(logging.CategoryMapper),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapObjectGraph maps a single root in its own pass.
func MapObjectGraph(root any, sink kb.Sink, prefix string, types TypeSet) error {
	return New(prefix, types).Map(sink, root)
}

// Map maps all roots in one pass: an object reachable from several roots is
// emitted once. Non-mappable roots are skipped.
func (m *Mapper) Map(sink kb.Sink, roots ...any) error {
	p := &pass{
		m:       m,
		sink:    sink,
		visited: make(map[ref]string),
		owners:  make(map[string]bool),
	}
	for _, root := range roots {
		if root == nil {
			continue
		}
		if _, _, err := p.visit(reflect.ValueOf(root)); err != nil {
			return err
		}
	}
	m.logger.Debug("mapped object graph",
		zap.Int("roots", len(roots)),
		zap.Int("individuals", len(p.owners)))
	return nil
}

// ref identifies an object by reference. The type is part of the key because
// a struct and its first field share an address.
type ref struct {
	typ  reflect.Type
	addr uintptr
}

type object struct {
	value reflect.Value
	desc  *descriptor
	ref   ref
	// anonymous objects have no address of their own: values reached by copy
	// and zero-size values. They are never looked up by reference.
	anonymous bool
}

// pass is the state of one mapping pass.
type pass struct {
	m       *Mapper
	sink    kb.Sink
	visited map[ref]string
	owners  map[string]bool
	fresh   int
}

// resolve unwraps pointers and interfaces down to a mappable struct.
func resolve(v reflect.Value, types TypeSet) (object, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return object{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || !mappableType(v.Type(), types) {
		return object{}, false
	}
	obj := object{desc: describe(v.Type())}
	if !v.CanAddr() || v.Type().Size() == 0 {
		obj.value = addressable(v)
		obj.anonymous = true
		return obj, true
	}
	obj.value = v
	obj.ref = ref{typ: v.Type(), addr: v.Addr().Pointer()}
	return obj, true
}

// name returns the local individual name of obj and whether it came from a
// declared id. Anonymous objects without an id are numbered per pass.
func (p *pass) name(obj object) (string, bool) {
	if id, ok := declaredID(obj.value, obj.desc); ok {
		return obj.desc.name + "_" + id, true
	}
	if obj.anonymous {
		for {
			p.fresh++
			local := obj.desc.name + "_v" + strconv.Itoa(p.fresh)
			if _, taken := p.owners[p.m.prefix+local]; !taken {
				return local, false
			}
		}
	}
	return obj.desc.name + "_" + fallbackToken(obj.value), false
}

// visit maps v if it is mappable and returns its individual name.
func (p *pass) visit(v reflect.Value) (string, bool, error) {
	obj, ok := resolve(v, p.m.types)
	if !ok {
		return "", false, nil
	}
	if !obj.anonymous {
		if name, seen := p.visited[obj.ref]; seen {
			return name, true, nil
		}
	}

	local, declared := p.name(obj)
	if !declared && p.m.strict {
		return "", false, fmt.Errorf("%w: %s has no id", ErrMissingIdentity, obj.desc.name)
	}
	name := p.m.prefix + local

	if anonOwner, taken := p.owners[name]; taken {
		// A copy carrying the same declared id is the object already emitted.
		if !anonOwner && !obj.anonymous {
			return "", false, fmt.Errorf("%w: %s", ErrDuplicateIdentity, name)
		}
		if !obj.anonymous {
			p.visited[obj.ref] = name
		}
		return name, true, nil
	}

	// Mark before descending so cycles terminate.
	if !obj.anonymous {
		p.visited[obj.ref] = name
	}
	p.owners[name] = obj.anonymous

	class := p.m.prefix + obj.desc.name
	if err := p.sink.DeclareClass(class); err != nil {
		return "", false, err
	}
	if err := p.sink.DeclareIndividual(name); err != nil {
		return "", false, err
	}
	if err := p.sink.AssertType(name, class); err != nil {
		return "", false, err
	}

	for _, prop := range obj.desc.props {
		field, err := obj.value.FieldByIndexErr(prop.index)
		if err != nil {
			// Nil embedded pointer.
			continue
		}
		if err := p.emit(name, p.m.prefix+prop.name, field, prop.kind); err != nil {
			return "", false, err
		}
	}
	return name, true, nil
}

func (p *pass) emit(subject, property string, v reflect.Value, kind propertyKind) error {
	switch kind {
	case kindDynamic:
		v = unwrapInterface(v)
		if !v.IsValid() {
			return nil
		}
		return p.emit(subject, property, v, kindOf(v.Type()))
	case kindScalar:
		lit, ok := literalOf(v)
		if !ok {
			return nil
		}
		return p.data(subject, property, lit)
	case kindCollection:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := p.element(subject, property, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case kindObject:
		return p.relate(subject, property, v)
	default:
		return nil
	}
}

// element handles one collection member. Nested collections are dropped.
func (p *pass) element(subject, property string, elem reflect.Value) error {
	elem = unwrapInterface(elem)
	if !elem.IsValid() {
		return nil
	}
	switch kindOf(elem.Type()) {
	case kindScalar:
		lit, ok := literalOf(elem)
		if !ok {
			return nil
		}
		return p.data(subject, property, lit)
	case kindObject:
		return p.relate(subject, property, elem)
	default:
		return nil
	}
}

// relate maps target and, once its individual exists, links subject to it.
func (p *pass) relate(subject, property string, target reflect.Value) error {
	name, ok, err := p.visit(target)
	if err != nil || !ok {
		return err
	}
	if err := p.sink.DeclareObjectProperty(property); err != nil {
		return err
	}
	return p.sink.AssertRelation(property, subject, name)
}

func (p *pass) data(subject, property string, lit kb.Literal) error {
	if err := p.sink.DeclareDataProperty(property); err != nil {
		return err
	}
	return p.sink.AssertData(property, subject, lit)
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// literalOf converts a scalar value. Complex numbers and text marshalers are
// rendered as strings; see kb.LiteralOf for the rationale.
func literalOf(v reflect.Value) (kb.Literal, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return kb.Literal{}, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return kb.StringLiteral(v.String()), true
	case reflect.Bool:
		return kb.BoolLiteral(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kb.IntLiteral(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return kb.UintLiteral(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return kb.FloatLiteral(v.Float()), true
	case reflect.Complex64, reflect.Complex128:
		return kb.StringLiteral(strconv.FormatComplex(v.Complex(), 'g', -1, 128)), true
	case reflect.Struct:
		if v.CanInterface() {
			return kb.LiteralOf(v.Interface()), true
		}
	}
	return kb.Literal{}, false
}
