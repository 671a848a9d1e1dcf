// Package resolve maps dotted member paths onto record shapes.
//
// A path such as "profile.city" is matched segment by segment, ignoring case,
// against exported struct fields (by Go name or json tag), string-keyed map
// keys, and, through interface-typed members, against whatever value is
// stored there at evaluation time. The resulting Accessor reads the member
// from a record without panicking: a nil pointer, nil interface or missing
// map key anywhere along the chain yields "absent".
package resolve

import (
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

type stepKind int

const (
	fieldStep stepKind = iota
	mapStep
	dynamicStep
)

type step struct {
	kind  stepKind
	index []int
	key   string
	// names holds the remaining raw segments of a dynamic step.
	names []string
}

// Accessor reads one member path from records of a fixed shape.
// Accessors are immutable and safe for concurrent use.
type Accessor struct {
	// Path is the canonical member path: Go field names for struct steps,
	// map keys and raw segments otherwise.
	Path string
	// Type is the leaf member type with pointers stripped. For paths that
	// continue through an interface it is that interface type.
	Type reflect.Type
	// Nullable reports whether Get can report the member absent.
	Nullable bool
	// Dynamic reports whether part of the path is resolved at evaluation time.
	Dynamic bool

	shape reflect.Type
	steps []step
}

// Segments splits a dotted path, trimming whitespace and dropping empty
// segments.
func Segments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, ".") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Resolve builds an accessor for path on shape. It reports false when the
// path is blank or names a member shape does not have.
func Resolve(path string, shape reflect.Type) (*Accessor, bool) {
	segs := Segments(path)
	if len(segs) == 0 || shape == nil {
		return nil, false
	}

	acc := &Accessor{shape: Deref(shape)}
	canonical := make([]string, 0, len(segs))
	t := acc.shape

	for i, seg := range segs {
		switch t.Kind() {
		case reflect.Struct:
			f, ok := findField(t, seg)
			if !ok {
				return nil, false
			}
			acc.steps = append(acc.steps, step{kind: fieldStep, index: f.Index})
			canonical = append(canonical, f.Name)
			t = f.Type
			if len(f.Index) > 1 {
				acc.Nullable = acc.Nullable || embedsPointer(acc.shape, f.Index)
			}

		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return nil, false
			}
			acc.steps = append(acc.steps, step{kind: mapStep, key: seg})
			canonical = append(canonical, seg)
			acc.Nullable = true
			t = t.Elem()

		case reflect.Interface:
			rest := segs[i:]
			acc.steps = append(acc.steps, step{kind: dynamicStep, names: rest})
			canonical = append(canonical, rest...)
			acc.Nullable = true
			acc.Dynamic = true
			acc.Path = strings.Join(canonical, ".")
			acc.Type = t
			return acc, true

		default:
			return nil, false
		}

		if nullableKind(t.Kind()) {
			acc.Nullable = true
		}
		t = Deref(t)
	}

	acc.Path = strings.Join(canonical, ".")
	acc.Type = t
	acc.Dynamic = t.Kind() == reflect.Interface
	return acc, true
}

// Shape returns the record type the accessor was resolved against,
// with pointers stripped.
func (a *Accessor) Shape() reflect.Type { return a.shape }

// ElemType returns the element type, pointers stripped, when the leaf is a
// slice or array.
func (a *Accessor) ElemType() (reflect.Type, bool) {
	switch a.Type.Kind() {
	case reflect.Slice, reflect.Array:
		return Deref(a.Type.Elem()), true
	default:
		return nil, false
	}
}

// Get reads the member from record, which must be a value of the accessor's
// shape or a pointer to one. The returned value has pointers and interfaces
// stripped. It reports false when the member is absent.
func (a *Accessor) Get(record any) (reflect.Value, bool) {
	if v, ok := record.(reflect.Value); ok {
		return a.GetValue(v)
	}
	return a.GetValue(reflect.ValueOf(record))
}

// GetValue is Get for a reflected record.
func (a *Accessor) GetValue(record reflect.Value) (reflect.Value, bool) {
	v, ok := Indirect(record)
	if !ok || (a.shape.Kind() != reflect.Interface && v.Type() != a.shape) {
		return reflect.Value{}, false
	}

	for _, s := range a.steps {
		switch s.kind {
		case fieldStep:
			f, err := v.FieldByIndexErr(s.index)
			if err != nil {
				return reflect.Value{}, false
			}
			v = f
		case mapStep:
			v = mapIndex(v, s.key)
		case dynamicStep:
			return lookupDynamic(v, s.names)
		}
		if v, ok = Indirect(v); !ok {
			return reflect.Value{}, false
		}
	}
	return v, true
}

// Indirect strips pointers and interfaces. It reports false for invalid
// values and for nil pointers, interfaces, maps and slices.
func Indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if (v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
		return reflect.Value{}, false
	}
	return v, true
}

// Deref strips pointer indirections from t.
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func nullableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// embedsPointer reports whether a promoted field is reached through an
// embedded pointer, which may be nil.
func embedsPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = Deref(f.Type)
	}
	return false
}

// findField matches name against exported fields of t, including promoted
// ones. An exact Go name or json tag match wins over a case-folded one.
func findField(t reflect.Type, name string) (reflect.StructField, bool) {
	folder := cases.Fold()
	folded := folder.String(name)

	var (
		match reflect.StructField
		found bool
	)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || !promotedThroughExported(t, f.Index) {
			continue
		}
		for _, candidate := range fieldNames(f) {
			if candidate == name {
				return f, true
			}
			if !found && folder.String(candidate) == folded {
				match, found = f, true
			}
		}
	}
	return match, found
}

// promotedThroughExported reports whether every embedded field on the way to
// index is exported. Values read through an unexported embedding cannot be
// turned back into interfaces.
func promotedThroughExported(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if !f.IsExported() {
			return false
		}
		t = Deref(f.Type)
	}
	return true
}

func fieldNames(f reflect.StructField) []string {
	names := []string{f.Name}
	tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if tag != "" && tag != "-" && tag != f.Name {
		names = append(names, tag)
	}
	return names
}

// mapIndex looks key up exactly, then case-insensitively.
func mapIndex(m reflect.Value, key string) reflect.Value {
	kt := m.Type().Key()
	if v := m.MapIndex(reflect.ValueOf(key).Convert(kt)); v.IsValid() {
		return v
	}
	folder := cases.Fold()
	folded := folder.String(key)
	iter := m.MapRange()
	for iter.Next() {
		if folder.String(iter.Key().String()) == folded {
			return iter.Value()
		}
	}
	return reflect.Value{}
}

// lookupDynamic walks names through whatever v holds at runtime.
func lookupDynamic(v reflect.Value, names []string) (reflect.Value, bool) {
	var ok bool
	for _, name := range names {
		if v, ok = Indirect(v); !ok {
			return reflect.Value{}, false
		}
		switch v.Kind() {
		case reflect.Struct:
			f, found := findField(v.Type(), name)
			if !found {
				return reflect.Value{}, false
			}
			fv, err := v.FieldByIndexErr(f.Index)
			if err != nil {
				return reflect.Value{}, false
			}
			v = fv
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, false
			}
			v = mapIndex(v, name)
		default:
			return reflect.Value{}, false
		}
	}
	return Indirect(v)
}
