package memo

import (
	"reflect"
	"slices"
)

var (
	hashableType    = reflect.TypeFor[Hashable]()
	reflectTypeType = reflect.TypeFor[reflect.Type]()
)

// HashValue writes the structural hash of v into h.
//
// Structs hash field by field in declaration order, arrays element-wise,
// slices as length then elements, pointers as an Option (1 and the
// pointee, or 0), maps with entries sorted by key hash, interfaces as the
// dynamic type name then the value. Types implementing Hashable are hashed
// by their own method.
func HashValue(h *Hasher, v any) {
	if v == nil {
		h.WriteUint8(0)
		return
	}
	hashReflect(h, reflect.ValueOf(v))
}

func hashReflect(h *Hasher, v reflect.Value) {
	if !v.IsValid() {
		h.WriteUint8(0)
		return
	}
	if v.CanInterface() {
		t := v.Type()
		if t.Implements(hashableType) && !(t.Kind() == reflect.Pointer && t.Elem().Implements(hashableType)) {
			if t.Kind() != reflect.Pointer || !v.IsNil() {
				v.Interface().(Hashable).HashInto(h)
				return
			}
		}
		if v.Type().Implements(reflectTypeType) {
			h.WriteString(v.Interface().(reflect.Type).String())
			return
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		h.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.WriteInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.WriteUint64(v.Uint())
	case reflect.Float32:
		h.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		h.WriteFloat64(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		h.WriteFloat64(real(c))
		h.WriteFloat64(imag(c))
	case reflect.String:
		h.WriteString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			h.WriteBytes(v.Bytes())
			return
		}
		fallthrough
	case reflect.Array:
		if v.Kind() == reflect.Slice {
			h.WriteLen(v.Len())
		}
		for i := range v.Len() {
			hashReflect(h, v.Index(i))
		}
	case reflect.Struct:
		for i := range v.NumField() {
			hashReflect(h, v.Field(i))
		}
	case reflect.Pointer:
		if v.IsNil() {
			h.WriteUint8(0)
			return
		}
		h.WriteUint8(1)
		hashReflect(h, v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			h.WriteUint8(0)
			return
		}
		h.WriteUint8(1)
		h.WriteString(v.Elem().Type().String())
		hashReflect(h, v.Elem())
	case reflect.Map:
		hashMap(h, v)
	default:
		// Functions, channels and unsafe pointers have no stable content.
		h.WriteString(v.Type().String())
	}
}

func hashMap(h *Hasher, v reflect.Value) {
	type entry struct {
		key uint64
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		kh := NewHasher()
		hashReflect(kh, iter.Key())
		entries = append(entries, entry{key: kh.Sum64(), val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	h.WriteLen(len(entries))
	for _, e := range entries {
		h.WriteUint64(e.key)
		hashReflect(h, e.val)
	}
}
