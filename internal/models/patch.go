package models

import (
	"reflect"
	"strings"
)

// Field is one present value of a partial update, addressed both by its SQL
// column and by its document key.
type Field struct {
	Column string
	Key    string
	Value  any
}

// PatchFields lists the fields of a model pointer that carry a value: non-nil
// pointers, non-empty maps/slices and non-zero scalars. Fields tagged
// `patch:"-"` are keys or bookkeeping and are never part of a patch.
func PatchFields(model any) []Field {
	v := reflect.Indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	out := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("patch") == "-" {
			continue
		}
		fv := v.Field(i)
		if !present(fv) {
			continue
		}
		out = append(out, Field{Column: gormColumn(sf), Key: bsonKey(sf), Value: fv.Interface()})
	}
	return out
}

// ApplyPatch copies every present patchable field of src onto dst.
// Both must be pointers to the same struct type.
func ApplyPatch(dst, src any) {
	dv := reflect.Indirect(reflect.ValueOf(dst))
	sv := reflect.Indirect(reflect.ValueOf(src))
	if dv.Kind() != reflect.Struct || dv.Type() != sv.Type() {
		return
	}
	t := dv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("patch") == "-" {
			continue
		}
		if fv := sv.Field(i); present(fv) {
			dv.Field(i).Set(fv)
		}
	}
}

func present(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return !v.IsNil()
	case reflect.Map, reflect.Slice:
		return v.Len() > 0
	default:
		return !v.IsZero()
	}
}

func gormColumn(sf reflect.StructField) string {
	for _, part := range strings.Split(sf.Tag.Get("gorm"), ";") {
		if name, ok := strings.CutPrefix(part, "column:"); ok {
			return name
		}
	}
	return toSnake(sf.Name)
}

func bsonKey(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("bson"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(sf.Name)
	}
	return name
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
