package core

import (
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// ColumnTag is the struct tag that marks an import target: `xlsx:"<column>"`.
const ColumnTag = "xlsx"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// TaggedSchema derives a Schema from the `xlsx` struct tags of T.
//
// A tagged field is assigned through a method Set<Field>Import(string) error
// or Set<Field>(string) error on *T, first match wins; such setters carry the
// coercion and validation for typed fields. Otherwise the field must be an
// exported string and receives the cell text as is.
//
//	type User struct {
//	    Username string    `xlsx:"0"`
//	    Age      int       `xlsx:"1"` // via (*User).SetAgeImport(string) error
//	}
func TaggedSchema[T any]() (FieldList[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, &ConfigError{Err: fmt.Errorf("record type %s is not a struct", t)}
	}
	ptr := reflect.PointerTo(t)

	var fields FieldList[T]
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		col, ok := sf.Tag.Lookup(ColumnTag)
		if !ok || col == "-" {
			continue
		}

		set, err := tagSetter[T](ptr, sf)
		if err != nil {
			return nil, &ConfigError{Column: col, Field: sf.Name, Err: err}
		}
		fields = append(fields, Field[T]{Column: col, Name: sf.Name, Set: set})
	}

	return fields, nil
}

func tagSetter[T any](ptr reflect.Type, sf reflect.StructField) (func(*T, string) error, error) {
	if m, ok := setterMethod(ptr, sf.Name); ok {
		mt := m.Type
		if mt.NumIn() != 2 || mt.In(1).Kind() != reflect.String || mt.NumOut() != 1 || mt.Out(0) != errorType {
			return nil, fmt.Errorf("%s must have signature func(string) error", m.Name)
		}
		fn := m.Func
		return func(rec *T, text string) error {
			out := fn.Call([]reflect.Value{reflect.ValueOf(rec), reflect.ValueOf(text)})
			if err, _ := out[0].Interface().(error); err != nil {
				return err
			}
			return nil
		}, nil
	}

	if !sf.IsExported() {
		return nil, errors.New("unexported field needs a setter method")
	}
	if sf.Type.Kind() != reflect.String {
		return nil, fmt.Errorf("%s field needs a %s(string) error method", sf.Type, setterName(sf.Name))
	}

	index := sf.Index
	return func(rec *T, text string) error {
		reflect.ValueOf(rec).Elem().FieldByIndex(index).SetString(text)
		return nil
	}, nil
}

func setterMethod(ptr reflect.Type, field string) (reflect.Method, bool) {
	name := setterName(field)
	if m, ok := ptr.MethodByName(name + "Import"); ok {
		return m, true
	}
	return ptr.MethodByName(name)
}

// setterName returns "Set" followed by name with its first letter upper-cased,
// so both Age and age resolve to SetAge.
func setterName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return "Set" + string(unicode.ToUpper(r)) + name[size:]
}
