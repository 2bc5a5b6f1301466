package postgres

import (
	"reflect"
	"sync"
)

// Row maps column names to the values of one record.
type Row map[string]any

// Values returns the row's values in cols order; absent columns are nil.
func (r Row) Values(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// column is one "db"-tagged field, addressed by its index path so fields
// promoted from embedded structs such as entity.Document resolve directly.
type column struct {
	name  string
	index []int
}

var shapes sync.Map // reflect.Type -> []column

func shapeOf(t reflect.Type) []column {
	if cached, ok := shapes.Load(t); ok {
		return cached.([]column)
	}
	cols := walk(t, nil)
	shapes.Store(t, cols)
	return cols
}

func walk(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := range t.NumField() {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, walk(f.Type, path)...)
			continue
		}
		if name := f.Tag.Get("db"); name != "" && name != "-" {
			cols = append(cols, column{name: name, index: path})
		}
	}
	return cols
}

func structType(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}

// Columns lists the "db" column names of T in declaration order, embedded
// structs inlined at their position.
func Columns[T any]() []string {
	t, ok := structType(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	shape := shapeOf(t)
	names := make([]string, len(shape))
	for i, c := range shape {
		names[i] = c.name
	}
	return names
}

// RowOf reads the "db"-tagged fields of a struct or struct pointer.
// It returns nil for anything else.
func RowOf(v any) Row {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	shape := shapeOf(rv.Type())
	row := make(Row, len(shape))
	for _, c := range shape {
		row[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return row
}
