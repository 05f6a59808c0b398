package tplmgr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/skosovsky/tplmgr/internal/cast"
)

// defaultFuncMap returns the template.FuncMap used by TextCompiler.
func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"lookup":         lookup,
		"truncate_chars": truncateChars,
		"join":           join,
		"default":        defaultValue,
	}
}

// lookup resolves a dot-separated path in data. Missing segments yield "".
func lookup(data any, path string) any {
	cur := data
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return ""
		}
		cur = next
	}
	if cur == nil {
		return ""
	}
	return cur
}

func step(v any, seg string) (any, bool) {
	switch x := v.(type) {
	case map[string]any:
		r, ok := x[seg]
		return r, ok
	case map[string]string:
		r, ok := x[seg]
		return r, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		e := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !e.IsValid() {
			return nil, false
		}
		return e.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(seg)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	default:
		return nil, false
	}
}

// truncateChars truncates text to at most maxChars runes.
func truncateChars(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

// join concatenates a []string or []any of strings with sep.
func join(list any, sep string) (string, error) {
	if list == nil {
		return "", nil
	}
	ss, ok := cast.ToStringSlice(list)
	if !ok {
		return "", fmt.Errorf("join: expected []string, got %T", list)
	}
	return strings.Join(ss, sep), nil
}

// defaultValue returns def when v is nil, an empty string or a zero value.
// Argument order allows piping: {{ lookup . "x" | default "n/a" }}.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v
	default:
		if rv.IsZero() {
			return def
		}
	}
	return v
}
