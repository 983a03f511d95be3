package domain

import (
	"fmt"
	"maps"
	"math"
	"strconv"
)

// Value is a named configuration value. Values are scalars: string, int, float64 or bool.
type Value = any

// Entries maps configuration keys to values
type Entries map[string]Value

// Clone returns a shallow copy
func (e Entries) Clone() Entries {
	if e == nil {
		return Entries{}
	}
	return maps.Clone(e)
}

// Configuration keys
const (
	KeyCACommonName = "ca.cn"
	KeyCAValid      = "ca.valid"
	KeyClientCount  = "client.count"
	KeyClientValid  = "client.valid"
	KeyServerHost   = "server.host"
)

// FieldKind describes how a field's text is interpreted
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
)

// Field describes one editable value on a surface
type Field struct {
	Key   string
	Label string
	Tab   string
	Kind  FieldKind
}

// Seed is one entry of the store's initial population
type Seed struct {
	Key   string
	Value Value
}

// Fields is the form schema, in tab order
var Fields = []Field{
	{Key: KeyCACommonName, Label: "Common name", Tab: "CA", Kind: FieldString},
	{Key: KeyCAValid, Label: "Valid in years", Tab: "CA", Kind: FieldInt},
	{Key: KeyClientCount, Label: "Number of clients", Tab: "Clients", Kind: FieldInt},
	{Key: KeyClientValid, Label: "Valid in years", Tab: "Clients", Kind: FieldInt},
	{Key: KeyServerHost, Label: "Server host", Tab: "Settings", Kind: FieldString},
}

// DefaultSeeds returns the store's initial population
func DefaultSeeds() []Seed {
	return []Seed{
		{Key: KeyCACommonName, Value: "MyCA"},
		{Key: KeyCAValid, Value: 3653},
		{Key: KeyClientCount, Value: 1},
		{Key: KeyClientValid, Value: 3653},
		{Key: KeyServerHost, Value: "127.0.0.1"},
	}
}

// Tabs returns the distinct tab names of fields, in first-seen order
func Tabs(fields []Field) []string {
	var tabs []string
	seen := make(map[string]bool)
	for _, f := range fields {
		if !seen[f.Tab] {
			seen[f.Tab] = true
			tabs = append(tabs, f.Tab)
		}
	}
	return tabs
}

// FieldByKey looks up a field by key
func FieldByKey(fields []Field, key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Normalize folds decoder-specific numeric types into int or float64
// so values from TOML, YAML and Go literals compare equal.
func Normalize(v Value) Value {
	switch n := v.(type) {
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return foldUnsigned(uint64(n))
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return foldUnsigned(uint64(n))
	case uint64:
		return foldUnsigned(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// foldUnsigned keeps n as an int when it fits and as a float64 otherwise
func foldUnsigned(n uint64) Value {
	if n > math.MaxInt {
		return float64(n)
	}
	return int(n)
}

// Equal reports whether two values are the same after normalization
func Equal(a, b Value) bool {
	a, b = Normalize(a), Normalize(b)
	switch a.(type) {
	case string, int, float64, bool, nil:
		return a == b
	default:
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}

// Format renders a value for display in a text cell
func Format(v Value) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(Normalize(v))
}

// Parse converts cell text into a value of the field's kind
func Parse(kind FieldKind, text string) (Value, error) {
	switch kind {
	case FieldInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", text, err)
		}
		return n, nil
	default:
		return text, nil
	}
}
