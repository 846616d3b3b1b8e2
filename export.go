package rowan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ValueKind enumerates the closed set of types an export variable or global
// variable can hold.
type ValueKind uint8

const (
	ValueBool ValueKind = iota
	ValueInt
	ValueFloat
	ValueString
	ValueVec2
	ValueVec3
	ValueVec4
	ValueColor    // vec4 stored RGBA, gets a color picker in the editor
	ValueFilePath // string, gets a file browser in the editor
	ValueNodeRef  // UUID of a node, resolved lazily through the scene index
	ValueEnum     // int index into an option list
)

// String returns the serialized name of the kind.
func (k ValueKind) String() string {
	switch k {
	case ValueBool:
		return "bool"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueString:
		return "string"
	case ValueVec2:
		return "vec2"
	case ValueVec3:
		return "vec3"
	case ValueVec4:
		return "vec4"
	case ValueColor:
		return "color"
	case ValueFilePath:
		return "filepath"
	case ValueNodeRef:
		return "noderef"
	case ValueEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// valueKindFromString maps a serialized kind name back to a ValueKind.
func valueKindFromString(s string) (ValueKind, bool) {
	switch s {
	case "bool":
		return ValueBool, true
	case "int":
		return ValueInt, true
	case "float":
		return ValueFloat, true
	case "string":
		return ValueString, true
	case "vec2":
		return ValueVec2, true
	case "vec3":
		return ValueVec3, true
	case "vec4":
		return ValueVec4, true
	case "color":
		return ValueColor, true
	case "filepath":
		return ValueFilePath, true
	case "noderef":
		return ValueNodeRef, true
	case "enum":
		return ValueEnum, true
	default:
		return ValueString, false
	}
}

// Value is a tagged union over the export-variable type set. Exactly one
// payload field is meaningful, selected by Kind. The zero value is a false
// bool.
type Value struct {
	Kind ValueKind

	B   bool
	I   int
	F   float64
	S   string
	V2  mgl32.Vec2
	V3  mgl32.Vec3
	V4  mgl32.Vec4
	Ref uuid.UUID
}

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, B: b} }

// IntValue wraps an int.
func IntValue(i int) Value { return Value{Kind: ValueInt, I: i} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, F: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: ValueString, S: s} }

// Vec2Value wraps a 2D vector.
func Vec2Value(v mgl32.Vec2) Value { return Value{Kind: ValueVec2, V2: v} }

// Vec3Value wraps a 3D vector.
func Vec3Value(v mgl32.Vec3) Value { return Value{Kind: ValueVec3, V3: v} }

// Vec4Value wraps a 4D vector.
func Vec4Value(v mgl32.Vec4) Value { return Value{Kind: ValueVec4, V4: v} }

// ColorValue wraps an RGBA color.
func ColorValue(c Color) Value { return Value{Kind: ValueColor, V4: c.Vec4()} }

// FilePathValue wraps a file path string.
func FilePathValue(p string) Value { return Value{Kind: ValueFilePath, S: p} }

// NodeRefValue wraps a node reference. uuid.Nil means "unset".
func NodeRefValue(id uuid.UUID) Value { return Value{Kind: ValueNodeRef, Ref: id} }

// EnumValue wraps an enum index.
func EnumValue(i int) Value { return Value{Kind: ValueEnum, I: i} }

// Color interprets a color value. Valid for ValueColor and ValueVec4.
func (v Value) Color() Color { return ColorFromVec4(v.V4) }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueBool:
		return v.B == o.B
	case ValueInt, ValueEnum:
		return v.I == o.I
	case ValueFloat:
		return v.F == o.F
	case ValueString, ValueFilePath:
		return v.S == o.S
	case ValueVec2:
		return v.V2 == o.V2
	case ValueVec3:
		return v.V3 == o.V3
	case ValueVec4, ValueColor:
		return v.V4 == o.V4
	case ValueNodeRef:
		return v.Ref == o.Ref
	}
	return false
}

// String serializes the payload as the space-separated text form used by the
// globals file and the legacy export-variable encoding.
func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return strconv.FormatBool(v.B)
	case ValueInt, ValueEnum:
		return strconv.Itoa(v.I)
	case ValueFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case ValueString, ValueFilePath:
		return v.S
	case ValueVec2:
		return fmt.Sprintf("%g %g", v.V2[0], v.V2[1])
	case ValueVec3:
		return fmt.Sprintf("%g %g %g", v.V3[0], v.V3[1], v.V3[2])
	case ValueVec4, ValueColor:
		return fmt.Sprintf("%g %g %g %g", v.V4[0], v.V4[1], v.V4[2], v.V4[3])
	case ValueNodeRef:
		return v.Ref.String()
	}
	return ""
}

// ParseValue parses the text form produced by Value.String back into a value
// of the given kind. Malformed input yields the kind's zero value and an error.
func ParseValue(kind ValueKind, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch kind {
	case ValueBool:
		return BoolValue(s == "true" || s == "1"), nil
	case ValueInt, ValueEnum:
		i, err := strconv.Atoi(s)
		if err != nil {
			return Value{Kind: kind}, fmt.Errorf("parse %s %q: %w", kind, s, err)
		}
		return Value{Kind: kind, I: i}, nil
	case ValueFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{Kind: kind}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return FloatValue(f), nil
	case ValueString:
		return StringValue(s), nil
	case ValueFilePath:
		return FilePathValue(s), nil
	case ValueVec2:
		f, err := parseFloats(s, 2)
		if err != nil {
			return Value{Kind: kind}, err
		}
		return Vec2Value(mgl32.Vec2{f[0], f[1]}), nil
	case ValueVec3:
		f, err := parseFloats(s, 3)
		if err != nil {
			return Value{Kind: kind}, err
		}
		return Vec3Value(mgl32.Vec3{f[0], f[1], f[2]}), nil
	case ValueVec4, ValueColor:
		f, err := parseFloats(s, 4)
		if err != nil {
			return Value{Kind: kind}, err
		}
		return Value{Kind: kind, V4: mgl32.Vec4{f[0], f[1], f[2], f[3]}}, nil
	case ValueNodeRef:
		if s == "" {
			return NodeRefValue(uuid.Nil), nil
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return Value{Kind: kind}, fmt.Errorf("parse noderef %q: %w", s, err)
		}
		return NodeRefValue(id), nil
	}
	return Value{}, fmt.Errorf("unknown value kind %d", kind)
}

// parseFloats splits s on spaces or commas and parses exactly n components.
func parseFloats(s string, n int) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components in %q, got %d", n, s, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("parse component %d of %q: %w", i, s, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// ExportVariable is an editor-facing typed field on a component. The current
// value and default value always share the declared kind.
type ExportVariable struct {
	Name        string
	Kind        ValueKind
	Value       Value
	Default     Value
	Description string
	EnumOptions []string // only for ValueEnum
}

// ExportVars is the ordered export-variable set of a component. Order is the
// declaration order, which the editor and serializer both preserve.
type ExportVars struct {
	vars  []*ExportVariable
	index map[string]*ExportVariable
}

// Add declares a new export variable with the given initial (and default)
// value. Redeclaring a name overwrites the declaration but keeps its position.
func (e *ExportVars) Add(name string, value Value, description string) *ExportVariable {
	if e.index == nil {
		e.index = make(map[string]*ExportVariable)
	}
	if existing, ok := e.index[name]; ok {
		existing.Kind = value.Kind
		existing.Value = value
		existing.Default = value
		existing.Description = description
		return existing
	}
	v := &ExportVariable{
		Name:        name,
		Kind:        value.Kind,
		Value:       value,
		Default:     value,
		Description: description,
	}
	e.vars = append(e.vars, v)
	e.index[name] = v
	return v
}

// AddEnum declares an enum export variable with its option list.
func (e *ExportVars) AddEnum(name string, value int, options []string, description string) *ExportVariable {
	v := e.Add(name, EnumValue(value), description)
	v.EnumOptions = options
	return v
}

// Set updates the current value of a declared variable. The new value's kind
// must match the declared kind; a mismatch leaves the variable untouched.
func (e *ExportVars) Set(name string, value Value) error {
	v, ok := e.index[name]
	if !ok {
		return fmt.Errorf("export variable %q not declared", name)
	}
	if value.Kind != v.Kind {
		return fmt.Errorf("export variable %q is %s, got %s", name, v.Kind, value.Kind)
	}
	v.Value = value
	return nil
}

// Get returns the current value of a variable and whether it is declared.
func (e *ExportVars) Get(name string) (Value, bool) {
	v, ok := e.index[name]
	if !ok {
		return Value{}, false
	}
	return v.Value, true
}

// Reset restores a variable to its default value.
func (e *ExportVars) Reset(name string) bool {
	v, ok := e.index[name]
	if !ok {
		return false
	}
	v.Value = v.Default
	return true
}

// All returns the variables in declaration order. The returned slice MUST NOT
// be mutated by the caller.
func (e *ExportVars) All() []*ExportVariable {
	return e.vars
}

// Len returns the number of declared variables.
func (e *ExportVars) Len() int {
	return len(e.vars)
}
