package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// ValueType identifies the variant held by a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeString
	TypeNumber
	TypeBool
	TypeArray
	TypeObject
	TypePointer
	TypeRelation
	TypeDate
	TypeFile
	TypeGeoPoint
)

// String returns the string representation of a ValueType
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	case TypePointer:
		return "Pointer"
	case TypeRelation:
		return "Relation"
	case TypeDate:
		return "Date"
	case TypeFile:
		return "File"
	case TypeGeoPoint:
		return "GeoPoint"
	default:
		return "unknown"
	}
}

// isoLayout is the date layout the server writes and expects.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Pointer references an object in another class.
type Pointer struct {
	ClassName string
	ObjectID  string
}

// NewPointer creates a Pointer
func NewPointer(className, objectID string) Pointer {
	return Pointer{ClassName: className, ObjectID: objectID}
}

type pointerJSON struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectID  string `json:"objectId"`
}

// MarshalJSON implements json.Marshaler
func (p Pointer) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointerJSON{Type: "Pointer", ClassName: p.ClassName, ObjectID: p.ObjectID})
}

// Relation describes a relation field and its target class.
type Relation struct {
	ClassName string
}

// File references an uploaded file.
type File struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Value is a JSON value as understood by the server: the plain JSON variants
// plus the protocol's typed objects (Pointer, Relation, Date, File, GeoPoint).
// The zero Value is null.
type Value struct {
	typ  ValueType
	str  string
	num  json.Number
	b    bool
	arr  []Value
	obj  map[string]Value
	ptr  Pointer
	rel  Relation
	date time.Time
	file File
	geo  GeoPoint
}

// Null returns the null Value
func Null() Value { return Value{} }

// String returns a string Value
func String(s string) Value { return Value{typ: TypeString, str: s} }

// Int returns an integer Value
func Int(n int64) Value {
	return Value{typ: TypeNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

// Float returns a number Value. NaN and infinities fail to encode.
func Float(f float64) Value {
	return Value{typ: TypeNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Number returns a number Value from its JSON text
func Number(n json.Number) Value { return Value{typ: TypeNumber, num: n} }

// Bool returns a boolean Value
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Array returns an array Value
func Array(values ...Value) Value {
	arr := make([]Value, len(values))
	copy(arr, values)
	return Value{typ: TypeArray, arr: arr}
}

// Strings converts strings to Values, for use with ContainedIn and friends
func Strings(ss ...string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// ObjectValue returns an object Value holding a copy of m
func ObjectValue(m map[string]Value) Value {
	obj := make(map[string]Value, len(m))
	for k, v := range m {
		obj[k] = v
	}
	return Value{typ: TypeObject, obj: obj}
}

// PointerValue wraps a Pointer
func PointerValue(p Pointer) Value { return Value{typ: TypePointer, ptr: p} }

// RelationValue wraps a Relation
func RelationValue(r Relation) Value { return Value{typ: TypeRelation, rel: r} }

// DateValue wraps a time as a Date, truncated to milliseconds in UTC
func DateValue(t time.Time) Value {
	return Value{typ: TypeDate, date: t.UTC().Truncate(time.Millisecond)}
}

// FileValue wraps a File
func FileValue(f File) Value { return Value{typ: TypeFile, file: f} }

// GeoPointValue wraps a GeoPoint
func GeoPointValue(g GeoPoint) Value { return Value{typ: TypeGeoPoint, geo: g} }

// ValueOf converts common Go values into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return Number(x), nil
	case time.Time:
		return DateValue(x), nil
	case Pointer:
		return PointerValue(x), nil
	case Relation:
		return RelationValue(x), nil
	case File:
		return FileValue(x), nil
	case GeoPoint:
		return GeoPointValue(x), nil
	case []string:
		return Array(Strings(x...)...), nil
	case []Value:
		return Array(x...), nil
	case []any:
		arr := make([]Value, len(x))
		for i, item := range x {
			iv, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = iv
		}
		return Value{typ: TypeArray, arr: arr}, nil
	case map[string]Value:
		return ObjectValue(x), nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			iv, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = iv
		}
		return Value{typ: TypeObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// Type returns the variant held by v
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsString returns the string held by v
func (v Value) AsString() (string, bool) { return v.str, v.typ == TypeString }

// AsInt returns v as an integer when it holds an integral number
func (v Value) AsInt() (int64, bool) {
	if v.typ != TypeNumber {
		return 0, false
	}
	if n, err := v.num.Int64(); err == nil {
		return n, true
	}
	f, err := v.num.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// AsFloat returns v as a float when it holds a number
func (v Value) AsFloat() (float64, bool) {
	if v.typ != TypeNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// AsBool returns the boolean held by v
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsArray returns the elements held by v
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.typ == TypeArray }

// AsObject returns the members held by v
func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.typ == TypeObject }

// AsPointer returns the Pointer held by v
func (v Value) AsPointer() (Pointer, bool) { return v.ptr, v.typ == TypePointer }

// AsRelation returns the Relation held by v
func (v Value) AsRelation() (Relation, bool) { return v.rel, v.typ == TypeRelation }

// AsDate returns the time held by v
func (v Value) AsDate() (time.Time, bool) { return v.date, v.typ == TypeDate }

// AsFile returns the File held by v
func (v Value) AsFile() (File, bool) { return v.file, v.typ == TypeFile }

// AsGeoPoint returns the GeoPoint held by v
func (v Value) AsGeoPoint() (GeoPoint, bool) { return v.geo, v.typ == TypeGeoPoint }

// Interface converts v into plain Go values: nil, string, int64 or float64,
// bool, []any, map[string]any, Pointer, Relation, time.Time, File, GeoPoint.
func (v Value) Interface() any {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeNumber:
		if n, err := v.num.Int64(); err == nil {
			return n
		}
		f, _ := v.num.Float64()
		return f
	case TypeBool:
		return v.b
	case TypeArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case TypeObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	case TypePointer:
		return v.ptr
	case TypeRelation:
		return v.rel
	case TypeDate:
		return v.date
	case TypeFile:
		return v.file
	case TypeGeoPoint:
		return v.geo
	default:
		return nil
	}
}

// Equal reports whether v and o encode to the same JSON
func (v Value) Equal(o Value) bool {
	a, errA := json.Marshal(v)
	b, errB := json.Marshal(o)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// String returns the JSON text of v
func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<invalid %s>", v.typ)
	}
	return string(b)
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNull:
		return []byte("null"), nil
	case TypeString:
		return json.Marshal(v.str)
	case TypeNumber:
		f, err := v.num.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("invalid number %q", string(v.num))
		}
		return []byte(v.num), nil
	case TypeBool:
		return json.Marshal(v.b)
	case TypeArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case TypeObject:
		return marshalObject(v.obj)
	case TypePointer:
		return json.Marshal(v.ptr)
	case TypeRelation:
		return json.Marshal(map[string]string{"__type": "Relation", "className": v.rel.ClassName})
	case TypeDate:
		return json.Marshal(map[string]string{"__type": "Date", "iso": v.date.UTC().Format(isoLayout)})
	case TypeFile:
		return json.Marshal(struct {
			Type string `json:"__type"`
			File
		}{Type: "File", File: v.file})
	case TypeGeoPoint:
		return json.Marshal(struct {
			Type string `json:"__type"`
			GeoPoint
		}{Type: "GeoPoint", GeoPoint: v.geo})
	default:
		return nil, fmt.Errorf("unknown value type %d", v.typ)
	}
}

// marshalObject writes members in sorted key order.
func marshalObject(obj map[string]Value) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := obj[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromDecoded(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// fromDecoded converts the output of a UseNumber decode into a Value,
// recognising the protocol's "__type" objects.
func fromDecoded(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case json.Number:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i, item := range x {
			iv, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			arr[i] = iv
		}
		return Value{typ: TypeArray, arr: arr}, nil
	case map[string]any:
		if typed, ok, err := fromTypedObject(x); ok || err != nil {
			return typed, err
		}
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			iv, err := fromDecoded(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = iv
		}
		return Value{typ: TypeObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("unexpected JSON value %T", raw)
	}
}

func fromTypedObject(m map[string]any) (Value, bool, error) {
	typ, _ := m["__type"].(string)
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	num := func(key string) float64 {
		n, _ := m[key].(json.Number)
		f, _ := n.Float64()
		return f
	}

	switch typ {
	case "Pointer":
		return PointerValue(Pointer{ClassName: str("className"), ObjectID: str("objectId")}), true, nil
	case "Relation":
		return RelationValue(Relation{ClassName: str("className")}), true, nil
	case "Date":
		t, err := parseTimestamp(str("iso"))
		if err != nil {
			return Value{}, true, fmt.Errorf("invalid Date: %w", err)
		}
		return Value{typ: TypeDate, date: t}, true, nil
	case "File":
		return FileValue(File{Name: str("name"), URL: str("url")}), true, nil
	case "GeoPoint":
		return GeoPointValue(GeoPoint{Latitude: num("latitude"), Longitude: num("longitude")}), true, nil
	default:
		return Value{}, false, nil
	}
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Timestamp decodes the server's createdAt/updatedAt fields, which arrive
// either as ISO strings or as Date objects.
type Timestamp struct {
	time.Time
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(isoLayout))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	switch v.typ {
	case TypeNull:
		t.Time = time.Time{}
	case TypeString:
		parsed, err := parseTimestamp(v.str)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", v.str, err)
		}
		t.Time = parsed
	case TypeDate:
		t.Time = v.date
	default:
		return fmt.Errorf("invalid timestamp of type %s", v.typ)
	}
	return nil
}
