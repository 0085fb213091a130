package parse

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueMarshal(t *testing.T) {
	when := time.Date(2024, 3, 4, 5, 6, 7, 890123456, time.FixedZone("CET", 3600))

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null(), `null`},
		{"zero value", Value{}, `null`},
		{"string", String("hi"), `"hi"`},
		{"int", Int(-3), `-3`},
		{"float", Float(2.5), `2.5`},
		{"bool", Bool(true), `true`},
		{"empty array", Array(), `[]`},
		{"array", Array(Int(1), String("a")), `[1,"a"]`},
		{"object sorted", ObjectValue(map[string]Value{"b": Int(2), "a": Int(1)}), `{"a":1,"b":2}`},
		{"pointer", PointerValue(NewPointer("Post", "p1")), `{"__type":"Pointer","className":"Post","objectId":"p1"}`},
		{"relation", RelationValue(Relation{ClassName: "Comment"}), `{"__type":"Relation","className":"Comment"}`},
		{"date", DateValue(when), `{"__type":"Date","iso":"2024-03-04T04:06:07.890Z"}`},
		{"file", FileValue(File{Name: "a.txt", URL: "http://x/a.txt"}), `{"__type":"File","name":"a.txt","url":"http://x/a.txt"}`},
		{"geopoint", GeoPointValue(GeoPoint{Latitude: 1.5, Longitude: -2}), `{"__type":"GeoPoint","latitude":1.5,"longitude":-2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestValueMarshalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := json.Marshal(Float(f))
		assert.Error(t, err)
	}
}

func TestValueUnmarshal(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "x",
		"n": 12345678901234,
		"f": 1.25,
		"ok": false,
		"nothing": null,
		"tags": ["a", "b"],
		"owner": {"__type": "Pointer", "className": "_User", "objectId": "u1"},
		"when": {"__type": "Date", "iso": "2024-01-02T03:04:05.678Z"},
		"pic": {"__type": "File", "name": "p.png", "url": "http://x/p.png"},
		"at": {"__type": "GeoPoint", "latitude": 10, "longitude": 20},
		"rel": {"__type": "Relation", "className": "Comment"},
		"nested": {"__type": "Unknown", "k": 1}
	}`), &v))

	obj, ok := v.AsObject()
	require.True(t, ok)

	s, ok := obj["name"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	n, ok := obj["n"].AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(12345678901234), n)

	f, ok := obj["f"].AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 1.25, f)
	_, ok = obj["f"].AsInt()
	assert.False(t, ok)

	b, ok := obj["ok"].AsBool()
	assert.True(t, ok)
	assert.False(t, b)

	assert.True(t, obj["nothing"].IsNull())

	tags, ok := obj["tags"].AsArray()
	require.True(t, ok)
	assert.Len(t, tags, 2)

	ptr, ok := obj["owner"].AsPointer()
	assert.True(t, ok)
	assert.Equal(t, NewPointer("_User", "u1"), ptr)

	when, ok := obj["when"].AsDate()
	assert.True(t, ok)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 678000000, time.UTC).Equal(when))

	pic, ok := obj["pic"].AsFile()
	assert.True(t, ok)
	assert.Equal(t, "p.png", pic.Name)

	at, ok := obj["at"].AsGeoPoint()
	assert.True(t, ok)
	assert.Equal(t, GeoPoint{Latitude: 10, Longitude: 20}, at)

	rel, ok := obj["rel"].AsRelation()
	assert.True(t, ok)
	assert.Equal(t, "Comment", rel.ClassName)

	assert.Equal(t, TypeObject, obj["nested"].Type())
}

func TestValueRoundTripKeepsTypedShapes(t *testing.T) {
	original := ObjectValue(map[string]Value{
		"owner": PointerValue(NewPointer("_User", "u1")),
		"when":  DateValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
		"big":   Int(9007199254740993),
	})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf(map[string]any{
		"a": 1,
		"b": []any{"x", true, nil},
		"c": 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x",true,null],"c":1.5}`, v.String())

	_, err = ValueOf(struct{}{})
	assert.Error(t, err)
}

func TestValueInterface(t *testing.T) {
	v := Array(Int(1), Float(1.5), String("s"), Null())
	assert.Equal(t, []any{int64(1), 1.5, "s", nil}, v.Interface())
}

func TestObjectValueCopiesInput(t *testing.T) {
	m := map[string]Value{"a": Int(1)}
	v := ObjectValue(m)
	m["b"] = Int(2)

	obj, _ := v.AsObject()
	assert.Len(t, obj, 1)
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso string", `"2024-05-01T10:00:00.000Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"date object", `{"__type":"Date","iso":"2024-05-01T10:00:00.123Z"}`, time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)},
		{"null", `null`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestAsIntRange(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   int64
		wantOK bool
	}{
		{"plain integer", "42", 42, true},
		{"integral exponent", "1e18", 1_000_000_000_000_000_000, true},
		{"min int64", "-9223372036854775808", math.MinInt64, true},
		{"integral float", "3.0", 3, true},
		{"fraction", "3.5", 0, false},
		{"too large", "1e30", 0, false},
		{"too small", "-1e30", 0, false},
		{"two to the 63", "9.223372036854775808e18", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Number(json.Number(tt.number)).AsInt()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}
