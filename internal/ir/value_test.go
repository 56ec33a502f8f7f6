package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"Aa": Int(5),
	}

	assert.Equal(t, []string{"A", "Aa", "a", "aa"}, obj.SortedKeys())
	assert.Empty(t, Object{}.SortedKeys())
}

func TestUnmarshalValueNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"int", `42`, Int(42)},
		{"negative int", `-7`, Int(-7)},
		{"large int keeps precision", `9007199254740993`, Int(9007199254740993)},
		{"float", `1.5`, Float(1.5)},
		{"exponent", `1e3`, Float(1000)},
		{"integral float literal", `2.0`, Float(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestUnmarshalValueNested(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a":[1,"x",null,true],"b":{"c":2.5}}`))
	require.NoError(t, err)

	expected := Object{
		"a": Array{Int(1), String("x"), Null{}, Bool(true)},
		"b": Object{"c": Float(2.5)},
	}
	assert.Equal(t, expected, v)
}

func TestUnmarshalValueRejectsTrailingData(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{} {}`))
	require.Error(t, err)
}

func TestObjectJSONRoundTrip(t *testing.T) {
	original := Object{
		"name":  String("widget"),
		"count": Int(3),
		"price": Float(9.5),
		"tags":  Array{String("a"), String("b")},
		"meta":  Object{"empty": Null{}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"meta":{"empty":null},"name":"widget","price":9.5,"tags":["a","b"]}`, string(data))

	var decoded Object
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestObjectUnmarshalRejectsNonObject(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"i":    7,
		"u":    uint8(3),
		"f":    float64(0.25),
		"s":    "str",
		"b":    false,
		"n":    nil,
		"list": []any{1, "two"},
		"yaml": map[any]any{"k": "v"},
	})
	require.NoError(t, err)

	expected := Object{
		"i":    Int(7),
		"u":    Int(3),
		"f":    Float(0.25),
		"s":    String("str"),
		"b":    Bool(false),
		"n":    Null{},
		"list": Array{Int(1), String("two")},
		"yaml": Object{"k": String("v")},
	}
	assert.Equal(t, expected, v)
}

func TestFromGoRejectsNonStringKeys(t *testing.T) {
	_, err := FromGo(map[any]any{1: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keys must be strings")
}

func TestToGo(t *testing.T) {
	got := ToGo(Object{
		"a": Int(1),
		"b": Array{Float(1.5), Null{}},
	})

	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": []any{1.5, nil},
	}, got)
}

func TestCloneIsDeep(t *testing.T) {
	original := Object{
		"nested": Object{"x": Int(1)},
		"list":   Array{Object{"y": Int(2)}},
	}

	clone := original.Clone()
	clone["nested"].(Object)["x"] = Int(99)
	clone["list"].(Array)[0].(Object)["y"] = Int(99)

	assert.Equal(t, Int(1), original["nested"].(Object)["x"])
	assert.Equal(t, Int(2), original["list"].(Array)[0].(Object)["y"])
	assert.Nil(t, Object(nil).Clone())
}
