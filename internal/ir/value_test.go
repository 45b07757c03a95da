package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"Aa": Int(4),
	}

	assert.Equal(t, []string{"A", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestUint(t *testing.T) {
	assert.Equal(t, Int(15), Uint(15))
	assert.Equal(t, String("18446744073709551615"), Uint(math.MaxUint64))
}

func TestParseValueRejectsFloats(t *testing.T) {
	_, err := ParseValue([]byte(`{"price": 1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")
}

func TestParseValueRejectsNull(t *testing.T) {
	_, err := ParseValue([]byte(`{"owner": null}`))
	require.Error(t, err)
}

func TestObjectJSONRoundTrip(t *testing.T) {
	obj := Object{
		"op":      String("sell"),
		"qty":     Int(3),
		"ok":      Bool(true),
		"signers": Array{String("alice"), String("bob")},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true,"op":"sell","qty":3,"signers":["alice","bob"]}`, string(data))

	var decoded Object
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, obj, decoded)
}

func TestFromAnyYAMLShapes(t *testing.T) {
	v, err := FromAny(map[string]any{
		"quantity": 2,
		"seeds":    []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, Object{
		"quantity": Int(2),
		"seeds":    Array{String("a"), String("b")},
	}, v)
}
