package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind Kind
	}{
		{"null", `null`, KindNull},
		{"bool", `true`, KindBool},
		{"number", `1.5`, KindNumber},
		{"text", `"hi"`, KindText},
		{"list", `[1,"a",null]`, KindList},
		{"map", `{"a":{"b":[1]}}`, KindMap},
		{"error", `{"error":"boom"}`, KindError},
		{"error 以外的多键映射", `{"error":"boom","code":1}`, KindMap},
		{"error 值不是字符串", `{"error":1}`, KindMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(tt.json), &v))
			assert.Equal(t, tt.kind, v.Kind())

			b, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(b))
		})
	}
}

func TestValue_ErrorShape(t *testing.T) {
	v := FromError(errors.New("timeout"))
	assert.True(t, v.IsError())

	msg, ok := v.ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "timeout", msg)

	m, ok := v.Mapping()
	require.True(t, ok)
	assert.True(t, m["error"].Equal(Text("timeout")))

	assert.True(t, v.Equal(Map(map[string]Value{"error": Text("timeout")})))
	assert.False(t, v.Equal(Text("timeout")))
	assert.Equal(t, []string{"error"}, v.Keys())
	assert.Equal(t, KindNull, FromError(nil).Kind())
}

func TestValue_Equal(t *testing.T) {
	a := FromInterface(map[string]any{"items": []any{"tomato", 100}, "ok": true})
	b := FromInterface(map[string]any{"ok": true, "items": []any{"tomato", 100.0}})
	c := FromInterface(map[string]any{"ok": true, "items": []any{"tomato", 101}})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Number(1).Equal(Text("1")))
	assert.True(t, Null().Equal(Value{}))
}

func TestValue_MapCopies(t *testing.T) {
	src := map[string]Value{"a": Number(1)}
	v := Map(src)
	src["a"] = Number(2)

	got, ok := v.Get("a")
	require.True(t, ok)
	assert.True(t, got.Equal(Number(1)))
}

func TestFromInterface_Struct(t *testing.T) {
	type shipment struct {
		Item  string `json:"item"`
		Price int    `json:"price"`
	}
	v := FromInterface(shipment{Item: "egg", Price: 200})
	assert.Equal(t, KindMap, v.Kind())
	assert.Equal(t, []string{"item", "price"}, v.Keys())
	assert.Equal(t, `{"item":"egg","price":200}`, v.String())
	assert.Equal(t, "plain", Text("plain").String())
}

func TestValue_Accessors(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`[true, 2.5, "x", [1]]`), &v))

	items, ok := v.List()
	require.True(t, ok)
	require.Len(t, items, 4)

	b, ok := items[0].Bool()
	assert.True(t, ok)
	assert.True(t, b)

	n, ok := items[1].Number()
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)

	// 类型不符时返回零值与 false
	_, ok = items[2].Number()
	assert.False(t, ok)
	_, ok = items[1].Bool()
	assert.False(t, ok)
	_, ok = items[2].List()
	assert.False(t, ok)

	inner, ok := items[3].List()
	require.True(t, ok)
	assert.True(t, inner[0].Equal(Number(1)))
}
