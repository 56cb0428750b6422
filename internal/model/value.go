package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind 标记 Value 的具体类型
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindList
	KindMap
	// KindError 表示调用失败后的占位输出，序列化为 {"error": msg}
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value 能力无关的输入/输出载荷（标签联合）
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string // text 或 error 消息
	list []Value
	m    map[string]Value
}

func Null() Value { return Value{kind: KindNull} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func Text(s string) Value { return Value{kind: KindText, s: s} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }
func ErrorValue(msg string) Value { return Value{kind: KindError, s: msg} }

// Map 拷贝一份 map，保证 Value 不可变
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// FromError 把调用失败转换为 {error: msg}
func FromError(err error) Value {
	if err == nil {
		return Null()
	}
	return ErrorValue(err.Error())
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsError() bool { return v.kind == KindError }

// Text 返回文本值；非文本返回 ("", false)
func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// ErrorMessage 返回错误形态输出中的消息
func (v Value) ErrorMessage() (string, bool) {
	if v.kind != KindError {
		return "", false
	}
	return v.s, true
}

// Mapping 返回键值视图。错误形态也视为 {"error": msg} 映射参与比较。
func (v Value) Mapping() (map[string]Value, bool) {
	switch v.kind {
	case KindMap:
		return v.m, true
	case KindError:
		return map[string]Value{"error": Text(v.s)}, true
	default:
		return nil, false
	}
}

// Get 取映射中的字段
func (v Value) Get(key string) (Value, bool) {
	m, ok := v.Mapping()
	if !ok {
		return Value{}, false
	}
	item, ok := m[key]
	return item, ok
}

// Equal 深比较。错误形态与同内容的 {"error": "..."} 映射相等。
func (v Value) Equal(o Value) bool {
	if vm, ok := v.Mapping(); ok {
		om, ok := o.Mapping()
		if !ok || len(vm) != len(om) {
			return false
		}
		for k, item := range vm {
			other, ok := om[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindText:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface 转换为 encoding/json 的通用表示
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindText:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	case KindError:
		return map[string]any{"error": v.s}
	default:
		return nil
	}
}

// FromInterface 从 encoding/json 解码得到的通用值构造 Value
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Text(t.String())
		}
		return Number(f)
	case string:
		return Text(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromInterface(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = Text(item)
		}
		return List(items...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromInterface(item)
		}
		return Value{kind: KindMap, m: m}
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = Text(item)
		}
		return Value{kind: KindMap, m: m}
	default:
		// 其他类型走一遍 JSON，保持与日志中的表示一致
		b, err := json.Marshal(t)
		if err != nil {
			return Text(fmt.Sprint(t))
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return Text(string(b))
		}
		return FromInterface(generic)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON 解码任意 JSON。形如 {"error": "<msg>"} 的单键对象还原为错误形态。
func (v *Value) UnmarshalJSON(data []byte) error {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	*v = FromInterface(generic)
	if m, ok := generic.(map[string]any); ok && len(m) == 1 {
		if msg, ok := m["error"].(string); ok {
			*v = ErrorValue(msg)
		}
	}
	return nil
}

// Keys 映射键（排序后），用于稳定输出
func (v Value) Keys() []string {
	m, ok := v.Mapping()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) String() string {
	if v.kind == KindText {
		return v.s
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}
