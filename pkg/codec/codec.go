// Package codec turns records into the string values held by the durable
// key-value store and back. The stores only ever see strings; the codec
// decides how a record is laid out inside one.
//
// Package codec 将记录转换为持久键值存储中保存的字符串值，并可反向转换。
// 存储只看到字符串；编解码器决定记录在字符串中的布局。
package codec

import (
	"encoding/json"
	"fmt"
)

// Codec encodes records for the durable store.
//
// Codec 为持久存储编码记录。
type Codec interface {
	// Marshal encodes value. / Marshal 编码value。
	Marshal(value interface{}) ([]byte, error)

	// Unmarshal decodes data into the value pointed to by value.
	// Unmarshal 将data解码到value指向的值中。
	Unmarshal(data []byte, value interface{}) error

	// Name identifies the codec in configuration. / Name 在配置中标识编解码器。
	Name() string
}

// JSONCodec stores records as JSON documents, the format a browser's local
// storage holds as well.
//
// JSONCodec 将记录存储为JSON文档，这也是浏览器本地存储所保存的格式。
type JSONCodec struct {
	// Indent makes stored documents human-readable. / Indent 使存储的文档易于阅读。
	Indent bool
}

func (c *JSONCodec) Marshal(value interface{}) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(value, "", "  ")
	}
	return json.Marshal(value)
}

func (c *JSONCodec) Unmarshal(data []byte, value interface{}) error {
	return json.Unmarshal(data, value)
}

func (c *JSONCodec) Name() string {
	if c.Indent {
		return "json-indent"
	}
	return "json"
}

// DefaultCodec returns compact JSON.
//
// DefaultCodec 返回紧凑JSON。
func DefaultCodec() Codec {
	return &JSONCodec{}
}

// ByName returns the codec registered under name; "" selects the default.
//
// ByName 返回以name注册的编解码器；""选择默认值。
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return &JSONCodec{}, nil
	case "json-indent":
		return &JSONCodec{Indent: true}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// Encode renders v as a store value.
//
// Encode 将v渲染为存储值。
func Encode[T any](c Codec, v T) (string, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("codec %s: encode: %w", c.Name(), err)
	}
	return string(data), nil
}

// Decode parses a store value into a T. The caller decides what an
// undecodable value means.
//
// Decode 将存储值解析为T。由调用者决定无法解码的值意味着什么。
func Decode[T any](c Codec, raw string) (T, error) {
	var v T
	if err := c.Unmarshal([]byte(raw), &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
