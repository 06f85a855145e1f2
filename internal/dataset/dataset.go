package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Record is a single instruction/input/output triple from the source dataset
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// IndexField is the key attached to every translated output line
const IndexField = "index"

// recordFields fixes the position of the payload keys in encoded lines
var recordFields = []string{"instruction", "input", "output"}

// Load reads the whole source dataset. The file must hold a JSON array of
// objects; fields are not validated beyond their JSON type.
func Load(path string) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if records == nil {
		return nil, fmt.Errorf("dataset %s is not a JSON array", path)
	}

	return records, nil
}

// EncodeBatch serializes records for inclusion in a prompt. Non-ASCII text
// is kept as-is.
func EncodeBatch(records []Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("failed to encode batch: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Object is a decoded JSON object whose values are kept raw
type Object map[string]json.RawMessage

// IsObject reports whether raw holds a JSON object
func IsObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// DecodeObject decodes raw into an Object. It fails for anything that is
// not a JSON object.
func DecodeObject(raw []byte) (Object, error) {
	if !IsObject(raw) {
		return nil, fmt.Errorf("not a JSON object")
	}
	var obj Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// EncodeTranslated renders obj as one compact line with the given index
// appended. Any index already present in obj is replaced.
func EncodeTranslated(obj Object, index int) ([]byte, error) {
	return encodeObject(obj, &index)
}

// EncodePlain renders obj without its index field
func EncodePlain(obj Object) ([]byte, error) {
	return encodeObject(obj, nil)
}

func encodeObject(obj Object, index *int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string, value []byte) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeString(&buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		return json.Compact(&buf, value)
	}

	for _, key := range recordFields {
		if value, ok := obj[key]; ok {
			if err := writeField(key, value); err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
		}
	}

	extra := make([]string, 0, len(obj))
	for key := range obj {
		if key == IndexField || isRecordField(key) {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		if err := writeField(key, obj[key]); err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
	}

	if index != nil {
		if err := writeField(IndexField, []byte(fmt.Sprintf("%d", *index))); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isRecordField(key string) bool {
	for _, f := range recordFields {
		if f == key {
			return true
		}
	}
	return false
}

// writeString writes s as a JSON string without HTML escaping
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
