// Package output serializes pipeline results to JSON files.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrInvalidJSON is returned when a raw document is not valid JSON.
var ErrInvalidJSON = errors.New("document is not valid JSON")

// WriteJSON encodes v as UTF-8 JSON indented by indent spaces and writes it to path,
// replacing any previous content. Non-ASCII and HTML characters are written unescaped,
// including inside embedded json.RawMessage values.
// Nothing is written when encoding fails.
func WriteJSON(path string, v any, indent int) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	data, err := format(buf.Bytes(), indent)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	return writeFile(path, data)
}

// WriteRawJSON re-indents an already encoded JSON document and writes it to path.
// Key order and values of the document are preserved, string escapes are decoded to UTF-8.
func WriteRawJSON(path string, raw []byte, indent int) error {
	data, err := format(raw, indent)
	if err != nil {
		return fmt.Errorf("failed to indent response: %w", err)
	}

	return writeFile(path, data)
}

// Normalize re-emits raw in compact form with every string written as unescaped UTF-8.
// Object key order and number literals are kept as they are.
func Normalize(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := appendValue(&buf, enc, gjson.ParseBytes(raw)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func format(raw []byte, indent int) ([]byte, error) {
	compact, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = json.Indent(&buf, compact, "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func appendValue(buf *bytes.Buffer, enc *json.Encoder, value gjson.Result) error {
	var err error

	switch {
	case value.IsObject():
		buf.WriteByte('{')
		first := true
		value.ForEach(func(key, member gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = appendString(buf, enc, key.String()); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = appendValue(buf, enc, member)
			return err == nil
		})
		buf.WriteByte('}')
	case value.IsArray():
		buf.WriteByte('[')
		first := true
		value.ForEach(func(_, item gjson.Result) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			err = appendValue(buf, enc, item)
			return err == nil
		})
		buf.WriteByte(']')
	case value.Type == gjson.String:
		err = appendString(buf, enc, value.String())
	default:
		buf.WriteString(value.Raw)
	}

	return err
}

// appendString writes s as a JSON string. The encoder shares buf and ends every value with a newline.
func appendString(buf *bytes.Buffer, enc *json.Encoder, s string) error {
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)

	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}
