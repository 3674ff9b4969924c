// Package sequence edits yoga sequence files: JSON objects whose "asanas"
// key holds the ordered list of poses.
package sequence

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
)

const (
	asanasKey = "asanas"
	suffix    = " (Reversed)"
)

var (
	ErrNotFound      = errors.New("sequence file not found")
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrMissingAsanas = errors.New("JSON file does not contain 'asanas' key")
	ErrAsanasNotList = errors.New("'asanas' is not a list")
)

// Reverse reads the sequence at input, reverses its asanas and writes the
// result to output, or to <stem>_reversed<ext> next to input when output is
// empty. It returns the path written. Nothing is written on error.
func Reverse(input, output string) (string, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(ErrNotFound, input)
		}
		return "", errors.Wrap(err, "read sequence")
	}

	reversed, count, err := ReverseBytes(data)
	if err != nil {
		return "", errors.WithMessage(err, input)
	}

	if output == "" {
		output = DefaultOutput(input)
	}
	if err := os.WriteFile(output, reversed, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", output)
	}

	util.Logger.Info("reversed sequence",
		zap.Int("asanas", count),
		zap.String("input", input),
		zap.String("output", output))
	return output, nil
}

// ReverseBytes reverses the asanas of an encoded sequence and marks its name
// and description. Key order is preserved and the output is indented with
// two spaces. The second return value is the number of asanas.
func ReverseBytes(data []byte) ([]byte, int, error) {
	if !gjson.ValidBytes(data) {
		return nil, 0, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, 0, errors.Wrap(ErrInvalidJSON, "top-level value is not an object")
	}

	asanas := root.Get(asanasKey)
	if !asanas.Exists() {
		return nil, 0, ErrMissingAsanas
	}
	if !asanas.IsArray() {
		return nil, 0, ErrAsanasNotList
	}

	items := asanas.Array()
	raws := make([]string, len(items))
	for i, item := range items {
		raws[len(items)-1-i] = item.Raw
	}

	out, err := sjson.SetRawBytes(data, asanasKey, []byte("["+strings.Join(raws, ",")+"]"))
	if err != nil {
		return nil, 0, errors.Wrap(err, "set asanas")
	}
	for _, key := range []string{"name", "description"} {
		if v := root.Get(key); v.Type == gjson.String {
			if out, err = sjson.SetRawBytes(out, key, quote(v.String()+suffix)); err != nil {
				return nil, 0, errors.Wrapf(err, "set %s", key)
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return nil, 0, errors.Wrap(err, "indent")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), len(items), nil
}

// quote encodes s as a JSON string without HTML escaping.
func quote(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// DefaultOutput returns <dir>/<stem>_reversed<ext> for input.
func DefaultOutput(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	return filepath.Join(filepath.Dir(input), stem+"_reversed"+ext)
}
