package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const flow = `{
  "name": "Morning Flow",
  "level": "beginner",
  "description": "Gentle start",
  "asanas": [
    {"name": "Mountain", "duration": 30},
    {"name": "Forward Fold", "duration": 45},
    {"name": "Downward Dog", "duration": 60}
  ],
  "tags": ["morning", "calm"]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func poseNames(t *testing.T, data []byte) []string {
	t.Helper()
	var names []string
	for _, v := range gjson.GetBytes(data, "asanas.#.name").Array() {
		names = append(names, v.String())
	}
	return names
}

func TestReverse(t *testing.T) {
	t.Parallel()

	in := writeFile(t, "flow.json", flow)
	out, err := Reverse(in, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "flow_reversed.json"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Downward Dog", "Forward Fold", "Mountain"}, poseNames(t, data))
	assert.Equal(t, "Morning Flow (Reversed)", gjson.GetBytes(data, "name").String())
	assert.Equal(t, "Gentle start (Reversed)", gjson.GetBytes(data, "description").String())
	assert.Equal(t, "beginner", gjson.GetBytes(data, "level").String())

	var keys []string
	gjson.ParseBytes(data).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	assert.Equal(t, []string{"name", "level", "description", "asanas", "tags"}, keys)
	assert.Contains(t, string(data), "\n  \"asanas\": [\n    {\n")
}

func TestReverse_TwiceRestoresOrder(t *testing.T) {
	t.Parallel()

	in := writeFile(t, "flow.json", flow)
	once, err := Reverse(in, "")
	require.NoError(t, err)
	twice, err := Reverse(once, filepath.Join(filepath.Dir(in), "twice.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(twice)
	require.NoError(t, err)
	assert.Equal(t, poseNames(t, []byte(flow)), poseNames(t, data))
	assert.JSONEq(t, gjson.Get(flow, "asanas").Raw, gjson.GetBytes(data, "asanas").Raw)
	assert.Equal(t, "Morning Flow (Reversed) (Reversed)", gjson.GetBytes(data, "name").String())
}

func TestReverseBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantCount int
		check     func(t *testing.T, out []byte)
	}{
		{
			name:      "no name or description",
			input:     `{"asanas": [1, 2, 3]}`,
			wantCount: 3,
			check: func(t *testing.T, out []byte) {
				assert.JSONEq(t, `{"asanas": [3, 2, 1]}`, string(out))
			},
		},
		{
			name:      "empty list",
			input:     `{"name": "Yin & Yang", "asanas": []}`,
			wantCount: 0,
			check: func(t *testing.T, out []byte) {
				assert.JSONEq(t, `{"name": "Yin & Yang (Reversed)", "asanas": []}`, string(out))
				assert.NotContains(t, string(out), `\u0026`)
			},
		},
		{
			name:      "non string name untouched",
			input:     `{"name": 7, "description": null, "asanas": ["a", "b"]}`,
			wantCount: 2,
			check: func(t *testing.T, out []byte) {
				assert.JSONEq(t, `{"name": 7, "description": null, "asanas": ["b", "a"]}`, string(out))
			},
		},
		{
			name:      "non ascii kept",
			input:     `{"name": "Salutación ☀", "asanas": ["Tāḍāsana"]}`,
			wantCount: 1,
			check: func(t *testing.T, out []byte) {
				assert.Equal(t, "Salutación ☀ (Reversed)", gjson.GetBytes(out, "name").String())
				assert.Equal(t, "Tāḍāsana", gjson.GetBytes(out, "asanas.0").String())
			},
		},
		{name: "invalid json", input: `{"asanas": [`, wantErr: ErrInvalidJSON},
		{name: "top level list", input: `[1, 2]`, wantErr: ErrInvalidJSON},
		{name: "missing asanas", input: `{"name": "x"}`, wantErr: ErrMissingAsanas},
		{name: "asanas not list", input: `{"asanas": {"a": 1}}`, wantErr: ErrAsanasNotList},
		{name: "asanas string", input: `{"asanas": "abc"}`, wantErr: ErrAsanasNotList},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, count, err := ReverseBytes([]byte(tt.input))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			tt.check(t, out)
		})
	}
}

func TestReverse_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Reverse(filepath.Join(dir, "nope.json"), "")
	assert.True(t, errors.Is(err, ErrNotFound))

	in := writeFile(t, "plain.json", `{"name": "No poses"}`)
	out := filepath.Join(filepath.Dir(in), "out.json")
	_, err = Reverse(in, out)
	assert.True(t, errors.Is(err, ErrMissingAsanas))
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, DefaultOutput(in))

	in = writeFile(t, "ok.json", flow)
	_, err = Reverse(in, filepath.Join(dir, "missing-dir", "out.json"))
	assert.Error(t, err)
}

func TestDefaultOutput(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"flow.json":             "flow_reversed.json",
		"dir/my.flow.json":      filepath.Join("dir", "my.flow_reversed.json"),
		filepath.Join("a", "b"): filepath.Join("a", "b_reversed"),
	}
	for in, want := range tests {
		assert.Equal(t, want, DefaultOutput(in))
	}
}
