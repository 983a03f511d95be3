package generate

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"ovpngen/internal/domain"
)

func sampleEntries() domain.Entries {
	return domain.Entries{
		"ca.cn":        "MyCA",
		"ca.valid":     3653,
		"client.count": 2,
		"server.host":  "127.0.0.1",
	}
}

func normalized(m map[string]any) domain.Entries {
	out := make(domain.Entries, len(m))
	for k, v := range m {
		out[k] = domain.Normalize(v)
	}
	return out
}

func TestGenerateFormats(t *testing.T) {
	tests := []struct {
		format string
		decode func([]byte, *map[string]any) error
	}{
		{format: FormatTOML, decode: func(b []byte, m *map[string]any) error { return toml.Unmarshal(b, m) }},
		{format: FormatYAML, decode: func(b []byte, m *map[string]any) error { return yaml.Unmarshal(b, m) }},
		{format: FormatJSON, decode: nil},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			g := NewFileGenerator(dir, tt.format)

			require.NoError(t, g.Generate(context.Background(), sampleEntries(), nil))

			data, err := os.ReadFile(g.Path(tt.format))
			require.NoError(t, err)

			var got map[string]any
			if tt.decode != nil {
				require.NoError(t, tt.decode(data, &got))
				assert.Equal(t, sampleEntries(), normalized(got))
			} else {
				require.NoError(t, json.Unmarshal(data, &got))
				assert.Equal(t, "MyCA", got["ca.cn"])
				assert.Equal(t, float64(3653), got["ca.valid"])
			}
		})
	}
}

func TestGenerateFormatOverride(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGenerator(dir, FormatTOML)

	require.NoError(t, g.Generate(context.Background(), sampleEntries(), map[string]domain.Value{OptFormat: "YAML"}))

	assert.FileExists(t, g.Path(FormatYAML))
	assert.NoFileExists(t, g.Path(FormatTOML))
}

func TestGenerateDefaultsToTOML(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGenerator(dir, "")

	require.NoError(t, g.Generate(context.Background(), sampleEntries(), nil))

	assert.FileExists(t, g.Path(FormatTOML))
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	g := NewFileGenerator(dir, "ini")
	assert.ErrorContains(t, g.Generate(context.Background(), sampleEntries(), nil), "unsupported format")

	g = NewFileGenerator(dir, FormatTOML)
	assert.Error(t, g.Generate(context.Background(), sampleEntries(), map[string]domain.Value{OptFormat: 42}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Generate(ctx, sampleEntries(), nil), context.Canceled)
}
