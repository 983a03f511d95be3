package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ovpngen/internal/domain"
)

// Supported artifact formats
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// OptFormat is the command extra that overrides the artifact format
const OptFormat = "format"

// BaseName is the artifact file name without extension
const BaseName = "ovpngen"

// FileGenerator writes a snapshot of the entries into Dir
type FileGenerator struct {
	Dir    string
	Format string
}

// NewFileGenerator creates a generator writing format files into dir
func NewFileGenerator(dir, format string) *FileGenerator {
	return &FileGenerator{Dir: dir, Format: format}
}

// Generate writes the artifact and returns once it is on disk
func (g *FileGenerator) Generate(ctx context.Context, entries domain.Entries, opts map[string]domain.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format := g.Format
	if v, ok := opts[OptFormat]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("option %q must be a string, got %T", OptFormat, v)
		}
		format = s
	}
	format = strings.ToLower(format)
	if format == "" {
		format = FormatTOML
	}

	data, err := Encode(format, entries)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := g.Path(format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	log.Printf("Generator: wrote %s", path)
	return nil
}

// Path returns where an artifact of format is written
func (g *FileGenerator) Path(format string) string {
	return filepath.Join(g.Dir, BaseName+"."+format)
}

// DefaultPath returns where Generate writes when no format option is given
func (g *FileGenerator) DefaultPath() string {
	format := strings.ToLower(g.Format)
	if format == "" {
		format = FormatTOML
	}
	return g.Path(format)
}

// Encode serializes entries in the given format
func Encode(format string, entries domain.Entries) ([]byte, error) {
	plain := map[string]any(entries.Clone())
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(plain); err != nil {
			return nil, fmt.Errorf("failed to marshal toml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		data, err := yaml.Marshal(plain)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal yaml: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(plain, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
