package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	bserrors "github.com/matzehuels/blockstack/pkg/errors"
)

// Formats accepted by [Parse].
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// ReadJSON decodes and validates a JSON scene from r.
func ReadJSON(r io.Reader) (*Scene, error) {
	var s Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, bserrors.Wrap(bserrors.ErrCodeInvalidFormat, err, "decode JSON scene")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadTOML decodes and validates a TOML scene from r.
func ReadTOML(r io.Reader) (*Scene, error) {
	var s Scene
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, bserrors.Wrap(bserrors.ErrCodeInvalidFormat, err, "decode TOML scene")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, bserrors.New(bserrors.ErrCodeInvalidFormat, "unknown scene keys: %v", undecoded)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Parse decodes scene data in the given format.
func Parse(data []byte, format string) (*Scene, error) {
	switch format {
	case FormatTOML:
		return ReadTOML(bytes.NewReader(data))
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data))
	}
	return nil, bserrors.New(bserrors.ErrCodeUnsupported, "unsupported scene format %q", format)
}

// FormatOf infers the scene format from a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", bserrors.New(bserrors.ErrCodeUnsupported, "cannot infer scene format from %q (use .toml or .json)", path)
}

// Load reads a scene file; the format follows the file extension.
func Load(path string) (*Scene, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, bserrors.Wrap(bserrors.ErrCodeFileNotFound, err, "scene %s", path)
		}
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}
