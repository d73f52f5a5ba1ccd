package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/blockstack/pkg/observability"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// Export generates output artifacts in the requested formats.
func Export(ctx context.Context, snap *scene.Snapshot, opts Options) (map[string][]byte, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		if data, err = exportFormat(ctx, snap, format, opts.Detailed); err != nil {
			err = fmt.Errorf("export %s: %w", format, err)
			break
		}
		artifacts[format] = data
	}

	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func exportFormat(ctx context.Context, snap *scene.Snapshot, format string, detailed bool) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := scene.WriteJSON(snap, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(scene.ToDOT(snap, scene.DOTOptions{Detailed: detailed})), nil
	case FormatSVG:
		return scene.RenderSVG(ctx, scene.ToDOT(snap, scene.DOTOptions{Detailed: detailed}))
	}
	return nil, ValidateFormat(format)
}
