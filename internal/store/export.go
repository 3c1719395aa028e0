// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// Format selects the batch file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// timestampLayout matches the original output naming convention.
const timestampLayout = "20060102_150405"

// BatchFilename builds the output filename for a batch:
// <Company_Name>_layer1_<YYYYMMDD_HHMMSS>.<ext>. Spaces in the company
// name become underscores.
func BatchFilename(companyName string, now time.Time, format Format) string {
	company := strings.ReplaceAll(companyName, " ", "_")
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("%s_layer1_%s.%s", company, now.Format(timestampLayout), ext)
}

// WriteBatchFile serializes the batch into dir under its timestamped
// name and returns the written path. The JSON encoding is the persisted
// output contract; YAML is a convenience for human review.
func WriteBatchFile(dir string, batch types.ResearchBatch, now time.Time, format Format) (string, error) {
	if format == "" {
		format = FormatJSON
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(batch, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(batch)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling batch: %w", err)
	}

	path := filepath.Join(dir, BatchFilename(batch.CompanyName, now, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing batch file: %w", err)
	}
	return path, nil
}
