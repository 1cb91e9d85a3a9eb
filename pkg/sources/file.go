package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/logging"
)

// FileSource reads a category's device list from an imported file. CSV
// files need a header row; JSON and YAML may hold a bare list or an object
// wrapping one.
type FileSource struct {
	category inventory.SourceID
	path     string
}

// NewFileSource creates a file-import source.
func NewFileSource(id inventory.SourceID, path string) *FileSource {
	return &FileSource{category: id, path: path}
}

// ID implements Source.
func (s *FileSource) ID() inventory.SourceID { return s.category }

// Origin implements Source.
func (s *FileSource) Origin() inventory.Origin { return inventory.OriginFileImport }

// Path returns the imported file path.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and parses the file. The file is re-read on every call.
func (s *FileSource) Fetch(ctx context.Context) ([]inventory.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path) //nolint:gosec // path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("import file", s.path)
		}
		return nil, errors.WrapIO("read", s.path, err)
	}

	var records []map[string]any
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".csv":
		records, err = parseCSVRecords(data)
		if err != nil {
			return nil, errors.WrapParse("csv", s.path, err)
		}
	default:
		var payload any
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, errors.WrapParse("yaml", s.path, err)
		}
		records, err = recordsFromPayload(payload)
		if err != nil {
			return nil, errors.WrapParse("yaml", s.path, err)
		}
	}

	endpoints, skipped := endpointsFromRecords(records, s.category, inventory.OriginFileImport)
	if skipped > 0 {
		logging.FromContext(ctx).Debug().
			Str("file", s.path).
			Int("skipped", skipped).
			Msg("Skipped imported rows without hostname")
	}
	return endpoints, nil
}

// parseCSVRecords turns a CSV with a header row into records keyed by
// header name.
func parseCSVRecords(data []byte) ([]map[string]any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	hasHostname := false
	for _, h := range header {
		for _, alias := range fieldAliases["hostname"] {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				hasHostname = true
			}
		}
	}
	if !hasHostname {
		return nil, errors.NewValidationError("header", strings.Join(header, ","), "missing hostname column")
	}

	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
