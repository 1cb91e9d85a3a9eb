// Package export serializes reconciled entities to CSV.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Columns is the CSV header, in output order.
var Columns = []string{"hostname", "ip", "uuid", "os", "lastSeen", "userEmail", "sources", "riskLevel"}

// SourceSeparator joins an entity's sources in the sources column.
const SourceSeparator = ", "

// Row returns the CSV fields for one entity.
func Row(e *inventory.NormalizedEndpoint) []string {
	sources := make([]string, len(e.Sources))
	for i, id := range e.Sources {
		sources[i] = id.String()
	}
	return []string{
		e.Hostname,
		e.IP,
		e.UUID,
		e.OS,
		e.LastSeen,
		e.UserEmail,
		strings.Join(sources, SourceSeparator),
		e.RiskLevel.String(),
	}
}

// WriteCSV writes a header and one row per entity, in the given order.
func WriteCSV(w io.Writer, endpoints []*inventory.NormalizedEndpoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, e := range endpoints {
		if err := cw.Write(Row(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to path, creating parent directories.
func WriteFile(path string, endpoints []*inventory.NormalizedEndpoint) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions) //nolint:gosec // path comes from the command line
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	if err := WriteCSV(f, endpoints); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}
	return nil
}

// Filename returns "<prefix>_<yyyy-mm-dd>.csv" for the given time in UTC.
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "endpoints"
	}
	return prefix + "_" + t.UTC().Format(constants.TimeFormatDate) + ".csv"
}
