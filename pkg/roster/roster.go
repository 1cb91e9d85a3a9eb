// Package roster loads the terminated-employee roster. Entries are returned
// unfiltered, including completed offboardings; the core decides what a
// match means.
package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Provider supplies the terminated-employee roster for a run.
type Provider interface {
	Terminated(ctx context.Context) ([]inventory.TerminatedEmployee, error)
}

// Static is a Provider backed by a fixed list.
type Static []inventory.TerminatedEmployee

// Terminated returns a copy of the list.
func (s Static) Terminated(context.Context) ([]inventory.TerminatedEmployee, error) {
	return append([]inventory.TerminatedEmployee(nil), s...), nil
}

// FileProvider reads the roster from a file on every call, so edits are
// picked up by scheduled runs.
type FileProvider struct {
	Path string
}

// Terminated loads the roster file.
func (p FileProvider) Terminated(ctx context.Context) ([]inventory.TerminatedEmployee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(p.Path)
}

// File is the YAML/JSON document layout.
type File struct {
	Employees []inventory.TerminatedEmployee `json:"employees" yaml:"employees"`
}

// Load reads a roster from YAML, JSON or CSV, chosen by file extension.
func Load(path string) ([]inventory.TerminatedEmployee, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("roster file", path)
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var employees []inventory.TerminatedEmployee
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		employees, err = ParseCSV(data)
	} else {
		employees, err = Parse(data)
	}
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			parseErr.File = path
		}
		return nil, err
	}
	return employees, nil
}

// Parse decodes a YAML or JSON roster, either a bare list or an
// "employees" document.
func Parse(data []byte) ([]inventory.TerminatedEmployee, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var employees []inventory.TerminatedEmployee
	if trimmed[0] == '[' || trimmed[0] == '-' {
		if err := yaml.Unmarshal(trimmed, &employees); err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
	} else {
		var f File
		if err := yaml.Unmarshal(trimmed, &f); err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
		employees = f.Employees
	}
	return clean(employees), nil
}

// csvColumns maps accepted header names to roster fields.
var csvColumns = map[string]string{
	"id":               "id",
	"employee_id":      "id",
	"name":             "name",
	"email":            "email",
	"terminationdate":  "terminationDate",
	"termination_date": "terminationDate",
	"notes":            "notes",
}

// ParseCSV decodes a roster CSV with a header row. An email column is
// required.
func ParseCSV(data []byte) ([]inventory.TerminatedEmployee, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", "", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			index[field] = i
		}
	}
	if _, ok := index["email"]; !ok {
		return nil, errors.NewParseError("csv", "", "missing required column: email", nil)
	}

	get := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	employees := make([]inventory.TerminatedEmployee, 0, len(rows)-1)
	for _, row := range rows[1:] {
		employees = append(employees, inventory.TerminatedEmployee{
			ID:              get(row, "id"),
			Name:            get(row, "name"),
			Email:           get(row, "email"),
			TerminationDate: get(row, "terminationDate"),
			Notes:           get(row, "notes"),
		})
	}
	return clean(employees), nil
}

// Save writes the roster as a YAML "employees" document.
func Save(path string, employees []inventory.TerminatedEmployee) error {
	data, err := yaml.Marshal(File{Employees: employees})
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// clean trims and NFC-normalizes text fields.
func clean(employees []inventory.TerminatedEmployee) []inventory.TerminatedEmployee {
	for i := range employees {
		e := &employees[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Name = norm.NFC.String(strings.TrimSpace(e.Name))
		e.Email = norm.NFC.String(strings.TrimSpace(e.Email))
		e.TerminationDate = strings.TrimSpace(e.TerminationDate)
		e.Notes = strings.TrimSpace(e.Notes)
	}
	return employees
}

// Sample returns the roster that pairs with the built-in sample device
// lists, so a first run shows a terminated-employee finding.
func Sample() []inventory.TerminatedEmployee {
	return []inventory.TerminatedEmployee{
		{ID: "E-1042", Name: "Jordan Reyes", Email: "jordan.reyes@example.com", TerminationDate: "2024-01-12", Notes: "Laptop not returned"},
		{ID: "E-0977", Name: "Sam Okafor", Email: "sam.okafor@example.com", TerminationDate: "2023-11-30", Notes: "Offboarding complete"},
	}
}
