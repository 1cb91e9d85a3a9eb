package alerts

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/reconcile"
)

func ep(hostname string, src inventory.SourceID, email string) inventory.Endpoint {
	return inventory.Endpoint{Hostname: hostname, Source: src, Origin: inventory.OriginSample, UserEmail: email}
}

func testRun() Run {
	return Run{ID: "run-1", Timestamp: utc.New(time.Date(2024, 1, 25, 10, 0, 0, 0, time.UTC))}
}

func TestGenerateEmpty(t *testing.T) {
	assert.Empty(t, Generate(reconcile.Reconcile(nil, nil), testRun()))
	assert.Nil(t, Generate(nil, testRun()))
}

func TestGenerate(t *testing.T) {
	roster := []inventory.TerminatedEmployee{{ID: "1", Email: "gone@co.com"}}
	lists := reconcile.SourceLists{
		inventory.VulnerabilityMgmt: {ep("srv-1", "", ""), ep("exa-arklx-1", "", "gone@co.com")},
		inventory.XDR:               {ep("srv-1", "", ""), ep("exa-arklx-1", "", ""), ep("exa-bad", "", "")},
		inventory.DirectoryDevice:   {ep("", "", "gone@co.com")},
	}
	result := reconcile.Reconcile(lists, roster)

	got := Generate(result, testRun())

	kinds := make([]string, 0, len(got))
	for _, a := range got {
		kinds = append(kinds, a.ID)
		assert.Positive(t, a.Count, a.ID)
		assert.Equal(t, testRun().Timestamp, a.Timestamp)
	}
	assert.Equal(t, []string{
		"run-1-terminated-active",
		"run-1-terminated-in-directory-directory-device",
		"run-1-non-compliant",
		"run-1-missing-from-source-vulnerability-mgmt",
		"run-1-missing-from-source-zero-trust-network",
		"run-1-missing-from-source-privileged-access",
		"run-1-missing-from-source-directory-device",
		"run-1-naming-violation",
		"run-1-only-in-source-xdr",
		"run-1-fully-synced",
	}, kinds)

	assert.Equal(t, TypeError, got[0].Type)
	assert.Equal(t, "1 endpoint(s) assigned to terminated employees", got[0].Message)
	assert.Equal(t, inventory.DirectoryDevice, got[1].Source)

	nonCompliant := got[2]
	assert.Equal(t, 2, nonCompliant.Count)
	assert.Equal(t, "2 endpoint(s) missing required sources", nonCompliant.Message)

	assert.Equal(t, 5, Count(got, TypeWarning))
	assert.Equal(t, TypeError, Highest(got))
}

func TestGenerateDeterministic(t *testing.T) {
	lists := reconcile.SourceLists{inventory.XDR: {ep("srv-1", "", "")}}
	a := Generate(reconcile.Reconcile(lists, nil), testRun())
	b := Generate(reconcile.Reconcile(lists, nil), testRun())
	assert.Equal(t, a, b)
}

func TestGenerateWithoutRunID(t *testing.T) {
	lists := reconcile.SourceLists{inventory.XDR: {ep("srv-1", "", "")}}
	got := Generate(reconcile.Reconcile(lists, nil), Run{})
	require.NotEmpty(t, got)
	assert.Equal(t, "missing-from-source-vulnerability-mgmt", got[1].ID)
}

func TestWriters(t *testing.T) {
	list := []Alert{
		{Type: TypeError, Title: "A", Message: "1 thing"},
		{Type: TypeInfo, Title: "B", Message: "2 things"},
	}

	var buf bytes.Buffer
	var seen int
	w := MultiWriter(NewWriterTo(&buf), WriterFunc(func(Alert) error { seen++; return nil }))
	require.NoError(t, WriteAll(w, list))
	assert.Equal(t, 2, seen)
	assert.Contains(t, buf.String(), "A: 1 thing")
	assert.Contains(t, buf.String(), "B: 2 things")

	boom := errors.New("boom")
	err := WriteAll(WriterFunc(func(Alert) error { return boom }), list)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, WriteAll(DiscardWriter, list))
	assert.Len(t, Filter(list, TypeWarning), 1)
	assert.Equal(t, TypeInfo, Highest(nil))
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, TypeWarning, got)

	_, err = ParseType("critical")
	assert.Error(t, err)
}
