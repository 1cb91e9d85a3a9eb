package reconcile

import (
	"strings"

	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/provenance"
)

// SourceLists holds each source's records for one run. A missing or empty
// list means the source reported no devices.
type SourceLists map[inventory.SourceID][]inventory.Endpoint

// Merged field names, as recorded in provenance.
const (
	FieldUUID      = "uuid"
	FieldIP        = "ip"
	FieldOS        = "os"
	FieldLastSeen  = "lastSeen"
	FieldUserEmail = "userEmail"
)

// MergeStats counts what a merge pass consumed.
type MergeStats struct {
	Records map[inventory.SourceID]int `json:"records" yaml:"records"` // records merged per source
	Skipped map[inventory.SourceID]int `json:"skipped" yaml:"skipped"` // records without a hostname
}

// MergeSources folds all source lists into one entity map, one entity per
// hostname key, processing sources in declared order.
func MergeSources(lists SourceLists) *EntityMap {
	m, _ := merge(lists, nil)
	return m
}

// merge processes lists in inventory.SourceIDs order regardless of how the
// map was filled. The first record of a hostname creates the entity. Later
// records add their source and fill ip, os, lastSeen and userEmail only
// where the entity has no value yet; a populated field is never overwritten.
// uuid always comes from the first record.
func merge(lists SourceLists, tracker provenance.Tracker) (*EntityMap, MergeStats) {
	entities := NewEntityMap()
	stats := MergeStats{
		Records: make(map[inventory.SourceID]int),
		Skipped: make(map[inventory.SourceID]int),
	}

	for _, id := range inventory.SourceIDs() {
		for _, record := range lists[id] {
			if strings.TrimSpace(record.Hostname) == "" {
				stats.Skipped[id]++
				continue
			}
			record.Source = id
			stats.Records[id]++

			key := HostnameKey(record.Hostname)
			existing, ok := entities.Get(key)
			if !ok {
				entity := NormalizeEndpoint(record)
				entities.Put(entity)
				trackNew(tracker, entity, record)
				continue
			}

			existing.AddSource(id, record.Origin)
			backfill(tracker, existing, record)
		}
	}

	return entities, stats
}

// backfill fills empty fields of e from record; populated fields win.
func backfill(tracker provenance.Tracker, e *inventory.NormalizedEndpoint, record inventory.Endpoint) {
	fill := func(field string, dst *string, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		res := provenance.Ignored
		if *dst == "" {
			*dst = value
			res = provenance.Kept
		}
		track(tracker, e.Hostname, field, record, value, res)
	}

	fill(FieldIP, &e.IP, record.IP)
	fill(FieldOS, &e.OS, record.OS)
	fill(FieldLastSeen, &e.LastSeen, record.LastSeen)
	fill(FieldUserEmail, &e.UserEmail, record.UserEmail)

	if uuid := strings.TrimSpace(record.UUID); uuid != "" {
		track(tracker, e.Hostname, FieldUUID, record, uuid, provenance.Ignored)
	}
}

func trackNew(tracker provenance.Tracker, e *inventory.NormalizedEndpoint, record inventory.Endpoint) {
	if tracker == nil {
		return
	}
	track(tracker, e.Hostname, FieldUUID, record, e.UUID, provenance.Identity)
	for field, value := range map[string]string{
		FieldIP:        e.IP,
		FieldOS:        e.OS,
		FieldLastSeen:  e.LastSeen,
		FieldUserEmail: e.UserEmail,
	} {
		if value != "" {
			track(tracker, e.Hostname, field, record, value, provenance.Kept)
		}
	}
}

func track(tracker provenance.Tracker, hostname, field string, record inventory.Endpoint, value string, res provenance.Resolution) {
	if tracker == nil {
		return
	}
	tracker.Track(hostname, field, provenance.Provenance{
		Source:     record.Source,
		Origin:     record.Origin,
		Value:      value,
		Resolution: res,
	})
}
