package sources

import (
	"fmt"
	"strings"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Field aliases accepted in tool API payloads and imported files, checked
// in order. Keys are compared case-insensitively.
var fieldAliases = map[string][]string{
	"hostname":  {"hostname", "host_name", "name", "endpoint_name", "device_name", "computer_name", "computername"},
	"ip":        {"ip", "ip_address", "ipaddress", "ipv4", "local_ip"},
	"uuid":      {"uuid", "id", "device_id", "endpoint_id", "_id", "agent_id"},
	"os":        {"os", "operatingsystem", "operating_system", "platform", "os_type", "os_name"},
	"lastSeen":  {"lastseen", "last_seen", "lastseenat", "last_connected", "last_contact"},
	"userEmail": {"useremail", "user_email", "email", "owner_email"},
}

// envelopeKeys are object keys that may wrap a device array.
var envelopeKeys = []string{"devices", "endpoints", "data", "items", "results", "systems"}

// recordsFromPayload extracts the device array from a decoded payload:
// either a bare array or an object wrapping one under an envelope key.
func recordsFromPayload(payload any) ([]map[string]any, error) {
	switch v := payload.(type) {
	case []any:
		return toMaps(v), nil
	case map[string]any:
		for _, key := range envelopeKeys {
			for k, inner := range v {
				if strings.EqualFold(k, key) {
					if arr, ok := inner.([]any); ok {
						return toMaps(arr), nil
					}
				}
			}
		}
		return nil, fmt.Errorf("no device list found in object (expected one of %s)", strings.Join(envelopeKeys, ", "))
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected payload type %T", payload)
}

func toMaps(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		switch m := item.(type) {
		case map[string]any:
			out = append(out, m)
		case map[any]any:
			conv := make(map[string]any, len(m))
			for k, val := range m {
				conv[fmt.Sprint(k)] = val
			}
			out = append(out, conv)
		}
	}
	return out
}

// endpointFromRecord maps a loosely-shaped record onto an Endpoint. It
// reports false when no hostname could be found.
func endpointFromRecord(record map[string]any, id inventory.SourceID, origin inventory.Origin) (inventory.Endpoint, bool) {
	lower := make(map[string]any, len(record))
	for k, v := range record {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	get := func(field string) string {
		for _, alias := range fieldAliases[field] {
			if v, ok := lower[alias]; ok && v != nil {
				if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
					return s
				}
			}
		}
		return ""
	}

	e := inventory.Endpoint{
		Hostname:  get("hostname"),
		IP:        get("ip"),
		UUID:      get("uuid"),
		OS:        get("os"),
		LastSeen:  get("lastSeen"),
		UserEmail: get("userEmail"),
		Source:    id,
		Origin:    origin,
	}
	return e, e.Hostname != ""
}

// endpointsFromRecords maps records and counts those skipped for lacking
// a hostname.
func endpointsFromRecords(records []map[string]any, id inventory.SourceID, origin inventory.Origin) ([]inventory.Endpoint, int) {
	out := make([]inventory.Endpoint, 0, len(records))
	skipped := 0
	for _, r := range records {
		e, ok := endpointFromRecord(r, id, origin)
		if !ok {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped
}
