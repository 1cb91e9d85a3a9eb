package table

import (
	"sort"
	"strings"

	"github.com/secopslab/harmonizer/pkg/provenance"
)

// ProvenanceToTableData converts a provenance report to table format, one
// row per observed value. The kept value is marked with an arrow. When
// host is non-empty only that host is shown.
func ProvenanceToTableData(report *provenance.Report, host string) Data {
	host = strings.ToLower(strings.TrimSpace(host))

	hosts := make([]string, 0, len(report.Hosts))
	for h := range report.Hosts {
		if host == "" || h == host {
			hosts = append(hosts, h)
		}
	}
	sort.Strings(hosts)

	var rows [][]string
	for _, h := range hosts {
		hp := report.Hosts[h]
		fields := make([]string, 0, len(hp.Fields))
		for f := range hp.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, name := range fields {
			f := hp.Fields[name]
			for i, entry := range f.History {
				hostCell, fieldCell := "", ""
				if i == 0 {
					hostCell, fieldCell = h, name
				}
				current := ""
				if entry == f.Current {
					current = "→"
				}
				rows = append(rows, []string{
					hostCell,
					fieldCell,
					current,
					dash(entry.Value),
					string(entry.Source),
					string(entry.Origin),
					string(entry.Resolution),
				})
			}
		}
	}

	return Data{
		Headers: []string{"Host", "Field", "", "Value", "Source", "Origin", "Resolution"},
		Rows:    rows,
	}
}
