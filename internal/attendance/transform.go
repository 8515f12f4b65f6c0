package attendance

import (
	"strings"
	"time"
)

// dateLayouts are tried in order against column 0.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"02.01.2006",
	time.RFC3339,
}

// ParseDate parses a spreadsheet date cell into midnight UTC of that
// calendar day.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		y, m, d := parsed.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Transform converts rows into records, preserving row order. Rows whose
// first cell is not a date are skipped. Names are aliased before blank and
// placeholder cells are dropped.
func Transform(rows [][]string, layout Layout, aliases AliasTable) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		date, ok := ParseDate(row[0])
		if !ok {
			continue
		}
		aStart, aEnd := layout.groupA()
		bStart, bEnd := layout.groupB()
		records = append(records, Record{
			Date:   date,
			GroupA: collectNames(row, aStart, aEnd, aliases),
			GroupB: collectNames(row, bStart, bEnd, aliases),
		})
	}
	return records
}

func collectNames(row []string, start, end int, aliases AliasTable) []string {
	names := []string{}
	for i := start; i < end && i < len(row); i++ {
		name := aliases.Resolve(row[i])
		if !isPresent(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func isPresent(name string) bool {
	if name == PlaceholderMarker {
		return false
	}
	return strings.TrimSpace(name) != ""
}
