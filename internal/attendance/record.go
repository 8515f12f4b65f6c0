// Package attendance turns spreadsheet rows into per-day attendance records
// and keeps a time-boxed snapshot of them.
package attendance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/enbi81/attendance-board/internal/fault"
)

// PlaceholderMarker is what the spreadsheet provider renders for a missing
// formula value.
const PlaceholderMarker = "#N/A"

// Record is one calendar day's two named-person lists derived from one row.
type Record struct {
	Date   time.Time `json:"date"`
	GroupA []string  `json:"groupA"`
	GroupB []string  `json:"groupB"`
}

// clone returns a deep copy so callers never share slices with a snapshot.
func (r Record) clone() Record {
	return Record{
		Date:   r.Date,
		GroupA: append([]string{}, r.GroupA...),
		GroupB: append([]string{}, r.GroupB...),
	}
}

// Layout defines which columns of a row belong to which group. Column 0 is
// always the date, group A follows, then group B.
type Layout struct {
	GroupAMaxCount int
	GroupBMaxCount int
}

func (l Layout) groupA() (start, end int) {
	return 1, 1 + max(l.GroupAMaxCount, 0)
}

func (l Layout) groupB() (start, end int) {
	_, aEnd := l.groupA()
	return aEnd, aEnd + max(l.GroupBMaxCount, 0)
}

// AliasTable maps raw spreadsheet names to canonical display names.
type AliasTable map[string]string

// Lookup returns the canonical name for raw, reporting whether one exists.
func (t AliasTable) Lookup(raw string) (string, bool) {
	if t == nil {
		return "", false
	}
	canonical, ok := t[raw]
	return canonical, ok
}

// Resolve returns the canonical name for raw, or raw itself when unmapped.
func (t AliasTable) Resolve(raw string) string {
	if canonical, ok := t.Lookup(raw); ok {
		return canonical
	}
	return raw
}

// Clone returns an independent copy of the table. A nil table clones to an
// empty one.
func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// DecodeRows converts the loosely typed cell grid returned by the provider
// into rows of strings. Scalars are formatted; nested values violate the
// rows-of-cells contract and fail with fault.ErrInvalidInput.
func DecodeRows(values [][]any) ([][]string, error) {
	rows := make([][]string, 0, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			text, err := cellText(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			row[j] = text
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(cell any) (string, error) {
	switch v := cell.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("%w: unexpected cell type %T", fault.ErrInvalidInput, cell)
	}
}
