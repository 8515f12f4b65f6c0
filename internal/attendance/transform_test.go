package attendance

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/enbi81/attendance-board/internal/fault"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransform(t *testing.T) {
	cases := []struct {
		name    string
		rows    [][]string
		layout  Layout
		aliases AliasTable
		want    []Record
	}{
		{
			name:   "drops rows with unparseable date",
			rows:   [][]string{{"not-a-date", "a"}},
			layout: Layout{GroupAMaxCount: 1},
			want:   []Record{},
		},
		{
			name:    "applies alias before filtering",
			rows:    [][]string{{"2024-01-01", "X"}},
			layout:  Layout{GroupAMaxCount: 1},
			aliases: AliasTable{"X": "Y"},
			want:    []Record{{Date: day(2024, 1, 1), GroupA: []string{"Y"}, GroupB: []string{}}},
		},
		{
			name:   "skips placeholder and whitespace cells",
			rows:   [][]string{{"2024-01-01", "#N/A", " "}},
			layout: Layout{GroupAMaxCount: 2},
			want:   []Record{{Date: day(2024, 1, 1), GroupA: []string{}, GroupB: []string{}}},
		},
		{
			name:    "alias can blank out a name",
			rows:    [][]string{{"2024-01-01", "Ghost", "Bob"}},
			layout:  Layout{GroupAMaxCount: 2},
			aliases: AliasTable{"Ghost": "#N/A"},
			want:    []Record{{Date: day(2024, 1, 1), GroupA: []string{"Bob"}, GroupB: []string{}}},
		},
		{
			name:   "splits columns into groups and tolerates short rows",
			rows:   [][]string{{"2024-02-03", "Ann", "Ben", "Cid"}, {"2024-02-04", "Dan"}},
			layout: Layout{GroupAMaxCount: 2, GroupBMaxCount: 2},
			want: []Record{
				{Date: day(2024, 2, 3), GroupA: []string{"Ann", "Ben"}, GroupB: []string{"Cid"}},
				{Date: day(2024, 2, 4), GroupA: []string{"Dan"}, GroupB: []string{}},
			},
		},
		{
			name:   "ignores columns beyond the layout",
			rows:   [][]string{{"2024-02-03", "Ann", "Ben", "Extra"}},
			layout: Layout{GroupAMaxCount: 1, GroupBMaxCount: 1},
			want:   []Record{{Date: day(2024, 2, 3), GroupA: []string{"Ann"}, GroupB: []string{"Ben"}}},
		},
		{
			name:   "keeps a name present in both groups and across rows",
			rows:   [][]string{{"2024-02-03", "Ann", "Ann"}, {"2024-02-05", "Ann", ""}},
			layout: Layout{GroupAMaxCount: 1, GroupBMaxCount: 1},
			want: []Record{
				{Date: day(2024, 2, 3), GroupA: []string{"Ann"}, GroupB: []string{"Ann"}},
				{Date: day(2024, 2, 5), GroupA: []string{"Ann"}, GroupB: []string{}},
			},
		},
		{
			name:   "skips header and empty rows",
			rows:   [][]string{{"Date", "Present"}, {}, {"6/7/2024", "Eve"}},
			layout: Layout{GroupAMaxCount: 1},
			want:   []Record{{Date: day(2024, 6, 7), GroupA: []string{"Eve"}, GroupB: []string{}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Transform(tc.rows, tc.layout, tc.aliases)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Transform() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-06-06":           day(2024, 6, 6),
		" 2024/06/06 ":         day(2024, 6, 6),
		"6/6/2024":             day(2024, 6, 6),
		"06.06.2024":           day(2024, 6, 6),
		"2024-06-06T10:00:00Z": day(2024, 6, 6),
	}
	for input, want := range cases {
		got, ok := ParseDate(input)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v, %v; want %v", input, got, ok, want)
		}
	}
	for _, input := range []string{"", "bad", "2024-13-01", "#N/A"} {
		if _, ok := ParseDate(input); ok {
			t.Fatalf("ParseDate(%q) unexpectedly succeeded", input)
		}
	}
}

func TestDecodeRows(t *testing.T) {
	rows, err := DecodeRows([][]any{{"2024-01-01", "Alice", 3.0, nil, true}})
	if err != nil {
		t.Fatalf("DecodeRows returned error: %v", err)
	}
	want := [][]string{{"2024-01-01", "Alice", "3", "", "true"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("DecodeRows() = %#v, want %#v", rows, want)
	}

	_, err = DecodeRows([][]any{{"2024-01-01", []any{"nested"}}})
	if !errors.Is(err, fault.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAliasTableLookup(t *testing.T) {
	var empty AliasTable
	if _, ok := empty.Lookup("x"); ok {
		t.Fatalf("nil table should report absent")
	}

	table := AliasTable{"Jon": "John"}
	if got := table.Resolve("Jon"); got != "John" {
		t.Fatalf("Resolve(Jon) = %q", got)
	}
	if got := table.Resolve("Ann"); got != "Ann" {
		t.Fatalf("Resolve(Ann) = %q", got)
	}

	clone := table.Clone()
	clone["Ann"] = "Anna"
	if _, ok := table.Lookup("Ann"); ok {
		t.Fatalf("clone must not share storage with the original")
	}
}
