// Package sheet writes leads to and reads manual leads from xlsx workbooks.
// Contact columns hold one value per kind joined by "; ".
package sheet

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-scout/internal/model"
)

// SheetName is the worksheet WriteLeads creates.
const SheetName = "Leads"

const joiner = "; "

var fixedColumns = []string{
	"url", "title", "description", "quality", "status", "source", "relevance_score", "tags", "notes",
}

// Columns returns the header row written by WriteLeads.
func Columns() []string {
	cols := append([]string(nil), fixedColumns...)
	for _, k := range model.AllKinds() {
		cols = append(cols, string(k))
	}
	return cols
}

// WriteLeads writes one row per lead under a header row.
func WriteLeads(w io.Writer, leads []model.Lead) error {
	f := xlsx.NewFile()
	sh, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "sheet: add sheet")
	}

	addRow(sh, Columns())
	for _, l := range leads {
		var score string
		if l.RelevanceScore != nil {
			score = strconv.Itoa(*l.RelevanceScore)
		}
		cells := []string{
			l.URL, l.Title, l.Description, string(l.Quality), string(l.Status), string(l.Source),
			score, strings.Join(l.Tags, joiner), l.Notes,
		}
		for _, k := range model.AllKinds() {
			cells = append(cells, strings.Join(l.Contacts.Values(k), joiner))
		}
		addRow(sh, cells)
	}

	return eris.Wrap(f.Write(w), "sheet: write workbook")
}

func addRow(sh *xlsx.Sheet, cells []string) {
	row := sh.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

// Record is one manually supplied lead read from a workbook.
type Record struct {
	URL         string
	Title       string
	Description string
	Tags        []string
	Notes       string
	Contacts    model.ContactBundle
}

// ReadLeads reads records from the first sheet of the workbook at path.
func ReadLeads(path string) ([]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open file")
	}
	return parse(f)
}

// ReadLeadsBinary is ReadLeads for an in-memory workbook.
func ReadLeadsBinary(b []byte) ([]Record, error) {
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open workbook")
	}
	return parse(f)
}

// parse maps columns by header name, so columns may appear in any order and
// unknown columns are ignored. Rows without a url are skipped.
func parse(f *xlsx.File) ([]Record, error) {
	if len(f.Sheets) == 0 {
		return nil, eris.New("sheet: workbook has no sheets")
	}
	sh := f.Sheets[0]
	if len(sh.Rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, c := range sh.Rows[0].Cells {
		index[strings.ToLower(strings.TrimSpace(c.String()))] = i
	}
	if _, ok := index["url"]; !ok {
		return nil, eris.New("sheet: missing url column")
	}

	var out []Record
	for _, row := range sh.Rows[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || row == nil || i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i].String())
		}

		rec := Record{
			URL:         get("url"),
			Title:       get("title"),
			Description: get("description"),
			Tags:        split(get("tags")),
			Notes:       get("notes"),
		}
		if rec.URL == "" {
			continue
		}
		for _, k := range model.AllKinds() {
			if v := split(get(string(k))); len(v) > 0 {
				rec.Contacts.Set(k, v)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// split accepts ";", "," and newlines as separators.
func split(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
