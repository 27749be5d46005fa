package tabular

import (
	"strings"

	"takforge/domain/core"
)

// Row is one TAK definition row. All cells are trimmed strings; numeric and
// date conversions happen explicitly per validation rule, never at load time.
type Row struct {
	// Number is the 1-based workbook row number (header is row 1), kept so
	// issue messages can point at the offending line.
	Number int
	cells  map[string]string
}

// NewRow builds a row from named cells. Cell values are trimmed.
func NewRow(number int, cells map[string]string) Row {
	trimmed := make(map[string]string, len(cells))
	for k, v := range cells {
		trimmed[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return Row{Number: number, cells: trimmed}
}

// Get returns the trimmed cell value for a field, empty if absent.
func (r Row) Get(field string) string {
	return r.cells[field]
}

// Has reports whether the field holds a non-empty value.
func (r Row) Has(field string) bool {
	return r.Get(field) != ""
}

// ID returns the row's declared identifier cell.
func (r Row) ID() core.TakID {
	return core.TakID(r.Get("ID"))
}

// Name returns the row's declared TAK_NAME cell.
func (r Row) Name() core.TakName {
	return core.TakName(r.Get("TAK_NAME"))
}

// Type returns the normalized TYPE cell.
func (r Row) Type() core.ConceptType {
	return core.ParseConceptType(r.Get("TYPE"))
}

// Refs splits a comma-separated reference cell into trimmed non-empty tokens.
func (r Row) Refs(field string) []string {
	raw := r.Get(field)
	if raw == "" {
		return nil
	}
	var refs []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			refs = append(refs, token)
		}
	}
	return refs
}

// Fields returns the names of all non-empty cells, for prompt construction.
func (r Row) Fields() []string {
	out := make([]string, 0, len(r.cells))
	for k, v := range r.cells {
		if v != "" {
			out = append(out, k)
		}
	}
	return out
}

// Sheet is an ordered sequence of rows with a fixed column list.
type Sheet struct {
	Name    core.SheetName
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the sheet declares the named column.
func (s *Sheet) HasColumn(name string) bool {
	for _, col := range s.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns the sheet lacks, in input order.
func (s *Sheet) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !s.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// RowByID finds the row declaring the given ID.
func (s *Sheet) RowByID(id core.TakID) (Row, bool) {
	for _, row := range s.Rows {
		if row.ID() == id {
			return row, true
		}
	}
	return Row{}, false
}

// Workbook is the named collection of sheets read from the tabular source.
type Workbook struct {
	sheets map[core.SheetName]*Sheet
	order  []core.SheetName
}

// NewWorkbook builds a workbook from sheets, preserving insertion order.
func NewWorkbook(sheets ...*Sheet) *Workbook {
	wb := &Workbook{sheets: make(map[core.SheetName]*Sheet, len(sheets))}
	for _, s := range sheets {
		wb.Add(s)
	}
	return wb
}

// Add inserts or replaces a sheet.
func (w *Workbook) Add(s *Sheet) {
	if _, exists := w.sheets[s.Name]; !exists {
		w.order = append(w.order, s.Name)
	}
	w.sheets[s.Name] = s
}

// Sheet returns a sheet by name.
func (w *Workbook) Sheet(name core.SheetName) (*Sheet, bool) {
	s, ok := w.sheets[name]
	return s, ok
}

// SheetNames returns the sheet names in insertion order.
func (w *Workbook) SheetNames() []core.SheetName {
	return append([]core.SheetName(nil), w.order...)
}

// IDsOf collects the non-empty IDs declared across the given sheets.
func (w *Workbook) IDsOf(names ...core.SheetName) map[string]core.SheetName {
	ids := make(map[string]core.SheetName)
	for _, name := range names {
		sheet, ok := w.sheets[name]
		if !ok {
			continue
		}
		for _, row := range sheet.Rows {
			if id := row.ID().String(); id != "" {
				ids[id] = name
			}
		}
	}
	return ids
}

// FindRow locates the row with the given ID in the named sheet.
func (w *Workbook) FindRow(sheet core.SheetName, id core.TakID) (Row, bool) {
	s, ok := w.sheets[sheet]
	if !ok {
		return Row{}, false
	}
	return s.RowByID(id)
}
