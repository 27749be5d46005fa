package ports

import "takforge/domain/tabular"

// WorkbookReader loads the tabular TAK definitions from an external source
type WorkbookReader interface {
	Read(path string) (*tabular.Workbook, error)
}
