package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of every workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook is a generated spreadsheet ready to be written out.
type Workbook struct {
	Filename string
	file     *excelize.File
}

// WriteTo streams the xlsx bytes to w.
func (b *Workbook) WriteTo(w io.Writer) (int64, error) {
	return b.file.WriteTo(w)
}

// Close releases the workbook's temporary resources.
func (b *Workbook) Close() error {
	return b.file.Close()
}

// File exposes the underlying workbook for inspection.
func (b *Workbook) File() *excelize.File {
	return b.file
}

// sheet appends rows to the first sheet of a new file.
type sheet struct {
	file *excelize.File
	name string
	next int
	err  error
}

func newSheet(name string) *sheet {
	f := excelize.NewFile()
	s := &sheet{file: f, name: name, next: 1}
	s.err = f.SetSheetName(f.GetSheetName(0), name)
	return s
}

func (s *sheet) row(values ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = err
		return
	}
	if err := s.file.SetSheetRow(s.name, cell, &values); err != nil {
		s.err = fmt.Errorf("export: row %d: %w", s.next, err)
		return
	}
	s.next++
}

// finish returns the workbook, or the first error hit while writing it.
func (s *sheet) finish(filename string) (*Workbook, error) {
	if s.err != nil {
		_ = s.file.Close()
		return nil, s.err
	}
	return &Workbook{Filename: filename, file: s.file}, nil
}
