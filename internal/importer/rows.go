package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// record is one input row and the 1-based line it started on.
type record struct {
	line   int
	fields []string
}

// streamCSV reads delimited text and sends rows to a channel. The
// delimiter is sniffed from the first line. Both channels are closed when
// processing completes.
func streamCSV(ctx context.Context, r io.Reader) (<-chan record, <-chan error) {
	rowCh := make(chan record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		br := bufio.NewReader(r)
		// Spreadsheet "CSV UTF-8" exports start with a byte-order mark.
		if bom, _ := br.Peek(len(utf8BOM)); string(bom) == utf8BOM {
			_, _ = br.Discard(len(utf8BOM))
		}
		peek, _ := br.Peek(4096)

		reader := csv.NewReader(br)
		reader.Comma = sniffDelimiter(peek)
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "importer: csv cancelled")
				return
			}

			fields, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "importer: read csv row")
				return
			}
			for i, field := range fields {
				fields[i] = strings.TrimSpace(field)
			}
			line, _ := reader.FieldPos(0)

			select {
			case rowCh <- record{line: line, fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "importer: csv cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

const utf8BOM = "\ufeff"

// sniffDelimiter picks tab or semicolon when the first line has more of
// them than commas. Spreadsheet pastes are tab separated.
func sniffDelimiter(peek []byte) rune {
	line, _, _ := bytes.Cut(peek, []byte("\n"))
	best, bestN := ',', bytes.Count(line, []byte(","))
	for _, d := range []rune{'\t', ';'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// readXLSX returns the rows of the first sheet of an XLSX workbook.
func readXLSX(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "importer: read xlsx")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: xlsx has no sheets")
	}

	var rows []record
	for i, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, record{line: i + 1, fields: cells})
	}
	return rows, nil
}
