// Package importer turns CSV and XLSX subscriber lists into subscribers,
// reporting the rows it could not use.
package importer

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

// RowError describes a rejected row. Row is the line or sheet row number,
// counting from 1.
type RowError struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// Summary counts the outcome of an import. Blank rows are not counted.
type Summary struct {
	Total   int        `json:"total"`
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors,omitempty"`
}

// Options tunes an import.
type Options struct {
	Tags   []string // added to every subscriber
	Status string   // used when the row has none; default active
}

// ImportCSV reads comma, tab or semicolon separated text with a header row.
// Subscribers are returned once per email, the last row winning.
func ImportCSV(ctx context.Context, r io.Reader, opts Options) (*Summary, []model.Subscriber, error) {
	rowCh, errCh := streamCSV(ctx, r)

	b := newBuilder(opts)
	for row := range rowCh {
		if err := b.add(row); err != nil {
			// Drain so the reader goroutine can exit.
			for range rowCh {
			}
			return nil, nil, err
		}
	}
	if err := <-errCh; err != nil {
		return nil, nil, err
	}
	return b.finish()
}

// ImportXLSX reads the first sheet of a workbook with a header row.
func ImportXLSX(ctx context.Context, r io.Reader, opts Options) (*Summary, []model.Subscriber, error) {
	rows, err := readXLSX(r)
	if err != nil {
		return nil, nil, err
	}

	b := newBuilder(opts)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "importer: xlsx cancelled")
		}
		if err := b.add(row); err != nil {
			return nil, nil, err
		}
	}
	return b.finish()
}

// builder maps rows onto subscribers once the header has been seen.
type builder struct {
	opts    Options
	header  []string
	columns []string // canonical field per column, "" for metadata

	summary Summary
	subs    []model.Subscriber
	index   map[string]int
}

func newBuilder(opts Options) *builder {
	if opts.Status == "" {
		opts.Status = model.StatusActive
	}
	return &builder{opts: opts, index: map[string]int{}}
}

func (b *builder) add(rec record) error {
	if blank(rec.fields) {
		return nil
	}
	if b.header == nil {
		return b.setHeader(rec.fields)
	}

	b.summary.Total++
	sub := b.subscriber(rec.fields)
	if !model.ValidEmail(sub.Email) {
		reason := "invalid email"
		if sub.Email == "" {
			reason = "missing email"
		}
		b.summary.Failed++
		b.summary.Errors = append(b.summary.Errors, RowError{Row: rec.line, Email: sub.Email, Reason: reason})
		return nil
	}

	b.summary.Success++
	if i, ok := b.index[sub.Email]; ok {
		b.subs[i] = sub
		return nil
	}
	b.index[sub.Email] = len(b.subs)
	b.subs = append(b.subs, sub)
	return nil
}

func (b *builder) setHeader(row []string) error {
	b.header = row
	b.columns = make([]string, len(row))
	hasEmail := false
	for i, h := range row {
		b.columns[i] = canonical(h)
		hasEmail = hasEmail || b.columns[i] == "email"
	}
	if !hasEmail {
		return eris.Errorf("importer: header has no email column (got %s)", strings.Join(row, ", "))
	}
	return nil
}

func (b *builder) subscriber(row []string) model.Subscriber {
	sub := model.Subscriber{
		Status:   b.opts.Status,
		Tags:     append([]string(nil), b.opts.Tags...),
		Metadata: map[string]any{"source": string(model.SourceImport)},
	}
	var fullName string

	for i, v := range row {
		if i >= len(b.columns) || v == "" {
			continue
		}
		switch b.columns[i] {
		case "email":
			sub.Email = model.NormalizeEmail(v)
		case "first_name":
			sub.FirstName = v
		case "last_name":
			sub.LastName = v
		case "name":
			fullName = v
		case "status":
			sub.Status = strings.ToLower(v)
		case "tags":
			sub.Tags = append(sub.Tags, splitTags(v)...)
		case "phone", "company":
			sub.Metadata[b.columns[i]] = v
		default:
			sub.Metadata[b.header[i]] = v
		}
	}

	if sub.FirstName == "" && sub.LastName == "" && fullName != "" {
		sub.FirstName, sub.LastName = model.SplitName(fullName)
	}
	return sub
}

func (b *builder) finish() (*Summary, []model.Subscriber, error) {
	if b.header == nil {
		return nil, nil, eris.New("importer: input has no header row")
	}
	zap.L().Info("importer: parsed",
		zap.Int("total", b.summary.Total),
		zap.Int("success", b.summary.Success),
		zap.Int("failed", b.summary.Failed),
		zap.Int("unique", len(b.subs)),
	)
	return &b.summary, b.subs, nil
}

// aliases maps squashed header names onto subscriber fields.
var aliases = map[string]string{
	"email": "email", "emailaddress": "email", "mail": "email",
	"firstname": "first_name", "first": "first_name", "givenname": "first_name", "fname": "first_name",
	"lastname": "last_name", "last": "last_name", "surname": "last_name", "familyname": "last_name", "lname": "last_name",
	"name": "name", "fullname": "name", "contactname": "name",
	"phone": "phone", "phonenumber": "phone", "telephone": "phone", "mobile": "phone", "tel": "phone",
	"company": "company", "companyname": "company", "organization": "company", "organisation": "company",
	"tags": "tags", "tag": "tags", "labels": "tags",
	"status": "status",
}

// canonical maps a header cell to a field name, ignoring case, spaces,
// underscores, dashes and a leading byte-order mark. Unknown headers map
// to "".
func canonical(h string) string {
	squashed := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))))
	return aliases[squashed]
}

func splitTags(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
