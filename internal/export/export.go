// Package export pushes leads to external systems of record.
package export

import (
	"context"

	"github.com/sells-group/lead-finder/internal/model"
)

// Sink receives leads. Export returns how many leads were written.
type Sink interface {
	Name() string
	Export(ctx context.Context, leads []model.Lead) (int, error)
}

// exportable drops leads without a valid email and repeats of an email.
func exportable(leads []model.Lead) []model.Lead {
	seen := make(map[string]bool, len(leads))
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		email := model.NormalizeEmail(l.Email)
		if !model.ValidEmail(email) || seen[email] {
			continue
		}
		seen[email] = true
		l.Email = email
		out = append(out, l)
	}
	return out
}
