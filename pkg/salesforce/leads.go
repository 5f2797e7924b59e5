package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// BatchSize is the Collections API limit per request.
const BatchSize = 200

// leadRecord is the part of a Lead sObject used for matching.
type leadRecord struct {
	ID    string `json:"Id" salesforce:"Id"`
	Email string `json:"Email" salesforce:"Email"`
}

// UpsertStats counts the outcome of UpsertLeads.
type UpsertStats struct {
	Created int
	Updated int
	Failed  int
	Errors  []string
}

// FindLeadIDs maps lower-cased email to the Id of an existing Lead.
func FindLeadIDs(ctx context.Context, c Client, emails []string) (map[string]string, error) {
	ids := make(map[string]string, len(emails))
	if len(emails) == 0 {
		return ids, nil
	}

	quoted := make([]string, len(emails))
	for i, e := range emails {
		quoted[i] = "'" + escapeSoql(e) + "'"
	}
	soql := fmt.Sprintf("SELECT Id, Email FROM Lead WHERE Email IN (%s)", strings.Join(quoted, ", "))

	var recs []leadRecord
	if err := c.Query(ctx, soql, &recs); err != nil {
		return nil, eris.Wrap(err, "sf: find leads by email")
	}
	for _, r := range recs {
		ids[strings.ToLower(r.Email)] = r.ID
	}
	return ids, nil
}

// UpsertLeads writes Lead records keyed by their Email field in batches of
// BatchSize. Existing Leads are updated; the rest are inserted.
func UpsertLeads(ctx context.Context, c Client, records []map[string]any) (UpsertStats, error) {
	var stats UpsertStats

	for start := 0; start < len(records); start += BatchSize {
		if err := ctx.Err(); err != nil {
			return stats, eris.Wrap(err, "sf: upsert leads cancelled")
		}
		batch := records[start:min(start+BatchSize, len(records))]

		emails := make([]string, 0, len(batch))
		for _, r := range batch {
			if e, _ := r["Email"].(string); e != "" {
				emails = append(emails, e)
			}
		}
		existing, err := FindLeadIDs(ctx, c, emails)
		if err != nil {
			return stats, err
		}

		var inserts, updates []map[string]any
		for _, r := range batch {
			e, _ := r["Email"].(string)
			if id, ok := existing[strings.ToLower(e)]; ok {
				upd := make(map[string]any, len(r)+1)
				for k, v := range r {
					upd[k] = v
				}
				upd["Id"] = id
				updates = append(updates, upd)
				continue
			}
			inserts = append(inserts, r)
		}

		if len(inserts) > 0 {
			res, err := c.InsertCollection(ctx, "Lead", inserts)
			if err != nil {
				return stats, eris.Wrap(err, fmt.Sprintf("sf: insert leads batch %d", start/BatchSize))
			}
			stats.Created += stats.tally(res)
		}
		if len(updates) > 0 {
			res, err := c.UpdateCollection(ctx, "Lead", updates)
			if err != nil {
				return stats, eris.Wrap(err, fmt.Sprintf("sf: update leads batch %d", start/BatchSize))
			}
			stats.Updated += stats.tally(res)
		}
	}
	return stats, nil
}

// tally records failures and returns the number of successes.
func (s *UpsertStats) tally(res []CollectionResult) int {
	ok := 0
	for _, r := range res {
		if r.Success {
			ok++
			continue
		}
		s.Failed++
		s.Errors = append(s.Errors, r.Errors...)
	}
	return ok
}

// escapeSoql escapes a value for use inside a quoted SOQL literal.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
