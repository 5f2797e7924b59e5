package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/extract"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/synth"
	"github.com/sells-group/lead-finder/pkg/salesforce"
)

// LeadSource is written to the LeadSource field of exported Leads.
const LeadSource = "Lead Finder"

// SalesforceSink upserts leads as Salesforce Lead records keyed by email.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink returns a sink writing through client.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

// Name implements Sink.
func (s *SalesforceSink) Name() string { return "salesforce" }

// Export implements Sink. Records the API rejects are logged and not
// counted.
func (s *SalesforceSink) Export(ctx context.Context, leads []model.Lead) (int, error) {
	leads = exportable(leads)
	records := make([]map[string]any, len(leads))
	for i, l := range leads {
		records[i] = leadRecord(l)
	}

	stats, err := salesforce.UpsertLeads(ctx, s.client, records)
	written := stats.Created + stats.Updated
	if err != nil {
		return written, eris.Wrap(err, "export: salesforce")
	}
	if stats.Failed > 0 {
		zap.L().Warn("export: salesforce rejected records",
			zap.Int("failed", stats.Failed),
			zap.Strings("errors", stats.Errors),
		)
	}
	zap.L().Info("export: salesforce done",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
	)
	return written, nil
}

// leadRecord maps a lead onto Lead sObject fields. LastName and Company are
// required by Salesforce and get placeholders when unknown.
func leadRecord(l model.Lead) map[string]any {
	first, last := model.SplitName(l.Name)
	if last == "" {
		first, last = "", first
	}
	if last == "" {
		last = "Unknown"
	}

	company := l.Company
	if company == "" && l.Website != "" {
		company = synth.CompanyFromURL(l.Website)
	}
	if company == "" {
		company = "Unknown"
	}

	rec := map[string]any{
		"Email":      l.Email,
		"LastName":   last,
		"Company":    company,
		"LeadSource": LeadSource,
	}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			rec[k] = v
		}
	}
	set("FirstName", first)
	set("Title", l.Title)
	set("Website", l.Website)
	set("Industry", l.Industry)
	set("City", l.Location)
	if phone, ok := extract.NormalizePhone(l.Phone); ok {
		rec["Phone"] = phone
	}
	if mobile, ok := extract.NormalizePhone(l.Mobile); ok {
		rec["MobilePhone"] = mobile
	}
	if l.Source != "" {
		rec["Description"] = fmt.Sprintf("source=%s confidence=%d", l.Source, l.ConfidenceScore)
	}
	return rec
}
