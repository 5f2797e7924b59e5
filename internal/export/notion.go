package export

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/pkg/notion"
)

// NotionSink writes one page per lead into a Notion database, matching
// existing pages on the Email property.
type NotionSink struct {
	client notion.Client
	dbID   string
	tags   []string
}

// NewNotionSink returns a sink for the database. Tags are written to the
// Tags multi-select of every page.
func NewNotionSink(client notion.Client, dbID string, tags []string) *NotionSink {
	return &NotionSink{client: client, dbID: dbID, tags: tags}
}

// Name implements Sink.
func (s *NotionSink) Name() string { return "notion" }

// Export implements Sink. It stops at the first API error and returns the
// count written so far.
func (s *NotionSink) Export(ctx context.Context, leads []model.Lead) (int, error) {
	if s.dbID == "" {
		return 0, eris.New("export: notion database id is required")
	}

	written, created := 0, 0
	for _, lead := range exportable(leads) {
		if err := ctx.Err(); err != nil {
			return written, eris.Wrap(err, "export: notion cancelled")
		}
		isNew, err := notion.UpsertByEmail(ctx, s.client, s.dbID, "Email", lead.Email, s.properties(lead))
		if err != nil {
			return written, eris.Wrapf(err, "export: notion lead %s", lead.Email)
		}
		written++
		if isNew {
			created++
		}
	}

	zap.L().Info("export: notion done",
		zap.Int("written", written),
		zap.Int("created", created),
	)
	return written, nil
}

func (s *NotionSink) properties(l model.Lead) notionapi.Properties {
	sub := model.SubscriberFromLead(l, s.tags)

	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = l.Email
	}
	props := notionapi.Properties{
		"Name":   notion.Title(name),
		"Email":  notion.Text(sub.Email),
		"Status": notion.Select(sub.Status),
		"Source": notion.Select(string(l.Source)),
	}

	text := map[string]string{
		"First Name": sub.FirstName,
		"Last Name":  sub.LastName,
		"Title":      l.Title,
		"Company":    l.Company,
		"Phone":      l.Phone,
		"Industry":   l.Industry,
		"Location":   l.Location,
	}
	for k, v := range text {
		if v != "" {
			props[k] = notion.Text(v)
		}
	}
	if l.Website != "" {
		props["Website"] = notion.URL(l.Website)
	}
	if l.LinkedIn != "" {
		props["LinkedIn"] = notion.URL(l.LinkedIn)
	}
	if l.ConfidenceScore > 0 {
		props["Confidence"] = notion.Number(float64(l.ConfidenceScore))
	}
	if len(sub.Tags) > 0 {
		props["Tags"] = notion.MultiSelect(sub.Tags)
	}
	return props
}
