// Package enrich backfills secondary lead attributes with one generative
// call, falling back to locally fabricated values.
package enrich

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/fabricate"
	"github.com/sells-group/lead-finder/internal/generate"
	"github.com/sells-group/lead-finder/internal/model"
)

// Result reports how each lead was enriched.
type Result struct {
	Leads     []model.Lead `json:"leads"`
	Threshold Threshold    `json:"threshold"`
	AI        int          `json:"ai"`
	Local     int          `json:"local"`
	Error     string       `json:"error,omitempty"`
}

// Enricher enriches leads.
type Enricher struct {
	gen    generate.Generator
	tables *fabricate.Tables
}

// New creates an Enricher. gen may be nil, in which case every lead is
// enriched locally.
func New(gen generate.Generator, tables *fabricate.Tables) *Enricher {
	return &Enricher{gen: gen, tables: tables}
}

// Enrich returns leads in input order with secondary attributes filled.
// The model reply is matched back by id, or by email when the model lost
// the id. Leads the model skipped, or all of them if the call failed, are
// enriched from the local tables. Confidence is drawn from th's range and
// never lowered. Only a cancelled ctx is returned as an error.
func (e *Enricher) Enrich(ctx context.Context, leads []model.Lead, th Threshold) (*Result, error) {
	res := &Result{Leads: make([]model.Lead, len(leads)), Threshold: th}
	if len(leads) == 0 {
		return res, nil
	}

	in := make([]model.Lead, len(leads))
	for i, l := range leads {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		in[i] = l
	}

	byID, byEmail := e.generate(ctx, in, th, res)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: cancelled")
	}

	for i, l := range in {
		update, ok := byID[l.ID]
		if !ok {
			update, ok = byEmail[model.NormalizeEmail(l.Email)]
		}
		if ok {
			update.EnrichedBy = model.SourceAI
			res.AI++
		} else {
			update = e.tables.Enrichment(l)
			res.Local++
		}

		out := merge(l, update)
		score := th.clamp(update.ConfidenceScore, l.Email)
		out.ConfidenceScore = max(score, l.ConfidenceScore)
		res.Leads[i] = out
	}

	zap.L().Info("enrich: complete",
		zap.Int("leads", len(in)),
		zap.Int("ai", res.AI),
		zap.Int("local", res.Local),
		zap.String("threshold", string(th)),
	)
	return res, nil
}

// generate makes the single model call and indexes the reply. Failures
// are recorded on res and leave both maps empty.
func (e *Enricher) generate(ctx context.Context, leads []model.Lead, th Threshold, res *Result) (map[string]model.Lead, map[string]model.Lead) {
	byID := map[string]model.Lead{}
	byEmail := map[string]model.Lead{}
	if e.gen == nil {
		return byID, byEmail
	}

	lo, hi := th.Range()
	prompt, err := generate.EnrichPrompt(leads, lo, hi)
	if err != nil {
		res.Error = err.Error()
		return byID, byEmail
	}
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		res.Error = err.Error()
		zap.L().Warn("enrich: generative call failed, using local enrichment",
			zap.String("provider", e.gen.Name()),
			zap.Error(err),
		)
		return byID, byEmail
	}

	for _, l := range generate.ParseLeads(text) {
		byID[l.ID] = l
		if l.Email != "" {
			byEmail[l.Email] = l
		}
	}
	return byID, byEmail
}
