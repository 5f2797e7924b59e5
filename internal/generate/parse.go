package generate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

// DefaultConfidence is assigned to generated leads that carry no score.
const DefaultConfidence = 70

// FlexString accepts a JSON string, number, bool or array of those.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = FlexString(strings.TrimSpace(stringify(v)))
	return nil
}

// FlexStrings accepts a JSON array or a comma-separated string.
type FlexStrings []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexStrings) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if str := strings.TrimSpace(stringify(item)); str != "" {
				out = append(out, str)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	*s = out
	return nil
}

// FlexInt accepts a JSON number or numeric string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*n = FlexInt(math.Round(t))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err == nil {
			*n = FlexInt(math.Round(f))
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

type rawLead struct {
	ID                FlexString  `json:"id"`
	Email             FlexString  `json:"email"`
	Name              FlexString  `json:"name"`
	Title             FlexString  `json:"title"`
	Company           FlexString  `json:"company"`
	Phone             FlexString  `json:"phone"`
	LinkedIn          FlexString  `json:"linkedin"`
	Website           FlexString  `json:"website"`
	Industry          FlexString  `json:"industry"`
	Location          FlexString  `json:"location"`
	Employees         FlexString  `json:"employees"`
	PersonalEmail     FlexString  `json:"personalEmail"`
	DirectPhone       FlexString  `json:"directPhone"`
	Mobile            FlexString  `json:"mobile"`
	Education         FlexString  `json:"education"`
	PreviousCompanies FlexStrings `json:"previousCompanies"`
	Technologies      FlexStrings `json:"technologies"`
	Founded           FlexString  `json:"founded"`
	Revenue           FlexString  `json:"revenue"`
	CompanySize       FlexString  `json:"companySize"`
	Interests         FlexStrings `json:"interests"`
	ConfidenceScore   FlexInt     `json:"confidenceScore"`
}

// lead converts r. ID is whatever the model echoed back; it only matches
// enrichment replies to their input leads and is never stored.
func (r rawLead) lead() model.Lead {
	l := model.Lead{
		ID:                string(r.ID),
		Email:             model.NormalizeEmail(string(r.Email)),
		Name:              string(r.Name),
		Title:             string(r.Title),
		Company:           string(r.Company),
		Phone:             string(r.Phone),
		LinkedIn:          string(r.LinkedIn),
		Website:           string(r.Website),
		Industry:          string(r.Industry),
		Location:          string(r.Location),
		Employees:         string(r.Employees),
		PersonalEmail:     model.NormalizeEmail(string(r.PersonalEmail)),
		DirectPhone:       string(r.DirectPhone),
		Mobile:            string(r.Mobile),
		Education:         string(r.Education),
		PreviousCompanies: r.PreviousCompanies,
		Technologies:      r.Technologies,
		Founded:           string(r.Founded),
		Revenue:           string(r.Revenue),
		CompanySize:       string(r.CompanySize),
		Interests:         r.Interests,
		ConfidenceScore:   model.ClampConfidence(int(r.ConfidenceScore)),
		Source:            model.SourceAI,
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.ConfidenceScore == 0 {
		l.ConfidenceScore = DefaultConfidence
	}
	return l
}

// ParseLeads extracts the lead array from a model reply. Code fences and
// surrounding prose are ignored, malformed JSON is repaired when possible,
// and an unusable reply yields an empty slice.
func ParseLeads(text string) []model.Lead {
	span := jsonArray(text)
	if span == "" {
		zap.L().Debug("generate: no json array in reply", zap.Int("len", len(text)))
		return []model.Lead{}
	}

	var raws []rawLead
	if err := json.Unmarshal([]byte(span), &raws); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(span)
		if rerr != nil {
			zap.L().Debug("generate: unrepairable reply", zap.Error(err))
			return []model.Lead{}
		}
		raws = nil
		if err := json.Unmarshal([]byte(repaired), &raws); err != nil {
			zap.L().Debug("generate: repaired reply still invalid", zap.Error(err))
			return []model.Lead{}
		}
	}

	leads := make([]model.Lead, 0, len(raws))
	for _, r := range raws {
		if r.Email == "" && r.Name == "" {
			continue
		}
		leads = append(leads, r.lead())
	}
	return leads
}

// jsonArray strips code fences and returns the text between the first '['
// and the last ']'. A reply cut off before its closing bracket returns the
// tail from '[' so the repair step can close it.
func jsonArray(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	switch {
	case start < 0:
		return ""
	case end <= start:
		return text[start:]
	}
	return text[start : end+1]
}
