// Package fabricate generates clearly labelled synthetic leads and
// enrichment attributes from fixed lookup tables. Output is deterministic
// for a given input.
package fabricate

import (
	_ "embed"
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// IndustryTable holds per-industry vocabularies.
type IndustryTable struct {
	Roles             []string `yaml:"roles"`
	Technologies      []string `yaml:"technologies"`
	PreviousCompanies []string `yaml:"previous_companies"`
	Interests         []string `yaml:"interests"`
}

// Band maps an employee-count range to company attributes. Max of zero
// means unbounded.
type Band struct {
	Min         int    `yaml:"min"`
	Max         int    `yaml:"max"`
	Employees   string `yaml:"employees"`
	CompanySize string `yaml:"company_size"`
	Revenue     string `yaml:"revenue"`
	FoundedMin  int    `yaml:"founded_min"`
	FoundedMax  int    `yaml:"founded_max"`
}

// Tables is the parsed lookup data.
type Tables struct {
	FirstNames      []string                 `yaml:"first_names"`
	LastNames       []string                 `yaml:"last_names"`
	Locations       []string                 `yaml:"locations"`
	AreaCodes       []string                 `yaml:"area_codes"`
	CompanyPrefixes []string                 `yaml:"company_prefixes"`
	CompanySuffixes []string                 `yaml:"company_suffixes"`
	PersonalDomains []string                 `yaml:"personal_email_domains"`
	Universities    []string                 `yaml:"universities"`
	Degrees         []string                 `yaml:"degrees"`
	EmployeeBands   []Band                   `yaml:"employee_bands"`
	Industries      map[string]IndustryTable `yaml:"industries"`

	industryNames []string
}

const fallbackIndustry = "Other"

// ParseTables parses YAML lookup data and checks it is usable.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "fabricate: parse tables")
	}
	if len(t.FirstNames) == 0 || len(t.LastNames) == 0 || len(t.EmployeeBands) == 0 {
		return nil, eris.New("fabricate: tables missing names or employee bands")
	}
	if _, ok := t.Industries[fallbackIndustry]; !ok {
		return nil, eris.Errorf("fabricate: tables missing %q industry", fallbackIndustry)
	}
	for name := range t.Industries {
		t.industryNames = append(t.industryNames, name)
	}
	sort.Strings(t.industryNames)
	return &t, nil
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	return ParseTables(tablesYAML)
})

// DefaultTables returns the embedded lookup tables.
func DefaultTables() (*Tables, error) {
	return defaultTables()
}

// Industry returns the table whose name best matches want and its
// canonical name. Unknown industries map to "Other".
func (t *Tables) Industry(want string) (string, IndustryTable) {
	w := strings.ToLower(strings.TrimSpace(want))
	if w != "" {
		for _, name := range t.industryNames {
			n := strings.ToLower(name)
			if strings.Contains(n, w) || strings.Contains(w, n) {
				return name, t.Industries[name]
			}
		}
	}
	return fallbackIndustry, t.Industries[fallbackIndustry]
}

var firstNumberRe = regexp.MustCompile(`\d[\d,]*`)

// BandFor returns the band containing the first number in employees,
// e.g. "51-200" or "1,200+". ok is false when employees has no number.
func (t *Tables) BandFor(employees string) (Band, bool) {
	m := firstNumberRe.FindString(employees)
	if m == "" {
		return Band{}, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return Band{}, false
	}
	for _, b := range t.EmployeeBands {
		if n >= b.Min && (b.Max == 0 || n <= b.Max) {
			return b, true
		}
	}
	return t.EmployeeBands[0], true
}

// seeded returns a generator seeded from the FNV hash of parts.
func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(p)))
		h.Write([]byte{0})
	}
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>1|1))
}

func pick(r *rand.Rand, from []string) string {
	if len(from) == 0 {
		return ""
	}
	return from[r.IntN(len(from))]
}

// pickN returns n distinct values from from, in a random order.
func pickN(r *rand.Rand, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	idx := r.Perm(len(from))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}
