package match

import (
	"reflect"
	"sort"
)

// Field is a named, typed slot that may be matched against.
// Type may be nil when only names are known.
type Field struct {
	Name string
	Type reflect.Type
}

// Candidate is a potential match for a wanted field.
type Candidate struct {
	Field Field

	NameScore     float64
	TypeCompat    TypeCompatibility
	CombinedScore float64
}

// CandidateList is a list of candidates ordered best first.
type CandidateList []Candidate

// Score weights.
const (
	nameWeight = 0.6
	typeWeight = 0.4
)

// Thresholds.
const (
	// DefaultSuggestScore is the minimum name similarity for a suggestion.
	DefaultSuggestScore = 0.5
	// DefaultSuggestLimit caps the number of suggestions per diagnostic.
	DefaultSuggestLimit = 3
)

// RankCandidates scores every field against the wanted name and type.
// When want is nil only names are compared.
func RankCandidates(name string, want reflect.Type, fields []Field) CandidateList {
	candidates := make(CandidateList, 0, len(fields))

	for _, f := range fields {
		c := Candidate{Field: f, NameScore: NameSimilarity(f.Name, name)}

		if want == nil || f.Type == nil {
			c.CombinedScore = c.NameScore
		} else {
			c.TypeCompat = ScoreTypeCompatibility(f.Type, want)
			c.CombinedScore = c.NameScore*nameWeight + c.TypeCompat.Weight()*typeWeight
		}

		candidates = append(candidates, c)
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to DefaultSuggestLimit known names that look like name.
func Suggest(name string, known []string) []string {
	fields := make([]Field, len(known))
	for i, k := range known {
		fields[i] = Field{Name: k}
	}

	var out []string

	for _, c := range RankCandidates(name, nil, fields).AboveThreshold(DefaultSuggestScore).Top(DefaultSuggestLimit) {
		if c.Field.Name != name {
			out = append(out, c.Field.Name)
		}
	}

	return out
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less orders by combined score descending, then by name.
func (c CandidateList) Less(i, j int) bool {
	if c[i].CombinedScore != c[j].CombinedScore {
		return c[i].CombinedScore > c[j].CombinedScore
	}

	return c[i].Field.Name < c[j].Field.Name
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Best returns the best candidate, or nil if no candidates.
func (c CandidateList) Best() *Candidate {
	if len(c) == 0 {
		return nil
	}

	return &c[0]
}

// AboveThreshold returns candidates with combined score at or above the threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.CombinedScore >= threshold {
			result = append(result, cand)
		}
	}

	return result
}
