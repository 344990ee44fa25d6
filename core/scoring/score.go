package scoring

import (
	"sort"

	"github.com/Evenson-7/OJTManagement-sub000/core"
)

// Method selects how section ratings are combined into an overall score.
type Method string

const (
	// MethodFlat pools every rated item of every section into one average.
	MethodFlat Method = "flat"
	// MethodWeighted averages the section scores with fixed section weights,
	// renormalized over the sections that have at least one rated item.
	MethodWeighted Method = "weighted"
)

func (m Method) IsValid() bool {
	return m == MethodFlat || m == MethodWeighted
}

// InvalidRating is a rating value that does not resolve against the active scale.
type InvalidRating struct {
	Section string `json:"section,omitempty"`
	Item    string `json:"item"`
	Value   string `json:"value"`
}

// SectionResult is the outcome of scoring one section.
type SectionResult struct {
	Score   float64         `json:"score"` // rounded to 2 decimals
	Rated   int             `json:"rated"`
	Sum     float64         `json:"-"`
	Invalid []InvalidRating `json:"invalid,omitempty"`
}

func (r SectionResult) mean() float64 {
	if r.Rated == 0 {
		return 0
	}
	return r.Sum / float64(r.Rated)
}

// ScoreSection averages the resolved scores of the given item ratings.
// Unset values are ignored; values that do not resolve are excluded from
// both the sum and the count and reported in Invalid.
func ScoreSection(scale Scale, ratings map[string]string) SectionResult {
	var res SectionResult
	for _, itemID := range sortedKeys(ratings) {
		value := ratings[itemID]
		if core.CleanString(value) == "" {
			continue
		}
		lvl, ok := scale.Resolve(value)
		if !ok {
			res.Invalid = append(res.Invalid, InvalidRating{Item: itemID, Value: value})
			continue
		}
		res.Sum += lvl.Score
		res.Rated++
	}
	res.Score = core.Round(res.mean(), 2)
	return res
}

// SectionScore returns the mean score of a section's ratings, or 0 when none resolve.
func SectionScore(scale Scale, ratings map[string]string) float64 {
	return ScoreSection(scale, ratings).Score
}

// Section is the input of the overall calculator.
type Section struct {
	Key     string
	Weight  float64
	Ratings map[string]string
}

// SectionOutcome is the scored counterpart of a Section.
type SectionOutcome struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
	Rated int     `json:"rated"`
}

// Result is the outcome of scoring a whole evaluation.
type Result struct {
	Overall  float64          `json:"overall"`
	Sections []SectionOutcome `json:"sections"`
	Rated    int              `json:"rated"`
	Max      float64          `json:"max"`
	Invalid  []InvalidRating  `json:"invalid,omitempty"`
}

// Evaluated reports whether at least one item was rated.
// A zero overall score with nothing rated means "not yet evaluated", not a real zero.
func (r Result) Evaluated() bool {
	return r.Rated > 0
}

// Overall scores every section and combines them with the given method.
func Overall(scale Scale, method Method, sections []Section) Result {
	res := Result{Max: scale.Max(), Sections: make([]SectionOutcome, 0, len(sections))}

	var (
		pooledSum   float64
		weightedSum float64
		weightTotal float64
	)
	for _, sec := range sections {
		sr := ScoreSection(scale, sec.Ratings)
		for _, inv := range sr.Invalid {
			inv.Section = sec.Key
			res.Invalid = append(res.Invalid, inv)
		}
		res.Sections = append(res.Sections, SectionOutcome{Key: sec.Key, Score: sr.Score, Rated: sr.Rated})
		res.Rated += sr.Rated
		pooledSum += sr.Sum

		if sr.Rated > 0 && sec.Weight > 0 {
			weightedSum += sr.mean() * sec.Weight
			weightTotal += sec.Weight
		}
	}

	if res.Rated == 0 {
		return res
	}
	if method == MethodWeighted && weightTotal > 0 {
		res.Overall = core.Round(weightedSum/weightTotal, 2)
	} else {
		res.Overall = core.Round(pooledSum/float64(res.Rated), 2)
	}
	return res
}

// Normalize maps a score expressed on a 0..max scale onto a 5-point scale.
func Normalize(score, max float64) float64 {
	if max <= 0 || max == 5 {
		return score
	}
	return score / max * 5
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
