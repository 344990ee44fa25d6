// Package analytics derives rankings, trends, section statistics and badges
// from submitted evaluations. Everything here is recomputed on demand and
// nothing is persisted.
package analytics

import (
	"fmt"
	"sort"

	"github.com/kat-co/vala"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

// Thresholds are expressed on a 5-point scale.
type Thresholds struct {
	Excelling   float64 `json:"excelling"`    // a subject excels in a section at or above this mean
	Struggling  float64 `json:"struggling"`   // a subject struggles in a section at or below this mean
	Strength    float64 `json:"strength"`     // strengths are sections at or above this mean
	Improvement float64 `json:"improvement"`  // improvement areas are sections below this mean
	Trend       float64 `json:"trend"`        // minimum gap between the latest score and the average to call a trend
	TopSections int     `json:"top_sections"` // length of the strengths and improvement lists
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Excelling:   4.5,
		Struggling:  3.5,
		Strength:    3.5,
		Improvement: 4.0,
		Trend:       0.15,
		TopSections: 3,
	}
}

func ThresholdsFromConfig(conf core.AnalyticsConfig) Thresholds {
	return Thresholds{
		Excelling:   conf.ExcellingThreshold,
		Struggling:  conf.StrugglingThreshold,
		Strength:    conf.StrengthThreshold,
		Improvement: conf.ImprovementThreshold,
		Trend:       conf.TrendThreshold,
		TopSections: conf.TopSections,
	}
}

func inRange(v, lo, hi float64, name string) vala.Checker {
	return func() (bool, string) {
		return v >= lo && v <= hi, fmt.Sprintf("%s must be between %g and %g (got %g)", name, lo, hi, v)
	}
}

func (th Thresholds) Validate() error {
	return vala.BeginValidation().Validate(
		inRange(th.Excelling, 0, 5, "excellingThreshold"),
		inRange(th.Struggling, 0, 5, "strugglingThreshold"),
		inRange(th.Strength, 0, 5, "strengthThreshold"),
		inRange(th.Improvement, 0, 5, "improvementThreshold"),
		inRange(th.Trend, 0, 5, "trendThreshold"),
		vala.GreaterThan(th.TopSections, 0, "topSections"),
	).Check()
}

// SectionStat is the mean score of one section title.
type SectionStat struct {
	Section string  `json:"section"`
	Score   float64 `json:"score"`
}

// Analysis ranks the sections of one subject.
type Analysis struct {
	Strengths        []SectionStat `json:"strengths"`
	ImprovementAreas []SectionStat `json:"improvement_areas"`
}

type meanAcc struct {
	sum   float64
	count int
}

func (a *meanAcc) add(v float64) {
	a.sum += v
	a.count++
}

func (a meanAcc) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// sectionMeans buckets the section scores of evals by trimmed title, normalized to a 5-point scale.
func sectionMeans(evals []evaluation.Evaluation) map[string]*meanAcc {
	buckets := make(map[string]*meanAcc)
	for _, evl := range evals {
		if !evl.IsEvaluated() {
			continue
		}
		for title, score := range evl.SectionScores {
			title = core.CleanString(title)
			if title == "" {
				continue
			}
			acc, ok := buckets[title]
			if !ok {
				acc = new(meanAcc)
				buckets[title] = acc
			}
			acc.add(scoring.Normalize(score, evl.MaxScore))
		}
	}
	return buckets
}

// AnalyzeSections averages the section scores of a subject's evaluations by section title.
// Strengths are the means at or above th.Strength, best first; improvement areas
// the means below th.Improvement, worst first. The two ranges overlap on purpose.
func AnalyzeSections(evals []evaluation.Evaluation, th Thresholds) Analysis {
	res := Analysis{Strengths: []SectionStat{}, ImprovementAreas: []SectionStat{}}

	stats := make([]SectionStat, 0)
	for title, acc := range sectionMeans(evals) {
		stats = append(stats, SectionStat{Section: title, Score: core.Round(acc.mean(), 2)})
	}

	for _, s := range stats {
		if s.Score >= th.Strength {
			res.Strengths = append(res.Strengths, s)
		}
		if s.Score < th.Improvement {
			res.ImprovementAreas = append(res.ImprovementAreas, s)
		}
	}
	sort.Slice(res.Strengths, func(i, j int) bool {
		a, b := res.Strengths[i], res.Strengths[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Section < b.Section
	})
	sort.Slice(res.ImprovementAreas, func(i, j int) bool {
		a, b := res.ImprovementAreas[i], res.ImprovementAreas[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Section < b.Section
	})
	if len(res.Strengths) > th.TopSections {
		res.Strengths = res.Strengths[:th.TopSections]
	}
	if len(res.ImprovementAreas) > th.TopSections {
		res.ImprovementAreas = res.ImprovementAreas[:th.TopSections]
	}
	return res
}
