package analytics

import (
	"math"
	"sort"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

// Trend classifies the latest score of an intern against their own average.
type Trend string

const (
	TrendImproving Trend = "Improving"
	TrendDeclining Trend = "Declining"
	TrendStable    Trend = "Stable"
	TrendNone      Trend = "N/A" // fewer than 2 evaluations
)

// SubjectStats is one leaderboard row. Scores are on a 5-point scale, and 0 when
// the intern has no evaluation yet.
type SubjectStats struct {
	InternID         string        `json:"intern_id"`
	Name             string        `json:"name"`
	Department       string        `json:"department"`
	Rank             int           `json:"rank"`
	EvaluationCount  int           `json:"evaluation_count"`
	AverageScore     float64       `json:"average_score"`
	LatestScore      float64       `json:"latest_score"`
	Trend            Trend         `json:"trend"`
	Badges           []Badge       `json:"badges"`
	Strengths        []SectionStat `json:"strengths"`
	ImprovementAreas []SectionStat `json:"improvement_areas"`
}

type SubjectScore struct {
	InternID string  `json:"intern_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
}

// SectionSummary aggregates one section title across the cohort.
type SectionSummary struct {
	Section    string         `json:"section"`
	Average    float64        `json:"average"`
	Count      int            `json:"count"`
	Excelling  []SubjectScore `json:"excelling"`
	Struggling []SubjectScore `json:"struggling"`
}

type Insights struct {
	CohortAverage     float64         `json:"cohort_average"`
	TotalSubjects     int             `json:"total_subjects"`
	EvaluatedSubjects int             `json:"evaluated_subjects"`
	TotalEvaluations  int             `json:"total_evaluations"`
	TopPerformer      *SubjectScore   `json:"top_performer,omitempty"`
	MostImproved      *SubjectScore   `json:"most_improved,omitempty"` // score is the gain since the first evaluation
	StrongestSection  *SectionSummary `json:"strongest_section,omitempty"`
	WeakestSection    *SectionSummary `json:"weakest_section,omitempty"`
}

// CohortAnalytics is derived on demand and never stored.
type CohortAnalytics struct {
	Leaderboard []SubjectStats   `json:"leaderboard"`
	Sections    []SectionSummary `json:"sections"`
	Insights    Insights         `json:"insights"`
	// Skipped counts the records left out: not submitted, unknown intern or unreadable scores.
	Skipped int `json:"skipped"`
	// Unevaluated counts the submitted evaluations without any rated item.
	Unevaluated int `json:"unevaluated"`
}

func wellFormed(evl evaluation.Evaluation) bool {
	if math.IsNaN(evl.OverallScore) || math.IsInf(evl.OverallScore, 0) || evl.OverallScore < 0 || evl.MaxScore < 0 {
		return false
	}
	if overall(evl) > 5.0001 {
		return false
	}
	for _, s := range evl.SectionScores {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return false
		}
	}
	return true
}

func trendOf(history []evaluation.Evaluation, average float64, th Thresholds) Trend {
	if len(history) < 2 {
		return TrendNone
	}
	diff := core.Round(overall(history[len(history)-1])-average, 2)
	switch {
	case diff >= th.Trend:
		return TrendImproving
	case diff <= -th.Trend:
		return TrendDeclining
	}
	return TrendStable
}

func subjectStats(u user.User, history []evaluation.Evaluation, th Thresholds) SubjectStats {
	stats := SubjectStats{
		InternID:         u.ID,
		Name:             u.Name,
		Department:       u.Department,
		EvaluationCount:  len(history),
		Trend:            TrendNone,
		Badges:           []Badge{},
		Strengths:        []SectionStat{},
		ImprovementAreas: []SectionStat{},
	}
	if len(history) == 0 {
		return stats
	}

	var sum float64
	for _, evl := range history {
		sum += overall(evl)
	}
	avg := sum / float64(len(history))
	stats.AverageScore = core.Round(avg, 2)
	stats.LatestScore = core.Round(overall(history[len(history)-1]), 2)
	stats.Trend = trendOf(history, avg, th)
	stats.Badges = EvaluateBadges(history)

	a := AnalyzeSections(history, th)
	stats.Strengths, stats.ImprovementAreas = a.Strengths, a.ImprovementAreas
	return stats
}

// ComputeCohort derives the cohort analytics of roster from evals. It is a pure function:
// evaluations that are not submitted, belong to nobody in roster or carry unreadable
// scores are skipped and counted, and evaluations without rated items count as unevaluated.
// Every roster member gets a leaderboard row. Members without evaluations rank last
// with zero counts and stay out of the cohort average.
func ComputeCohort(evals []evaluation.Evaluation, roster []user.User, th Thresholds) CohortAnalytics {
	res := CohortAnalytics{Leaderboard: []SubjectStats{}, Sections: []SectionSummary{}}

	members := make(map[string]user.User, len(roster))
	for _, u := range roster {
		members[u.ID] = u
	}

	byIntern := make(map[string][]evaluation.Evaluation)
	for _, evl := range evals {
		if _, ok := members[evl.InternID]; !ok || !evl.Status.IsTerminal() || !wellFormed(evl) {
			res.Skipped++
			continue
		}
		if !evl.IsEvaluated() {
			res.Unevaluated++
			continue
		}
		byIntern[evl.InternID] = append(byIntern[evl.InternID], evl)
	}

	type sectionAcc struct {
		all      meanAcc
		subjects map[string]float64 // intern ID -> mean
	}
	sections := make(map[string]*sectionAcc)
	var mostImproved *SubjectScore
	var avgSum float64

	for _, u := range members {
		history := chronological(byIntern[u.ID])
		stats := subjectStats(u, history, th)
		res.Leaderboard = append(res.Leaderboard, stats)
		if len(history) == 0 {
			continue
		}
		res.Insights.EvaluatedSubjects++
		res.Insights.TotalEvaluations += len(history)
		avgSum += stats.AverageScore

		for title, acc := range sectionMeans(history) {
			sa, ok := sections[title]
			if !ok {
				sa = &sectionAcc{subjects: make(map[string]float64)}
				sections[title] = sa
			}
			sa.all.sum += acc.sum
			sa.all.count += acc.count
			sa.subjects[u.ID] = acc.mean()
		}

		if len(history) >= 2 {
			gain := core.Round(overall(history[len(history)-1])-overall(history[0]), 2)
			if gain > 0 && (mostImproved == nil || gain > mostImproved.Score ||
				(gain == mostImproved.Score && lessByName(u.Name, u.ID, mostImproved.Name, mostImproved.InternID))) {
				mostImproved = &SubjectScore{InternID: u.ID, Name: u.Name, Score: gain}
			}
		}
	}

	sort.Slice(res.Leaderboard, func(i, j int) bool {
		a, b := res.Leaderboard[i], res.Leaderboard[j]
		if (a.EvaluationCount > 0) != (b.EvaluationCount > 0) {
			return a.EvaluationCount > 0
		}
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		if a.EvaluationCount != b.EvaluationCount {
			return a.EvaluationCount > b.EvaluationCount
		}
		return lessByName(a.Name, a.InternID, b.Name, b.InternID)
	})
	for i := range res.Leaderboard {
		res.Leaderboard[i].Rank = i + 1
	}

	for title, sa := range sections {
		sum := SectionSummary{
			Section:    title,
			Average:    core.Round(sa.all.mean(), 2),
			Count:      sa.all.count,
			Excelling:  []SubjectScore{},
			Struggling: []SubjectScore{},
		}
		for id, mean := range sa.subjects {
			ss := SubjectScore{InternID: id, Name: members[id].Name, Score: core.Round(mean, 2)}
			if ss.Score >= th.Excelling {
				sum.Excelling = append(sum.Excelling, ss)
			}
			if ss.Score <= th.Struggling {
				sum.Struggling = append(sum.Struggling, ss)
			}
		}
		sortScores(sum.Excelling, true)
		sortScores(sum.Struggling, false)
		res.Sections = append(res.Sections, sum)
	}
	sort.Slice(res.Sections, func(i, j int) bool { return res.Sections[i].Section < res.Sections[j].Section })

	ins := &res.Insights
	ins.TotalSubjects = len(members)
	ins.MostImproved = mostImproved
	if n := ins.EvaluatedSubjects; n > 0 {
		ins.CohortAverage = core.Round(avgSum/float64(n), 2)
		top := res.Leaderboard[0]
		ins.TopPerformer = &SubjectScore{InternID: top.InternID, Name: top.Name, Score: top.AverageScore}
	}
	for i := range res.Sections {
		s := res.Sections[i]
		if ins.StrongestSection == nil || s.Average > ins.StrongestSection.Average {
			ins.StrongestSection = &res.Sections[i]
		}
		if ins.WeakestSection == nil || s.Average < ins.WeakestSection.Average {
			ins.WeakestSection = &res.Sections[i]
		}
	}
	return res
}

func lessByName(nameA, idA, nameB, idB string) bool {
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

func sortScores(scores []SubjectScore, desc bool) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			if desc {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		return lessByName(a.Name, a.InternID, b.Name, b.InternID)
	})
}
