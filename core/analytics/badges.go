package analytics

import (
	"sort"
	"strings"

	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

// Badge is an achievement awarded by a rule over an intern's submitted evaluations.
// Badges are recomputed on every pass: one can disappear if the evaluations change.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type badgeRule struct {
	Badge
	earned func(evals []evaluation.Evaluation) bool
}

// Badge IDs
const (
	BadgeDedicatedLearner = "dedicated-learner"
	BadgeElitePerformer   = "elite-performer"
	BadgeRisingStar       = "rising-star"
	BadgeTeamPlayer       = "team-player"
	BadgeAcademicAce      = "academic-ace"
	BadgeWellRounded      = "well-rounded"
)

var catalog = []badgeRule{
	{
		Badge: Badge{ID: BadgeDedicatedLearner, Name: "Dedicated Learner", Description: "Completed at least 2 evaluations", Icon: "book"},
		earned: func(evals []evaluation.Evaluation) bool {
			return len(evals) >= 2
		},
	},
	{
		Badge: Badge{ID: BadgeElitePerformer, Name: "Elite Performer", Description: "Scored 4.8 or higher in an evaluation", Icon: "trophy"},
		earned: func(evals []evaluation.Evaluation) bool {
			for _, evl := range evals {
				if overall(evl) >= 4.8 {
					return true
				}
			}
			return false
		},
	},
	{
		Badge: Badge{ID: BadgeRisingStar, Name: "Rising Star", Description: "Latest score is higher than the first one", Icon: "star"},
		earned: func(evals []evaluation.Evaluation) bool {
			return len(evals) >= 2 && overall(evals[len(evals)-1]) > overall(evals[0])
		},
	},
	{
		Badge: Badge{ID: BadgeTeamPlayer, Name: "Team Player", Description: "Scored 4.5 or higher in social skills", Icon: "users"},
		earned: sectionKeyword("social", 4.5),
	},
	{
		Badge: Badge{ID: BadgeAcademicAce, Name: "Academic Ace", Description: "Scored 4.5 or higher in academics", Icon: "graduation-cap"},
		earned: sectionKeyword("academic", 4.5),
	},
	{
		Badge: Badge{ID: BadgeWellRounded, Name: "Well Rounded", Description: "Scored 4.0 or higher in every section of the latest evaluation", Icon: "circle"},
		earned: func(evals []evaluation.Evaluation) bool {
			if len(evals) == 0 {
				return false
			}
			latest := evals[len(evals)-1]
			if len(latest.SectionScores) == 0 {
				return false
			}
			for _, score := range latest.SectionScores {
				if scoring.Normalize(score, latest.MaxScore) < 4.0 {
					return false
				}
			}
			return true
		},
	},
}

func sectionKeyword(keyword string, min float64) func([]evaluation.Evaluation) bool {
	return func(evals []evaluation.Evaluation) bool {
		for _, evl := range evals {
			for title, score := range evl.SectionScores {
				if strings.Contains(strings.ToLower(title), keyword) && scoring.Normalize(score, evl.MaxScore) >= min {
					return true
				}
			}
		}
		return false
	}
}

// Catalog returns every known badge.
func Catalog() []Badge {
	badges := make([]Badge, 0, len(catalog))
	for _, r := range catalog {
		badges = append(badges, r.Badge)
	}
	return badges
}

// EvaluateBadges returns the badges earned by the evaluations of one intern, in catalog order.
// Evaluations with no rated item are ignored.
func EvaluateBadges(evals []evaluation.Evaluation) []Badge {
	history := chronological(evals)
	badges := make([]Badge, 0)
	for _, r := range catalog {
		if r.earned(history) {
			badges = append(badges, r.Badge)
		}
	}
	return badges
}

// overall returns the evaluation's overall score on a 5-point scale.
func overall(evl evaluation.Evaluation) float64 {
	return scoring.Normalize(evl.OverallScore, evl.MaxScore)
}

// chronological returns the evaluated evaluations by creation time, oldest first.
// Resubmitting a reopened evaluation does not move it.
func chronological(evals []evaluation.Evaluation) []evaluation.Evaluation {
	out := make([]evaluation.Evaluation, 0, len(evals))
	for _, evl := range evals {
		if evl.IsEvaluated() {
			out = append(out, evl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
