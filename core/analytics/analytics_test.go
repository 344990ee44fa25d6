package analytics

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	"github.com/Evenson-7/OJTManagement-sub000/internal/testutil"
)

var day0 = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

// submitted returns a submitted evaluation on a 5-point scale, `n` days after day0.
func submitted(id, internID string, n int, overall float64, sections map[string]float64) evaluation.Evaluation {
	at := day0.AddDate(0, 0, n)
	return evaluation.Evaluation{
		ID:            id,
		InternID:      internID,
		Status:        evaluation.StatusSubmitted,
		Type:          evaluation.TypeRegular,
		OverallScore:  overall,
		SectionScores: sections,
		RatedItems:    1,
		MaxScore:      5,
		CreatedAt:     at,
		UpdatedAt:     at,
		SubmittedAt:   &at,
	}
}

func intern(id, name string) user.User {
	return user.User{ID: id, Name: name, Role: user.RoleIntern, Department: "IT"}
}

func badgeIDs(badges []Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.NoError(t, th.Validate())
	assert.Equal(t, th, ThresholdsFromConfig(core.NewTestConfig().Analytics))

	th.Trend = -1
	assert.Error(t, th.Validate())

	th = DefaultThresholds()
	th.TopSections = 0
	assert.Error(t, th.Validate())
}

func TestComputeCohort_TwoEvaluations(t *testing.T) {
	x := intern("x", "Xavier")
	evals := []evaluation.Evaluation{
		submitted("e2", "x", 7, 4.0, map[string]float64{"Academic": 4.0}),
		submitted("e1", "x", 0, 3.0, map[string]float64{"Academic": 3.0}),
	}

	res := ComputeCohort(evals, []user.User{x}, DefaultThresholds())
	require.Len(t, res.Leaderboard, 1)

	stats := res.Leaderboard[0]
	assert.Equal(t, 1, stats.Rank)
	assert.Equal(t, 2, stats.EvaluationCount)
	assert.Equal(t, 3.5, stats.AverageScore)
	assert.Equal(t, 4.0, stats.LatestScore)
	assert.Equal(t, TrendImproving, stats.Trend)
	assert.Equal(t, []SectionStat{{Section: "Academic", Score: 3.5}}, stats.Strengths)
	assert.Equal(t, []SectionStat{{Section: "Academic", Score: 3.5}}, stats.ImprovementAreas)
	assert.Contains(t, badgeIDs(stats.Badges), BadgeRisingStar)
	assert.Equal(t, []string{BadgeDedicatedLearner, BadgeRisingStar, BadgeWellRounded}, badgeIDs(stats.Badges))

	assert.Equal(t, 3.5, res.Insights.CohortAverage)
	assert.Equal(t, 1, res.Insights.EvaluatedSubjects)
	assert.Equal(t, 2, res.Insights.TotalEvaluations)
	require.NotNil(t, res.Insights.MostImproved)
	assert.Equal(t, 1.0, res.Insights.MostImproved.Score)
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   Trend
	}{
		{"single evaluation", []float64{4.0}, TrendNone},
		{"improving", []float64{3.0, 4.0}, TrendImproving},
		{"declining", []float64{4.5, 3.5}, TrendDeclining},
		{"stable", []float64{4.0, 4.2}, TrendStable},
		{"threshold is inclusive", []float64{3.7, 4.0}, TrendImproving}, // avg 3.85, gap 0.15
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evals := make([]evaluation.Evaluation, 0, len(tc.scores))
			for i, s := range tc.scores {
				evals = append(evals, submitted(string(rune('a'+i)), "x", i, s, nil))
			}
			res := ComputeCohort(evals, []user.User{intern("x", "Xavier")}, DefaultThresholds())
			require.Len(t, res.Leaderboard, 1)
			assert.Equal(t, tc.want, res.Leaderboard[0].Trend)
		})
	}
}

func TestEvaluateBadges(t *testing.T) {
	tests := []struct {
		name    string
		evals   []evaluation.Evaluation
		present []string
		absent  []string
	}{
		{
			name:    "elite at 4.9",
			evals:   []evaluation.Evaluation{submitted("e1", "x", 0, 4.9, nil)},
			present: []string{BadgeElitePerformer},
			absent:  []string{BadgeDedicatedLearner, BadgeRisingStar},
		},
		{
			name:   "no elite at 4.7",
			evals:  []evaluation.Evaluation{submitted("e1", "x", 0, 4.7, nil)},
			absent: []string{BadgeElitePerformer},
		},
		{
			name: "rising star compares the first and latest submissions",
			evals: []evaluation.Evaluation{
				submitted("e2", "x", 5, 3.0, nil),
				submitted("e1", "x", 0, 4.0, nil),
			},
			present: []string{BadgeDedicatedLearner},
			absent:  []string{BadgeRisingStar},
		},
		{
			name: "section keywords",
			evals: []evaluation.Evaluation{
				submitted("e1", "x", 0, 4.5, map[string]float64{"Social Skills": 4.5, "Academic Performance": 4.6}),
			},
			present: []string{BadgeTeamPlayer, BadgeAcademicAce, BadgeWellRounded},
		},
		{
			name: "well rounded looks at the latest evaluation only",
			evals: []evaluation.Evaluation{
				submitted("e1", "x", 0, 4.5, map[string]float64{"Behavior": 4.5}),
				submitted("e2", "x", 1, 4.0, map[string]float64{"Behavior": 4.5, "Cost-Consciousness": 3.9}),
			},
			absent: []string{BadgeWellRounded},
		},
		{
			name: "scores on other scales are normalized",
			evals: func() []evaluation.Evaluation {
				e := submitted("e1", "x", 0, 9.7, map[string]float64{"Social": 9.0})
				e.MaxScore = 10
				return []evaluation.Evaluation{e}
			}(),
			present: []string{BadgeElitePerformer, BadgeTeamPlayer},
		},
		{
			name: "evaluations without ratings are ignored",
			evals: func() []evaluation.Evaluation {
				e := submitted("e1", "x", 0, 0, nil)
				e.RatedItems = 0
				return []evaluation.Evaluation{e, submitted("e2", "x", 1, 4.9, nil)}
			}(),
			present: []string{BadgeElitePerformer},
			absent:  []string{BadgeDedicatedLearner},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ids := badgeIDs(EvaluateBadges(tc.evals))
			for _, id := range tc.present {
				assert.Contains(t, ids, id)
			}
			for _, id := range tc.absent {
				assert.NotContains(t, ids, id)
			}
		})
	}

	assert.Empty(t, EvaluateBadges(nil))
	assert.Len(t, Catalog(), 6)
}

func TestAnalyzeSections(t *testing.T) {
	th := DefaultThresholds()
	evals := []evaluation.Evaluation{
		submitted("e1", "x", 0, 4, map[string]float64{"Behavior": 5, "Academic": 3, "Social": 4, "Personality": 4.5, " Cost ": 2}),
		submitted("e2", "x", 1, 4, map[string]float64{"Behavior": 4, "Academic": 4, "Social": 4, "Personality": 4.5, "Cost": 3}),
	}

	a := AnalyzeSections(evals, th)
	assert.Equal(t, []SectionStat{
		{Section: "Behavior", Score: 4.5},
		{Section: "Personality", Score: 4.5},
		{Section: "Social", Score: 4.0},
	}, a.Strengths)
	assert.Equal(t, []SectionStat{
		{Section: "Cost", Score: 2.5},
		{Section: "Academic", Score: 3.5},
	}, a.ImprovementAreas)

	t.Run("normalizes by the evaluation max score", func(t *testing.T) {
		e := submitted("e1", "x", 0, 8, map[string]float64{"Academic": 8})
		e.MaxScore = 10
		a := AnalyzeSections([]evaluation.Evaluation{e}, th)
		assert.Equal(t, []SectionStat{{Section: "Academic", Score: 4.0}}, a.Strengths)
		assert.Empty(t, a.ImprovementAreas)
	})

	t.Run("empty", func(t *testing.T) {
		a := AnalyzeSections(nil, th)
		assert.NotNil(t, a.Strengths)
		assert.NotNil(t, a.ImprovementAreas)
	})
}

func TestComputeCohort_Leaderboard(t *testing.T) {
	roster := []user.User{intern("c", "Carl"), intern("a", "Ana"), intern("b", "Bea"), intern("d", "Dan")}
	evals := []evaluation.Evaluation{
		submitted("e1", "a", 0, 4.0, map[string]float64{"Academic": 4.0}),
		submitted("e2", "b", 0, 3.5, map[string]float64{"Academic": 3.0}),
		submitted("e3", "b", 1, 4.5, map[string]float64{"Academic": 5.0}),
		submitted("e4", "c", 0, 4.0, map[string]float64{"Academic": 3.0, "Social": 5.0}),
		submitted("e5", "c", 1, 4.6, map[string]float64{"Academic": 3.2}),
	}

	res := ComputeCohort(evals, roster, DefaultThresholds())
	names := make([]string, 0)
	for _, s := range res.Leaderboard {
		names = append(names, s.Name)
	}
	// Carl 4.3; Bea 4.0 with 2 evaluations; Ana 4.0 with 1; Dan has none
	assert.Equal(t, []string{"Carl", "Bea", "Ana", "Dan"}, names)
	for i := 1; i < len(res.Leaderboard); i++ {
		assert.GreaterOrEqual(t, res.Leaderboard[i-1].AverageScore, res.Leaderboard[i].AverageScore)
	}
	dan := res.Leaderboard[3]
	assert.Equal(t, 4, dan.Rank)
	assert.Zero(t, dan.EvaluationCount)
	assert.Zero(t, dan.AverageScore)
	assert.Zero(t, dan.LatestScore)
	assert.Equal(t, TrendNone, dan.Trend)
	assert.Empty(t, dan.Badges)

	assert.Equal(t, 4, res.Insights.TotalSubjects)
	assert.Equal(t, 3, res.Insights.EvaluatedSubjects)
	assert.Equal(t, 5, res.Insights.TotalEvaluations)
	assert.Equal(t, 4.1, res.Insights.CohortAverage) // (4.3 + 4.0 + 4.0) / 3
	assert.Equal(t, "Carl", res.Insights.TopPerformer.Name)
	assert.Equal(t, "Bea", res.Insights.MostImproved.Name)

	require.Len(t, res.Sections, 2)
	academic := res.Sections[0]
	assert.Equal(t, "Academic", academic.Section)
	assert.Equal(t, 5, academic.Count)
	assert.Equal(t, 3.64, academic.Average)
	assert.Empty(t, academic.Excelling)
	assert.Equal(t, []SubjectScore{{InternID: "c", Name: "Carl", Score: 3.1}}, academic.Struggling)

	social := res.Sections[1]
	assert.Equal(t, []SubjectScore{{InternID: "c", Name: "Carl", Score: 5.0}}, social.Excelling)
	assert.Equal(t, "Social", res.Insights.StrongestSection.Section)
	assert.Equal(t, "Academic", res.Insights.WeakestSection.Section)

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, res, ComputeCohort(evals, roster, DefaultThresholds()))
	})

	t.Run("input order does not matter", func(t *testing.T) {
		reversed := make([]evaluation.Evaluation, 0, len(evals))
		for i := len(evals) - 1; i >= 0; i-- {
			reversed = append(reversed, evals[i])
		}
		assert.Equal(t, res, ComputeCohort(reversed, roster, DefaultThresholds()))
	})
}

func TestComputeCohort_UnevaluatedRanksLast(t *testing.T) {
	roster := []user.User{intern("a", "Ana"), intern("z", "Zed")}
	low := submitted("e1", "z", 0, 0, map[string]float64{"Academic": 0})
	low.MaxScore = 4

	res := ComputeCohort([]evaluation.Evaluation{low}, roster, DefaultThresholds())
	require.Len(t, res.Leaderboard, 2)
	assert.Equal(t, "z", res.Leaderboard[0].InternID)
	assert.Equal(t, 1, res.Leaderboard[0].EvaluationCount)
	assert.Equal(t, "a", res.Leaderboard[1].InternID)
	assert.Equal(t, 2, res.Leaderboard[1].Rank)
	assert.Equal(t, 1, res.Insights.EvaluatedSubjects)
	assert.Equal(t, "Zed", res.Insights.TopPerformer.Name)

	none := ComputeCohort(nil, roster, DefaultThresholds())
	require.Len(t, none.Leaderboard, 2)
	assert.Equal(t, []string{"a", "z"}, []string{none.Leaderboard[0].InternID, none.Leaderboard[1].InternID})
	assert.Zero(t, none.Insights.EvaluatedSubjects)
	assert.Zero(t, none.Insights.CohortAverage)
	assert.Nil(t, none.Insights.TopPerformer)
}

func TestComputeCohort_OrdersByCreation(t *testing.T) {
	// e1 was created first, reopened and resubmitted after e2
	first := submitted("e1", "x", 0, 4.0, map[string]float64{"Academic": 4.0})
	resubmitted := day0.AddDate(0, 0, 10)
	first.SubmittedAt = &resubmitted
	first.UpdatedAt = resubmitted
	second := submitted("e2", "x", 5, 3.0, map[string]float64{"Academic": 3.0})

	res := ComputeCohort([]evaluation.Evaluation{first, second}, []user.User{intern("x", "Xavier")}, DefaultThresholds())
	require.Len(t, res.Leaderboard, 1)
	stats := res.Leaderboard[0]
	assert.Equal(t, 3.0, stats.LatestScore)
	assert.Equal(t, TrendDeclining, stats.Trend)
	assert.Equal(t, []string{BadgeDedicatedLearner}, badgeIDs(stats.Badges))
	assert.Nil(t, res.Insights.MostImproved)
}

func TestComputeCohort_Skipped(t *testing.T) {
	draft := submitted("e2", "x", 1, 5, nil)
	draft.Status = evaluation.StatusDraft
	completed := submitted("e3", "x", 2, 3, nil)
	completed.Status = evaluation.StatusCompleted
	broken := submitted("e4", "x", 3, math.NaN(), nil)
	unevaluated := submitted("e5", "x", 4, 0, nil)
	unevaluated.RatedItems = 0

	evals := []evaluation.Evaluation{
		submitted("e1", "x", 0, 4, nil),
		draft,
		completed,
		broken,
		unevaluated,
		submitted("e6", "stranger", 0, 5, nil),
	}
	res := ComputeCohort(evals, []user.User{intern("x", "Xavier")}, DefaultThresholds())
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, 1, res.Unevaluated)
	require.Len(t, res.Leaderboard, 1)
	assert.Equal(t, 2, res.Leaderboard[0].EvaluationCount)
	assert.Equal(t, 3.5, res.Leaderboard[0].AverageScore)

	empty := ComputeCohort(nil, nil, DefaultThresholds())
	assert.NotNil(t, empty.Leaderboard)
	assert.NotNil(t, empty.Sections)
	assert.Nil(t, empty.Insights.TopPerformer)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.Nil(t, tr.Last())

	first := tr.Begin()
	second := tr.Begin()
	assert.False(t, tr.IsLatest(first))
	assert.False(t, tr.Commit(first, CohortAnalytics{Skipped: 1}))
	assert.Nil(t, tr.Last())

	assert.True(t, tr.Commit(second, CohortAnalytics{Skipped: 2}))
	assert.Equal(t, 2, tr.Last().Skipped)
}

func TestService_CohortAndSubject(t *testing.T) {
	env := testutil.NewEnv(t)
	cast := testutil.NewCast(t, env.UserRepo)
	ctx := context.Background()

	_, err := env.EvaluationRepo.CreateEvaluation(ctx, submitted("", cast.Intern.ID, 0, 4.2, map[string]float64{"Academic": 4.2}))
	require.NoError(t, err)
	_, err = env.EvaluationRepo.CreateEvaluation(ctx, submitted("", cast.OtherIntern.ID, 0, 3.2, nil))
	require.NoError(t, err)

	svc := NewService(env.Users, env.Evaluations, env.Broker, DefaultThresholds(), env.Logger)

	res, err := svc.Cohort(ctx, cast.Coordinator)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Insights.TotalSubjects) // IT interns only
	require.Len(t, res.Leaderboard, 2)
	assert.Equal(t, cast.Intern.ID, res.Leaderboard[0].InternID)

	res, err = svc.Cohort(ctx, cast.OtherSupervisor)
	require.NoError(t, err)
	require.Len(t, res.Leaderboard, 1)
	assert.Equal(t, cast.OtherIntern.ID, res.Leaderboard[0].InternID)
	assert.Equal(t, 1, res.Leaderboard[0].Rank)

	stats, err := svc.Subject(ctx, cast.Coordinator, cast.OtherIntern.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rank)

	stats, err = svc.Subject(ctx, cast.Admin, cast.Outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, cast.Outsider.ID, stats.InternID)
	assert.Equal(t, 0, stats.EvaluationCount)
	assert.Equal(t, TrendNone, stats.Trend)

	_, err = svc.Subject(ctx, cast.Supervisor, cast.OtherIntern.ID)
	assert.True(t, core.IsNotFound(err))
}

func receive(t *testing.T, updates <-chan Update, match func(Update) bool) Update {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u := <-updates:
			if match(u) {
				return u
			}
		case <-timeout:
			t.Fatal("no matching update")
			return Update{}
		}
	}
}

func watch(t *testing.T, svc *Service, viewer user.User) (<-chan Update, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan Update, 16)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, viewer, func(u Update) error {
			updates <- u
			return nil
		})
	}()
	return updates, func() {
		cancel()
		assert.NoError(t, <-done)
	}
}

func TestService_Watch(t *testing.T) {
	env := testutil.NewEnv(t)
	cast := testutil.NewCast(t, env.UserRepo)
	svc := NewService(env.Users, env.Evaluations, env.Broker, DefaultThresholds(), env.Logger)

	updates, stop := watch(t, svc, cast.Supervisor)
	defer stop()

	first := receive(t, updates, func(Update) bool { return true })
	assert.Equal(t, UpdateAnalytics, first.Type)
	require.NotNil(t, first.Analytics)
	require.Len(t, first.Analytics.Leaderboard, 1)
	assert.Zero(t, first.Analytics.Leaderboard[0].EvaluationCount)

	_, err := env.EvaluationRepo.CreateEvaluation(context.Background(), submitted("", cast.Intern.ID, 0, 4.8, nil))
	require.NoError(t, err)
	env.Broker.Publish(core.TopicEvaluations, "new")

	u := receive(t, updates, func(u Update) bool {
		return u.Type == UpdateAnalytics && u.Analytics.Insights.EvaluatedSubjects == 1
	})
	require.Len(t, u.Analytics.Leaderboard, 1)
	assert.Equal(t, []string{BadgeElitePerformer}, badgeIDs(u.Analytics.Leaderboard[0].Badges))
	assert.Greater(t, u.RequestID, first.RequestID)
}

type staticRoster []user.User

func (r staticRoster) Roster(context.Context, user.User) ([]user.User, error) { return r, nil }

type flakySource struct {
	failing atomic.Bool
	evals   []evaluation.Evaluation
}

func (s *flakySource) Submitted(context.Context, []string) ([]evaluation.Evaluation, error) {
	if s.failing.Load() {
		return nil, errors.New("connection reset")
	}
	return s.evals, nil
}

func TestService_WatchKeepsLastGoodAnalytics(t *testing.T) {
	broker := core.NewBroker()
	src := &flakySource{evals: []evaluation.Evaluation{submitted("e1", "x", 0, 4, nil)}}
	svc := NewService(staticRoster{intern("x", "Xavier")}, src, broker, DefaultThresholds(), testutil.Logger())

	updates, stop := watch(t, svc, user.User{ID: "admin", Role: user.RoleAdmin})
	defer stop()

	good := receive(t, updates, func(Update) bool { return true })
	require.Equal(t, UpdateAnalytics, good.Type)

	src.failing.Store(true)
	broker.Publish(core.TopicUsers, "x")

	u := receive(t, updates, func(u Update) bool { return u.Type == UpdateError })
	assert.NotEmpty(t, u.Error)
	require.NotNil(t, u.Analytics)
	assert.Equal(t, good.Analytics.Leaderboard, u.Analytics.Leaderboard)
}
