package evaluation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

func threeSectionTemplate() evaluation.Template {
	return evaluation.Template{
		ID:            "t1",
		Title:         "IT Evaluation",
		ScaleID:       scoring.ScaleNumeric,
		ScoringMethod: scoring.MethodFlat,
		Sections: []evaluation.Section{
			{ID: "tech", Title: "Technical Skills", Items: []evaluation.Item{{ID: "coding", Text: "Coding"}, {ID: "tools", Text: "Tools"}}},
			{ID: "work", Title: "Work Habits", Items: []evaluation.Item{{ID: "punctuality", Text: "Punctuality"}}},
			{ID: "comm", Title: "Communication", Items: []evaluation.Item{{ID: "reporting", Text: "Reporting"}}},
		},
		Essays: []evaluation.Essay{{ID: "advice", Prompt: "What should the intern focus on next?"}},
	}
}

func TestSession_IsImmutable(t *testing.T) {
	base := evaluation.NewSession(threeSectionTemplate(), scoring.NumericScale())
	rated := base.WithRating("tech", "coding", "5")
	rerated := rated.WithRating("tech", "coding", "3")

	assert.Empty(t, base.Ratings())
	assert.Equal(t, "5", rated.Ratings()["tech"]["coding"])
	assert.Equal(t, "3", rerated.Ratings()["tech"]["coding"])

	// returned maps are copies
	r := rated.Ratings()
	r["tech"]["coding"] = "1"
	assert.Equal(t, "5", rated.Ratings()["tech"]["coding"])

	cleared := rated.WithRating("tech", "coding", " ")
	assert.Empty(t, cleared.Ratings()["tech"])
	assert.Equal(t, "5", rated.Ratings()["tech"]["coding"])
}

func TestSession_IgnoresUnknownEntries(t *testing.T) {
	s := evaluation.NewSession(threeSectionTemplate(), scoring.NumericScale()).
		WithRating("nope", "coding", "5").
		WithRating("tech", "nope", "5").
		WithEssay("nope", "text")
	assert.Empty(t, s.Ratings())
	assert.Empty(t, s.Essays())
}

func TestSession_Score(t *testing.T) {
	s := evaluation.NewSession(threeSectionTemplate(), scoring.NumericScale()).
		WithRatings(map[string]map[string]string{
			"tech": {"coding": "5", "tools": "4"},
			"work": {"punctuality": "3"},
			"comm": {"reporting": "bogus"},
		})

	scores := s.Score()
	assert.Equal(t, 4.0, scores.Overall)
	assert.Equal(t, 3, scores.Rated)
	assert.Equal(t, 5.0, scores.Max)
	assert.Equal(t, map[string]float64{"Technical Skills": 4.5, "Work Habits": 3}, scores.Sections)
	require.Len(t, scores.Invalid, 1)
	assert.Equal(t, "bogus", scores.Invalid[0].Value)
}

func TestSession_ScoreUsesTemplateMethod(t *testing.T) {
	ratings := map[string]map[string]string{
		"behavior": {"punctuality": "5", "compliance": "5", "initiative": "5"},
		"academic": {"knowledge": "3", "quality": "3", "learning": "3"},
	}
	legacy := evaluation.NewSession(evaluation.LegacyTemplate(), scoring.NumericScale()).WithRatings(ratings)
	// weights 0.25 and 0.30 renormalized over the two rated sections
	assert.Equal(t, 3.91, legacy.Score().Overall)

	flatTmpl := evaluation.LegacyTemplate()
	flatTmpl.ScoringMethod = scoring.MethodFlat
	flat := evaluation.NewSession(flatTmpl, scoring.NumericScale()).WithRatings(ratings)
	assert.Equal(t, 4.0, flat.Score().Overall)
}

func TestSession_CheckComplete(t *testing.T) {
	full := map[string]map[string]string{
		"tech": {"coding": "5", "tools": "4"},
		"work": {"punctuality": "3"},
		"comm": {"reporting": "90-95"},
	}
	complete := evaluation.NewSession(threeSectionTemplate(), scoring.NumericScale()).
		WithRatings(full).
		WithSignature("Sam Supervisor").
		WithEssay("advice", "Keep it up")

	tests := []struct {
		name    string
		session evaluation.Session
		wantErr string
	}{
		{name: "complete", session: complete},
		{name: "unrated item", session: complete.WithRating("work", "punctuality", ""), wantErr: "Incomplete ratings in Work Habits"},
		{name: "unresolvable item", session: complete.WithRating("comm", "reporting", "Z"), wantErr: "Incomplete ratings in Communication"},
		{name: "first incomplete section wins", session: complete.WithRating("comm", "reporting", "").WithRating("tech", "tools", ""), wantErr: "Incomplete ratings in Technical Skills"},
		{name: "no signature", session: complete.WithSignature("  "), wantErr: "The supervisor's signature is required"},
		{name: "no essay", session: complete.WithEssay("advice", ""), wantErr: "Incomplete essays: What should the intern focus on next?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.CheckComplete()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestSession_Apply(t *testing.T) {
	tmpl := threeSectionTemplate()
	s := evaluation.NewSession(tmpl, scoring.NumericScale()).
		WithRating("tech", "coding", "4").
		WithSignature("Sam")

	evl := s.Apply(evaluation.Evaluation{ID: "e1", Template: tmpl})
	assert.Equal(t, "e1", evl.ID)
	assert.Equal(t, "Sam", evl.SupervisorName)
	assert.Equal(t, 4.0, evl.OverallScore)
	assert.Equal(t, 1, evl.RatedItems)
	assert.Equal(t, 5.0, evl.MaxScore)
	assert.True(t, evl.IsEvaluated())

	back := evl.Session(scoring.NumericScale())
	assert.Equal(t, s.Ratings(), back.Ratings())
	assert.Equal(t, "Sam", back.Signature())
}

func TestTemplateDrift(t *testing.T) {
	snapshot := threeSectionTemplate()
	drift, err := evaluation.TemplateDrift(snapshot, snapshot.Clone())
	require.NoError(t, err)
	assert.False(t, drift.Changed)
	assert.Empty(t, drift.Diff)

	live := snapshot.Clone()
	live.Sections[1].Items[0].Text = "Reports on time"
	drift, err = evaluation.TemplateDrift(snapshot, live)
	require.NoError(t, err)
	assert.True(t, drift.Changed)
	assert.Contains(t, drift.Diff, "--- evaluation snapshot")
	assert.Contains(t, drift.Diff, "+++ current template")
	assert.Contains(t, drift.Diff, "-  - punctuality: Punctuality")
	assert.Contains(t, drift.Diff, "+  - punctuality: Reports on time")
}

func TestTemplateClone(t *testing.T) {
	tmpl := threeSectionTemplate()
	c := tmpl.Clone()
	c.Sections[0].Items[0].Text = "changed"
	c.Essays[0].Prompt = "changed"
	assert.Equal(t, "Coding", tmpl.Sections[0].Items[0].Text)
	assert.Equal(t, "What should the intern focus on next?", tmpl.Essays[0].Prompt)
	assert.Equal(t, 4, tmpl.ItemCount())
}
