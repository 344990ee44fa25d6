package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionScore(t *testing.T) {
	numeric, letter := NumericScale(), LetterScale()

	tests := []struct {
		name        string
		scale       Scale
		ratings     map[string]string
		want        float64
		wantRated   int
		wantInvalid int
	}{
		{name: "mean of resolved", scale: numeric, ratings: map[string]string{"a": "5", "b": "4", "c": "4"}, want: 4.33, wantRated: 3},
		{name: "letters", scale: letter, ratings: map[string]string{"a": "E", "b": "S"}, want: 4, wantRated: 2},
		{name: "aliases", scale: numeric, ratings: map[string]string{"a": "96-100", "b": "75-84"}, want: 3.5, wantRated: 2},
		{name: "unset values ignored", scale: numeric, ratings: map[string]string{"a": "3", "b": "", "c": "  "}, want: 3, wantRated: 1},
		{name: "unresolvable excluded from sum and count", scale: numeric, ratings: map[string]string{"a": "5", "b": "X"}, want: 5, wantRated: 1, wantInvalid: 1},
		{name: "empty", scale: numeric, ratings: map[string]string{}, want: 0},
		{name: "nil", scale: numeric, want: 0},
		{name: "fully unresolvable", scale: letter, ratings: map[string]string{"a": "5", "b": "9"}, want: 0, wantInvalid: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreSection(tt.scale, tt.ratings)
			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, tt.wantRated, res.Rated)
			assert.Len(t, res.Invalid, tt.wantInvalid)
			assert.Equal(t, tt.want, SectionScore(tt.scale, tt.ratings))
		})
	}
}

func legacySections(ratings ...map[string]string) []Section {
	keys := []string{"Behavior", "Academic", "Social", "Personality", "Cost-Consciousness"}
	weights := []float64{0.25, 0.30, 0.25, 0.15, 0.05}
	secs := make([]Section, 0, len(ratings))
	for i, r := range ratings {
		secs = append(secs, Section{Key: keys[i], Weight: weights[i], Ratings: r})
	}
	return secs
}

func TestOverallFlat(t *testing.T) {
	res := Overall(NumericScale(), MethodFlat, []Section{
		{Key: "A", Ratings: map[string]string{"1": "5", "2": "5", "3": "5"}},
		{Key: "B", Ratings: map[string]string{"1": "2"}},
	})
	// pooled: (5+5+5+2)/4
	assert.Equal(t, 4.25, res.Overall)
	assert.Equal(t, 4, res.Rated)
	assert.Equal(t, 5.0, res.Max)
	assert.Equal(t, []SectionOutcome{{Key: "A", Score: 5, Rated: 3}, {Key: "B", Score: 2, Rated: 1}}, res.Sections)
	assert.True(t, res.Evaluated())
}

func TestOverallWeighted(t *testing.T) {
	secs := legacySections(
		map[string]string{"1": "5"},
		map[string]string{"1": "4"},
		map[string]string{"1": "3"},
		map[string]string{"1": "2"},
		map[string]string{"1": "1"},
	)
	res := Overall(NumericScale(), MethodWeighted, secs)
	// 5*.25 + 4*.30 + 3*.25 + 2*.15 + 1*.05 = 3.55
	assert.Equal(t, 3.55, res.Overall)
}

func TestOverallWeightedRenormalizesEmptySections(t *testing.T) {
	secs := legacySections(
		map[string]string{"1": "5"},
		map[string]string{"1": "3"},
		map[string]string{},
		map[string]string{"1": "bogus"},
		nil,
	)
	res := Overall(NumericScale(), MethodWeighted, secs)
	// (5*.25 + 3*.30) / (.25+.30)
	assert.Equal(t, 3.91, res.Overall)
	assert.Equal(t, 2, res.Rated)
	assert.Equal(t, []InvalidRating{{Section: "Personality", Item: "1", Value: "bogus"}}, res.Invalid)
}

func TestOverallWithoutRatings(t *testing.T) {
	for _, m := range []Method{MethodFlat, MethodWeighted} {
		res := Overall(LetterScale(), m, legacySections(map[string]string{}, map[string]string{"1": ""}))
		assert.Equal(t, 0.0, res.Overall)
		assert.False(t, res.Evaluated())
	}
}

func TestOverallWeightedWithoutWeightsFallsBackToPooled(t *testing.T) {
	res := Overall(NumericScale(), MethodWeighted, []Section{
		{Key: "A", Ratings: map[string]string{"1": "5", "2": "4"}},
		{Key: "B", Ratings: map[string]string{"1": "3"}},
	})
	assert.Equal(t, 4.0, res.Overall)
}

// With equal weights, equal item counts and every item rated,
// the weighted section average equals the pooled item average.
func TestFlatAndWeightedCoincide(t *testing.T) {
	codes := []string{"1", "2", "3", "4", "5"}
	for n := 1; n <= 4; n++ {
		for seed := 0; seed < 25; seed++ {
			secs := make([]Section, 0, 3)
			for s := 0; s < 3; s++ {
				ratings := make(map[string]string, n)
				for i := 0; i < n; i++ {
					ratings[fmt.Sprint(i)] = codes[(seed*7+s*3+i*5)%len(codes)]
				}
				secs = append(secs, Section{Key: fmt.Sprint(s), Weight: 1, Ratings: ratings})
			}
			flat := Overall(NumericScale(), MethodFlat, secs)
			weighted := Overall(NumericScale(), MethodWeighted, secs)
			assert.Equal(t, flat.Overall, weighted.Overall, "items=%d seed=%d", n, seed)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 4.0, Normalize(4, 5))
	assert.Equal(t, 4.5, Normalize(90, 100))
	assert.Equal(t, 3.0, Normalize(3, 0))
}
