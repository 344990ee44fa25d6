package evaluation

import (
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

// Session is an evaluation being filled in: a template, its draft content and the active scale.
// It is an immutable value; the With* methods return modified copies.
type Session struct {
	template  Template
	scale     scoring.Scale
	ratings   map[string]map[string]string
	essays    map[string]string
	signature string
}

func NewSession(tmpl Template, scale scoring.Scale) Session {
	return Session{
		template: tmpl,
		scale:    scale,
		ratings:  map[string]map[string]string{},
		essays:   map[string]string{},
	}
}

// Session returns the session of the evaluation's snapshot and content.
func (evl Evaluation) Session(scale scoring.Scale) Session {
	return NewSession(evl.Template, scale).
		WithRatings(evl.Ratings).
		WithEssays(evl.Essays).
		WithSignature(evl.SupervisorName)
}

func (s Session) Template() Template        { return s.template }
func (s Session) Scale() scoring.Scale      { return s.scale }
func (s Session) Signature() string         { return s.signature }
func (s Session) Essays() map[string]string { return copyStrings(s.essays) }

// Ratings returns a copy of the ratings, by section ID then item ID.
func (s Session) Ratings() map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.ratings))
	for secID, items := range s.ratings {
		out[secID] = copyStrings(items)
	}
	return out
}

// WithRating sets the rating of one item. Unknown sections and items are ignored;
// an empty code clears the rating.
func (s Session) WithRating(sectionID, itemID, code string) Session {
	sec, ok := s.template.section(sectionID)
	if !ok || !sec.hasItem(itemID) {
		return s
	}
	code = core.CleanString(code)

	ratings := make(map[string]map[string]string, len(s.ratings)+1)
	for id, items := range s.ratings {
		ratings[id] = items // untouched sections are shared, they are never mutated
	}
	items := copyStrings(s.ratings[sectionID])
	if code == "" {
		delete(items, itemID)
	} else {
		items[itemID] = code
	}
	ratings[sectionID] = items
	s.ratings = ratings
	return s
}

// WithRatings merges ratings keyed by section ID then item ID.
func (s Session) WithRatings(ratings map[string]map[string]string) Session {
	for secID, items := range ratings {
		for itemID, code := range items {
			s = s.WithRating(secID, itemID, code)
		}
	}
	return s
}

// WithEssay sets the answer to one essay prompt. Unknown prompts are ignored.
func (s Session) WithEssay(essayID, text string) Session {
	if !s.template.hasEssay(essayID) {
		return s
	}
	essays := copyStrings(s.essays)
	if text = core.CleanString(text); text == "" {
		delete(essays, essayID)
	} else {
		essays[essayID] = text
	}
	s.essays = essays
	return s
}

func (s Session) WithEssays(essays map[string]string) Session {
	for id, text := range essays {
		s = s.WithEssay(id, text)
	}
	return s
}

// WithSignature sets the supervisor's signature (their printed name).
func (s Session) WithSignature(name string) Session {
	s.signature = core.CleanString(name)
	return s
}

// Scores are the derived scores of a session.
type Scores struct {
	Overall  float64                 `json:"overall_score"`
	Sections map[string]float64      `json:"section_scores"` // {section title: score}, rated sections only
	Rated    int                     `json:"rated_items"`
	Max      float64                 `json:"max_score"`
	Invalid  []scoring.InvalidRating `json:"invalid_ratings,omitempty"`
}

// Score computes the overall and per-section scores with the template's scoring method.
func (s Session) Score() Scores {
	secs := make([]scoring.Section, 0, len(s.template.Sections))
	for _, sec := range s.template.Sections {
		secs = append(secs, scoring.Section{
			Key:     core.CleanString(sec.Title),
			Weight:  sec.Weight,
			Ratings: s.ratings[sec.ID],
		})
	}

	method := s.template.ScoringMethod
	if !method.IsValid() {
		method = scoring.MethodFlat
	}
	res := scoring.Overall(s.scale, method, secs)

	scores := Scores{
		Overall:  res.Overall,
		Sections: make(map[string]float64, len(res.Sections)),
		Rated:    res.Rated,
		Max:      res.Max,
		Invalid:  res.Invalid,
	}
	for _, so := range res.Sections {
		if so.Rated > 0 {
			scores.Sections[so.Key] = so.Score
		}
	}
	return scores
}

// CheckComplete returns a validation error naming the first incomplete part:
// a section with an unrated (or unresolvable) item, the signature, or an essay.
func (s Session) CheckComplete() error {
	for _, sec := range s.template.Sections {
		for _, item := range sec.Items {
			if _, ok := s.scale.Resolve(s.ratings[sec.ID][item.ID]); !ok {
				err := errors.Errorf("Incomplete ratings in %s", sec.Title)
				return core.NewValidationError(err, core.FieldError{Field: "ratings", Error: err.Error()})
			}
		}
	}
	if s.signature == "" {
		err := errors.New("The supervisor's signature is required")
		return core.NewValidationError(err, core.FieldError{Field: "supervisor_name", Error: err.Error()})
	}
	for _, e := range s.template.Essays {
		if s.essays[e.ID] == "" {
			err := errors.Errorf("Incomplete essays: %s", e.Prompt)
			return core.NewValidationError(err, core.FieldError{Field: "essays", Error: err.Error()})
		}
	}
	return nil
}

// Apply returns a copy of evl carrying the session's content and derived scores.
func (s Session) Apply(evl Evaluation) Evaluation {
	scores := s.Score()
	evl.Ratings = s.Ratings()
	evl.Essays = s.Essays()
	evl.SupervisorName = s.signature
	evl.OverallScore = scores.Overall
	evl.SectionScores = scores.Sections
	evl.RatedItems = scores.Rated
	evl.MaxScore = scores.Max
	return evl
}

func (sec Section) hasItem(id string) bool {
	for _, item := range sec.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (t Template) hasEssay(id string) bool {
	for _, e := range t.Essays {
		if e.ID == id {
			return true
		}
	}
	return false
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
