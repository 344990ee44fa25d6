package evaluation

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

// Status is the lifecycle state of an evaluation: pending_supervisor -> draft -> submitted.
type Status string

const (
	StatusPendingSupervisor Status = "pending_supervisor"
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	// StatusCompleted is read as StatusSubmitted (older records use it).
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether the evaluation is submitted.
func (s Status) IsTerminal() bool {
	return s == StatusSubmitted || s == StatusCompleted
}

// Type is the kind of evaluation.
type Type string

const (
	TypeRegular Type = "Regular"
	TypeMidterm Type = "Midterm"
	TypeFinal   Type = "Final"
)

var AllTypes = []Type{TypeRegular, TypeMidterm, TypeFinal}

type Item struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text" validate:"required,notblank"`
}

type Section struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title" validate:"required,notblank"`
	Weight float64 `json:"weight,omitempty" yaml:"weight" validate:"gte=0"`
	Items  []Item  `json:"items" yaml:"items" validate:"required,min=1,dive"`
}

type Essay struct {
	ID     string `json:"id" yaml:"id"`
	Prompt string `json:"prompt" yaml:"prompt" validate:"required,notblank"`
}

// Template is an evaluation form: rating sections plus essay prompts.
type Template struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Department    string         `json:"department,omitempty"`
	ScaleID       string         `json:"scale_id"`
	ScoringMethod scoring.Method `json:"scoring_method"`
	Sections      []Section      `json:"sections"`
	Essays        []Essay        `json:"essays"`
	CreatedBy     string         `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"` // UTC
	UpdatedAt     time.Time      `json:"updated_at"` // UTC
}

// Clone returns a deep copy, used to snapshot a template into an evaluation.
func (t Template) Clone() Template {
	c := t
	c.Sections = make([]Section, len(t.Sections))
	for i, sec := range t.Sections {
		sec.Items = append([]Item(nil), sec.Items...)
		c.Sections[i] = sec
	}
	c.Essays = append([]Essay(nil), t.Essays...)
	return c
}

// ItemCount returns the number of rating items of the template.
func (t Template) ItemCount() int {
	n := 0
	for _, sec := range t.Sections {
		n += len(sec.Items)
	}
	return n
}

func (t Template) section(id string) (Section, bool) {
	for _, sec := range t.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}

// NewTemplate contains information needed to create or replace a Template.
type NewTemplate struct {
	ID            string         `json:"-" yaml:"id"`
	Title         string         `json:"title" yaml:"title" validate:"required,notblank"`
	Department    string         `json:"department" yaml:"department"`
	ScaleID       string         `json:"scale_id" yaml:"scale" validate:"required"`
	ScoringMethod scoring.Method `json:"scoring_method" yaml:"scoring" validate:"omitempty,oneof=flat weighted"`
	Sections      []Section      `json:"sections" yaml:"sections" validate:"required,min=1,dive"`
	Essays        []Essay        `json:"essays" yaml:"essays" validate:"dive"`
}

// Clean trims the texts and assigns the missing section, item and essay IDs.
func (nt *NewTemplate) Clean() {
	nt.ID = core.CleanString(nt.ID)
	nt.Title = core.CleanString(nt.Title)
	nt.Department = core.CleanString(nt.Department)
	nt.ScaleID = core.CleanString(nt.ScaleID, true)
	nt.ScoringMethod = scoring.Method(core.CleanString(string(nt.ScoringMethod), true))
	if nt.ScoringMethod == "" {
		nt.ScoringMethod = scoring.MethodFlat
	}
	for i := range nt.Sections {
		sec := &nt.Sections[i]
		sec.ID = core.CleanString(sec.ID)
		if sec.ID == "" {
			sec.ID = fmt.Sprintf("s%d", i+1)
		}
		sec.Title = core.CleanString(sec.Title)
		for j := range sec.Items {
			item := &sec.Items[j]
			item.ID = core.CleanString(item.ID)
			if item.ID == "" {
				item.ID = fmt.Sprintf("i%d", j+1)
			}
			item.Text = core.CleanString(item.Text)
		}
	}
	for i := range nt.Essays {
		e := &nt.Essays[i]
		e.ID = core.CleanString(e.ID)
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%d", i+1)
		}
		e.Prompt = core.CleanString(e.Prompt)
	}
}

// Validate cleans and validates the template against the known rating scales.
func (nt *NewTemplate) Validate(validate *validator.Validate, translator ut.Translator, scales *scoring.Registry) error {
	nt.Clean()
	if err := validate.Struct(nt); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nt.check(scales)
}

func (nt *NewTemplate) check(scales *scoring.Registry) error {
	fieldErr := func(field, format string, args ...interface{}) error {
		err := errors.Errorf(format, args...)
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}

	if !scales.Has(nt.ScaleID) {
		return fieldErr("scale_id", "unknown rating scale %q", nt.ScaleID)
	}

	secIDs, titles := make(map[string]bool), make(map[string]bool)
	var weightTotal float64
	for _, sec := range nt.Sections {
		if secIDs[sec.ID] {
			return fieldErr("sections", "duplicate section id %q", sec.ID)
		}
		secIDs[sec.ID] = true
		title := strings.ToLower(sec.Title)
		if titles[title] {
			return fieldErr("sections", "duplicate section title %q", sec.Title)
		}
		titles[title] = true

		itemIDs := make(map[string]bool)
		for _, item := range sec.Items {
			if itemIDs[item.ID] {
				return fieldErr("sections", "duplicate item id %q in %s", item.ID, sec.Title)
			}
			itemIDs[item.ID] = true
		}
		weightTotal += sec.Weight
	}
	if nt.ScoringMethod == scoring.MethodWeighted && weightTotal <= 0 {
		return fieldErr("sections", "weighted templates need positive section weights")
	}

	essayIDs := make(map[string]bool)
	for _, e := range nt.Essays {
		if essayIDs[e.ID] {
			return fieldErr("essays", "duplicate essay id %q", e.ID)
		}
		essayIDs[e.ID] = true
	}
	return nil
}

// Template returns the Template described by nt.
func (nt NewTemplate) Template() Template {
	t := Template{
		ID:            nt.ID,
		Title:         nt.Title,
		Department:    nt.Department,
		ScaleID:       nt.ScaleID,
		ScoringMethod: nt.ScoringMethod,
		Sections:      nt.Sections,
		Essays:        nt.Essays,
	}
	if t.Essays == nil {
		t.Essays = []Essay{}
	}
	return t.Clone()
}

type TemplateFilter struct {
	Search     string `query:"search"`
	Department string `query:"department"`
}

func (tf *TemplateFilter) Clean() {
	tf.Search = core.CleanString(tf.Search)
	tf.Department = core.CleanString(tf.Department)
}

// Matches applies the filter to an in-memory template.
// Department matches the department's templates plus the global ones (no department).
func (tf *TemplateFilter) Matches(t Template) bool {
	if tf == nil {
		return true
	}
	if tf.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(tf.Search)) {
		return false
	}
	if tf.Department != "" && t.Department != "" && !strings.EqualFold(tf.Department, t.Department) {
		return false
	}
	return true
}

// Evaluation is one evaluation of an intern by a supervisor.
// It owns a copy of the template it was sent with.
type Evaluation struct {
	ID             string                       `json:"id"`
	InternID       string                       `json:"intern_id"`
	SupervisorID   string                       `json:"supervisor_id"`
	CreatedBy      string                       `json:"created_by"`
	Status         Status                       `json:"status"`
	Type           Type                         `json:"evaluation_type"`
	PeriodCovered  string                       `json:"period_covered"`
	SupervisorName string                       `json:"supervisor_name"`
	Template       Template                     `json:"template"`
	Ratings        map[string]map[string]string `json:"ratings"` // {sectionID: {itemID: level code}}
	Essays         map[string]string            `json:"essays"`  // {essayID: text}

	// derived at save time
	OverallScore  float64            `json:"overall_score"`
	SectionScores map[string]float64 `json:"section_scores"` // {section title: score}
	RatedItems    int                `json:"rated_items"`
	MaxScore      float64            `json:"max_score"`

	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// IsEvaluated reports whether at least one item was rated.
func (evl Evaluation) IsEvaluated() bool {
	return evl.RatedItems > 0
}

// NewEvaluation contains information needed to send an evaluation to a supervisor.
type NewEvaluation struct {
	InternID      string `json:"intern_id" validate:"required"`
	SupervisorID  string `json:"supervisor_id"`
	TemplateID    string `json:"template_id" validate:"required"`
	Type          Type   `json:"evaluation_type" validate:"required,oneof=Regular Midterm Final"`
	PeriodCovered string `json:"period_covered"`
}

func (ne *NewEvaluation) Validate(validate *validator.Validate, translator ut.Translator) error {
	ne.InternID = core.CleanString(ne.InternID)
	ne.SupervisorID = core.CleanString(ne.SupervisorID)
	ne.TemplateID = core.CleanString(ne.TemplateID)
	ne.PeriodCovered = core.CleanString(ne.PeriodCovered)
	if ne.Type == "" {
		ne.Type = TypeRegular
	}
	if err := validate.Struct(ne); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}

// DraftUpdate holds the content a supervisor saves into an evaluation.
// Ratings and essays are merged into the existing content; an empty value clears an entry.
type DraftUpdate struct {
	Ratings        map[string]map[string]string `json:"ratings"`
	Essays         map[string]string            `json:"essays"`
	SupervisorName *string                      `json:"supervisor_name"`
	PeriodCovered  *string                      `json:"period_covered"`
}

// QueryFilter applies AND operation on available fields.
// A non-nil empty InternIDs matches nothing.
type QueryFilter struct {
	InternIDs    []string `query:"intern_id"`
	SupervisorID string   `query:"supervisor_id"`
	TemplateID   string   `query:"template_id"`
	Statuses     []Status `query:"status"`
	Types        []Type   `query:"evaluation_type"`
}

// Clean trims the filter and makes "submitted" match "completed" too.
func (qf *QueryFilter) Clean() {
	qf.SupervisorID = core.CleanString(qf.SupervisorID)
	qf.TemplateID = core.CleanString(qf.TemplateID)
	var hasSubmitted, hasCompleted bool
	for _, s := range qf.Statuses {
		hasSubmitted = hasSubmitted || s == StatusSubmitted
		hasCompleted = hasCompleted || s == StatusCompleted
	}
	if hasSubmitted && !hasCompleted {
		qf.Statuses = append(qf.Statuses, StatusCompleted)
	} else if hasCompleted && !hasSubmitted {
		qf.Statuses = append(qf.Statuses, StatusSubmitted)
	}
}

// Matches applies the filter to an in-memory evaluation.
func (qf *QueryFilter) Matches(evl Evaluation) bool {
	if qf == nil {
		return true
	}
	if qf.InternIDs != nil && !containsString(qf.InternIDs, evl.InternID) {
		return false
	}
	if qf.SupervisorID != "" && qf.SupervisorID != evl.SupervisorID {
		return false
	}
	if qf.TemplateID != "" && qf.TemplateID != evl.Template.ID {
		return false
	}
	if len(qf.Statuses) > 0 {
		ok := false
		for _, s := range qf.Statuses {
			ok = ok || s == evl.Status
		}
		if !ok {
			return false
		}
	}
	if len(qf.Types) > 0 {
		ok := false
		for _, t := range qf.Types {
			ok = ok || t == evl.Type
		}
		if !ok {
			return false
		}
	}
	return true
}

// TerminalStatuses matches submitted evaluations, whichever name they were stored with.
func TerminalStatuses() []Status {
	return []Status{StatusSubmitted, StatusCompleted}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
