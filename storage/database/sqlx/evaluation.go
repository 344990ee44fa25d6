package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
)

const templateColumns = `id, title, department, scale_id, scoring_method, sections, essays, created_by, created_at, updated_at`

type templateRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Department    string      `db:"department"`
	ScaleID       string      `db:"scale_id"`
	ScoringMethod string      `db:"scoring_method"`
	Sections      string      `db:"sections"`
	Essays        string      `db:"essays"`
	CreatedBy     null.String `db:"created_by"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func newTemplateRow(tmpl evaluation.Template) (templateRow, error) {
	sections, err := toJSON(tmpl.Sections)
	if err != nil {
		return templateRow{}, err
	}
	essays, err := toJSON(tmpl.Essays)
	if err != nil {
		return templateRow{}, err
	}
	return templateRow{
		ID:            tmpl.ID,
		Title:         tmpl.Title,
		Department:    tmpl.Department,
		ScaleID:       tmpl.ScaleID,
		ScoringMethod: string(tmpl.ScoringMethod),
		Sections:      sections,
		Essays:        essays,
		CreatedBy:     nullString(tmpl.CreatedBy),
		CreatedAt:     tmpl.CreatedAt.UTC(),
		UpdatedAt:     tmpl.UpdatedAt.UTC(),
	}, nil
}

func (row templateRow) template() (evaluation.Template, error) {
	tmpl := evaluation.Template{
		ID:            row.ID,
		Title:         row.Title,
		Department:    row.Department,
		ScaleID:       row.ScaleID,
		ScoringMethod: scoring.Method(row.ScoringMethod),
		CreatedBy:     row.CreatedBy.String,
		CreatedAt:     utc(row.CreatedAt),
		UpdatedAt:     utc(row.UpdatedAt),
	}
	if err := fromJSON(row.Sections, &tmpl.Sections); err != nil {
		return evaluation.Template{}, errors.Wrapf(err, "template %s sections", row.ID)
	}
	if err := fromJSON(row.Essays, &tmpl.Essays); err != nil {
		return evaluation.Template{}, errors.Wrapf(err, "template %s essays", row.ID)
	}
	if tmpl.Essays == nil {
		tmpl.Essays = []evaluation.Essay{}
	}
	return tmpl, nil
}

type templateRepository struct {
	db *sqlx.DB
}

var _ evaluation.TemplateRepository = (*templateRepository)(nil)

func NewTemplateRepository(db *sqlx.DB) evaluation.TemplateRepository {
	return &templateRepository{db: db}
}

func (repo *templateRepository) CreateTemplate(ctx context.Context, tmpl evaluation.Template) (evaluation.Template, error) {
	if tmpl.ID == "" {
		tmpl.ID = newID()
	}
	row, err := newTemplateRow(tmpl)
	if err != nil {
		return evaluation.Template{}, err
	}
	q := `INSERT INTO evaluation_templates (` + templateColumns + `) VALUES (:id, :title, :department, :scale_id,
		:scoring_method, :sections, :essays, :created_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return evaluation.Template{}, errors.Wrap(err, "inserting template")
	}
	return repo.GetTemplateByID(ctx, tmpl.ID)
}

func (repo *templateRepository) GetTemplateByID(ctx context.Context, id string) (evaluation.Template, error) {
	var row templateRow
	q := repo.db.Rebind("SELECT " + templateColumns + " FROM evaluation_templates WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return evaluation.Template{}, evaluation.ErrTemplateNotFound
		}
		return evaluation.Template{}, errors.Wrap(err, "selecting template")
	}
	return row.template()
}

func (repo *templateRepository) QueryTemplates(ctx context.Context, filter *evaluation.TemplateFilter) ([]evaluation.Template, error) {
	w := new(where)
	if filter != nil {
		if filter.Search != "" {
			w.add("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
		}
		if filter.Department != "" {
			w.add("(department = '' OR LOWER(department) = ?)", strings.ToLower(filter.Department))
		}
	}
	q, args, err := w.build(repo.db, "SELECT "+templateColumns+" FROM evaluation_templates", "ORDER BY LOWER(title) ASC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []templateRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting templates")
	}
	tmpls := make([]evaluation.Template, 0, len(rows))
	for _, row := range rows {
		tmpl, err := row.template()
		if err != nil {
			return nil, err
		}
		tmpls = append(tmpls, tmpl)
	}
	return tmpls, nil
}

func (repo *templateRepository) UpdateTemplate(ctx context.Context, tmpl evaluation.Template) (evaluation.Template, error) {
	row, err := newTemplateRow(tmpl)
	if err != nil {
		return evaluation.Template{}, err
	}
	q := `UPDATE evaluation_templates SET title = :title, department = :department, scale_id = :scale_id,
		scoring_method = :scoring_method, sections = :sections, essays = :essays, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return evaluation.Template{}, errors.Wrap(err, "updating template")
	}
	if err := checkAffected(res, evaluation.ErrTemplateNotFound); err != nil {
		return evaluation.Template{}, err
	}
	return repo.GetTemplateByID(ctx, tmpl.ID)
}

func (repo *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM evaluation_templates WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting template")
	}
	return checkAffected(res, evaluation.ErrTemplateNotFound)
}

const evaluationColumns = `id, intern_id, supervisor_id, created_by, status, evaluation_type, period_covered,
	supervisor_name, template_id, template, ratings, essays, overall_score, section_scores, rated_items, max_score,
	created_at, updated_at, submitted_at`

type evaluationRow struct {
	ID             string    `db:"id"`
	InternID       string    `db:"intern_id"`
	SupervisorID   string    `db:"supervisor_id"`
	CreatedBy      string    `db:"created_by"`
	Status         string    `db:"status"`
	Type           string    `db:"evaluation_type"`
	PeriodCovered  string    `db:"period_covered"`
	SupervisorName string    `db:"supervisor_name"`
	TemplateID     string    `db:"template_id"`
	Template       string    `db:"template"`
	Ratings        string    `db:"ratings"`
	Essays         string    `db:"essays"`
	OverallScore   float64   `db:"overall_score"`
	SectionScores  string    `db:"section_scores"`
	RatedItems     int       `db:"rated_items"`
	MaxScore       float64   `db:"max_score"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	SubmittedAt    null.Time `db:"submitted_at"`
}

func newEvaluationRow(evl evaluation.Evaluation) (evaluationRow, error) {
	row := evaluationRow{
		ID:             evl.ID,
		InternID:       evl.InternID,
		SupervisorID:   evl.SupervisorID,
		CreatedBy:      evl.CreatedBy,
		Status:         string(evl.Status),
		Type:           string(evl.Type),
		PeriodCovered:  evl.PeriodCovered,
		SupervisorName: evl.SupervisorName,
		TemplateID:     evl.Template.ID,
		OverallScore:   evl.OverallScore,
		RatedItems:     evl.RatedItems,
		MaxScore:       evl.MaxScore,
		CreatedAt:      evl.CreatedAt.UTC(),
		UpdatedAt:      evl.UpdatedAt.UTC(),
		SubmittedAt:    null.TimeFromPtr(evl.SubmittedAt),
	}
	if row.SubmittedAt.Valid {
		row.SubmittedAt.Time = row.SubmittedAt.Time.UTC()
	}

	var err error
	if row.Template, err = toJSON(evl.Template); err != nil {
		return evaluationRow{}, err
	}
	if row.Ratings, err = toJSON(evl.Ratings); err != nil {
		return evaluationRow{}, err
	}
	if row.Essays, err = toJSON(evl.Essays); err != nil {
		return evaluationRow{}, err
	}
	if row.SectionScores, err = toJSON(evl.SectionScores); err != nil {
		return evaluationRow{}, err
	}
	return row, nil
}

func (row evaluationRow) evaluation() (evaluation.Evaluation, error) {
	evl := evaluation.Evaluation{
		ID:             row.ID,
		InternID:       row.InternID,
		SupervisorID:   row.SupervisorID,
		CreatedBy:      row.CreatedBy,
		Status:         evaluation.Status(row.Status),
		Type:           evaluation.Type(row.Type),
		PeriodCovered:  row.PeriodCovered,
		SupervisorName: row.SupervisorName,
		OverallScore:   row.OverallScore,
		RatedItems:     row.RatedItems,
		MaxScore:       row.MaxScore,
		CreatedAt:      utc(row.CreatedAt),
		UpdatedAt:      utc(row.UpdatedAt),
		SubmittedAt:    utcPtr(row.SubmittedAt),
	}
	docs := []struct {
		field string
		src   string
		dst   interface{}
	}{
		{"template", row.Template, &evl.Template},
		{"ratings", row.Ratings, &evl.Ratings},
		{"essays", row.Essays, &evl.Essays},
		{"section_scores", row.SectionScores, &evl.SectionScores},
	}
	for _, d := range docs {
		if err := fromJSON(d.src, d.dst); err != nil {
			return evaluation.Evaluation{}, errors.Wrapf(err, "evaluation %s %s", row.ID, d.field)
		}
	}
	return evl, nil
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *sqlx.DB) evaluation.Repository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, evl evaluation.Evaluation) (evaluation.Evaluation, error) {
	if evl.ID == "" {
		evl.ID = newID()
	}
	row, err := newEvaluationRow(evl)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	q := `INSERT INTO evaluations (` + evaluationColumns + `) VALUES (:id, :intern_id, :supervisor_id, :created_by,
		:status, :evaluation_type, :period_covered, :supervisor_name, :template_id, :template, :ratings, :essays,
		:overall_score, :section_scores, :rated_items, :max_score, :created_at, :updated_at, :submitted_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "inserting evaluation")
	}
	return repo.GetEvaluationByID(ctx, evl.ID)
}

func (repo *evaluationRepository) GetEvaluationByID(ctx context.Context, id string) (evaluation.Evaluation, error) {
	var row evaluationRow
	q := repo.db.Rebind("SELECT " + evaluationColumns + " FROM evaluations WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return evaluation.Evaluation{}, evaluation.ErrNotFound
		}
		return evaluation.Evaluation{}, errors.Wrap(err, "selecting evaluation")
	}
	return row.evaluation()
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, filter *evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	w := new(where)
	if filter != nil {
		if filter.InternIDs != nil {
			if len(filter.InternIDs) == 0 {
				return []evaluation.Evaluation{}, nil
			}
			w.add("intern_id IN (?)", filter.InternIDs)
		}
		if filter.SupervisorID != "" {
			w.add("supervisor_id = ?", filter.SupervisorID)
		}
		if filter.TemplateID != "" {
			w.add("template_id = ?", filter.TemplateID)
		}
		if len(filter.Statuses) > 0 {
			w.add("status IN (?)", stringsOf(filter.Statuses))
		}
		if len(filter.Types) > 0 {
			w.add("evaluation_type IN (?)", stringsOf(filter.Types))
		}
	}
	q, args, err := w.build(repo.db, "SELECT "+evaluationColumns+" FROM evaluations", "ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []evaluationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting evaluations")
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, row := range rows {
		evl, err := row.evaluation()
		if err != nil {
			return nil, err
		}
		evals = append(evals, evl)
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateEvaluation(ctx context.Context, evl evaluation.Evaluation) (evaluation.Evaluation, error) {
	row, err := newEvaluationRow(evl)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	q := `UPDATE evaluations SET intern_id = :intern_id, supervisor_id = :supervisor_id, status = :status,
		evaluation_type = :evaluation_type, period_covered = :period_covered, supervisor_name = :supervisor_name,
		template_id = :template_id, template = :template, ratings = :ratings, essays = :essays,
		overall_score = :overall_score, section_scores = :section_scores, rated_items = :rated_items,
		max_score = :max_score, updated_at = :updated_at, submitted_at = :submitted_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "updating evaluation")
	}
	if err := checkAffected(res, evaluation.ErrNotFound); err != nil {
		return evaluation.Evaluation{}, err
	}
	return repo.GetEvaluationByID(ctx, evl.ID)
}

func (repo *evaluationRepository) DeleteEvaluation(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM evaluations WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	return checkAffected(res, evaluation.ErrNotFound)
}
