package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
)

type templateRepository struct {
	db *templateTable
}

var _ evaluation.TemplateRepository = (*templateRepository)(nil)

func NewTemplateRepository(db *DB) evaluation.TemplateRepository {
	return &templateRepository{db: db.template}
}

func (repo *templateRepository) CreateTemplate(_ context.Context, tmpl evaluation.Template) (evaluation.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if tmpl.ID == "" {
		tmpl.ID = newID()
	}
	tmpl = tmpl.Clone()
	repo.db.table[tmpl.ID] = &tmpl
	return tmpl.Clone(), nil
}

func (repo *templateRepository) GetTemplateByID(_ context.Context, id string) (evaluation.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tmpl, ok := repo.db.table[id]; ok {
		return tmpl.Clone(), nil
	}
	return evaluation.Template{}, evaluation.ErrTemplateNotFound
}

func (repo *templateRepository) QueryTemplates(_ context.Context, filter *evaluation.TemplateFilter) ([]evaluation.Template, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tmpls := make([]evaluation.Template, 0)
	for _, tmpl := range repo.db.table {
		if filter.Matches(*tmpl) {
			tmpls = append(tmpls, tmpl.Clone())
		}
	}
	sort.Slice(tmpls, func(i, j int) bool {
		a, b := strings.ToLower(tmpls[i].Title), strings.ToLower(tmpls[j].Title)
		if a != b {
			return a < b
		}
		return tmpls[i].ID < tmpls[j].ID
	})
	return tmpls, nil
}

func (repo *templateRepository) UpdateTemplate(_ context.Context, tmpl evaluation.Template) (evaluation.Template, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[tmpl.ID]; !ok {
		return evaluation.Template{}, evaluation.ErrTemplateNotFound
	}
	tmpl = tmpl.Clone()
	repo.db.table[tmpl.ID] = &tmpl
	return tmpl.Clone(), nil
}

func (repo *templateRepository) DeleteTemplate(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return evaluation.ErrTemplateNotFound
	}
	delete(repo.db.table, id)
	return nil
}

type evaluationRepository struct {
	db *evaluationTable
}

var _ evaluation.Repository = (*evaluationRepository)(nil)

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db.evaluation}
}

func (repo *evaluationRepository) CreateEvaluation(_ context.Context, evl evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if evl.ID == "" {
		evl.ID = newID()
	}
	evl = copyEvaluation(evl)
	repo.db.table[evl.ID] = &evl
	return copyEvaluation(evl), nil
}

func (repo *evaluationRepository) GetEvaluationByID(_ context.Context, id string) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evl, ok := repo.db.table[id]; ok {
		return copyEvaluation(*evl), nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QueryEvaluations(_ context.Context, filter *evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	evals := make([]evaluation.Evaluation, 0)
	for _, evl := range repo.db.table {
		if filter.Matches(*evl) {
			evals = append(evals, copyEvaluation(*evl))
		}
	}
	sort.Slice(evals, func(i, j int) bool {
		if !evals[i].CreatedAt.Equal(evals[j].CreatedAt) {
			return evals[i].CreatedAt.Before(evals[j].CreatedAt)
		}
		return evals[i].ID < evals[j].ID
	})
	return evals, nil
}

func (repo *evaluationRepository) UpdateEvaluation(_ context.Context, evl evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[evl.ID]
	if !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	evl.CreatedAt = orig.CreatedAt
	evl = copyEvaluation(evl)
	repo.db.table[evl.ID] = &evl
	return copyEvaluation(evl), nil
}

func (repo *evaluationRepository) DeleteEvaluation(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return evaluation.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func copyEvaluation(evl evaluation.Evaluation) evaluation.Evaluation {
	evl.Template = evl.Template.Clone()
	if evl.Ratings != nil {
		ratings := make(map[string]map[string]string, len(evl.Ratings))
		for sec, items := range evl.Ratings {
			m := make(map[string]string, len(items))
			for k, v := range items {
				m[k] = v
			}
			ratings[sec] = m
		}
		evl.Ratings = ratings
	}
	if evl.Essays != nil {
		essays := make(map[string]string, len(evl.Essays))
		for k, v := range evl.Essays {
			essays[k] = v
		}
		evl.Essays = essays
	}
	if evl.SectionScores != nil {
		scores := make(map[string]float64, len(evl.SectionScores))
		for k, v := range evl.SectionScores {
			scores[k] = v
		}
		evl.SectionScores = scores
	}
	if evl.SubmittedAt != nil {
		at := *evl.SubmittedAt
		evl.SubmittedAt = &at
	}
	return evl
}
