package inmemdb

import (
	"context"
	"sort"

	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
)

type narrativeRepository struct {
	db *narrativeTable
}

var _ narrative.Repository = (*narrativeRepository)(nil)

func NewNarrativeRepository(db *DB) narrative.Repository {
	return &narrativeRepository{db: db.narrative}
}

func copyReport(r narrative.Report) narrative.Report {
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		r.ReviewedAt = &at
	}
	return r
}

func (repo *narrativeRepository) CreateReport(_ context.Context, r narrative.Report) (narrative.Report, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if r.ID == "" {
		r.ID = newID()
	}
	r = copyReport(r)
	repo.db.table[r.ID] = &r
	return copyReport(r), nil
}

func (repo *narrativeRepository) GetReportByID(_ context.Context, id string) (narrative.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return copyReport(*r), nil
	}
	return narrative.Report{}, narrative.ErrNotFound
}

func (repo *narrativeRepository) QueryReports(_ context.Context, filter *narrative.QueryFilter) ([]narrative.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reports := make([]narrative.Report, 0)
	for _, r := range repo.db.table {
		if filter.Matches(*r) {
			reports = append(reports, copyReport(*r))
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].WeekOf != reports[j].WeekOf {
			return reports[i].WeekOf > reports[j].WeekOf
		}
		return reports[i].ID < reports[j].ID
	})
	return reports, nil
}

func (repo *narrativeRepository) UpdateReport(_ context.Context, r narrative.Report) (narrative.Report, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[r.ID]
	if !ok {
		return narrative.Report{}, narrative.ErrNotFound
	}
	r.CreatedAt = orig.CreatedAt
	r = copyReport(r)
	repo.db.table[r.ID] = &r
	return copyReport(r), nil
}
