package inmemdb

import (
	"context"
	"sort"

	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func copyRecord(rec attendance.Record) attendance.Record {
	if rec.TimeOut != nil {
		out := *rec.TimeOut
		rec.TimeOut = &out
	}
	return rec
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if rec.ID == "" {
		rec.ID = newID()
	}
	rec = copyRecord(rec)
	repo.db.table[rec.ID] = &rec
	return copyRecord(rec), nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	rec = copyRecord(rec)
	repo.db.table[rec.ID] = &rec
	return copyRecord(rec), nil
}

func (repo *attendanceRepository) GetOpenRecord(_ context.Context, internID string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.InternID == internID && rec.IsOpen() {
			return copyRecord(*rec), nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.table {
		if filter.Matches(*rec) {
			records = append(records, copyRecord(*rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].TimeIn.Equal(records[j].TimeIn) {
			return records[i].TimeIn.Before(records[j].TimeIn)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}
