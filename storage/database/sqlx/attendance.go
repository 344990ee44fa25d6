package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
)

const recordColumns = `id, intern_id, work_date, time_in, time_out, hours, remarks, created_at, updated_at`

type recordRow struct {
	ID        string    `db:"id"`
	InternID  string    `db:"intern_id"`
	WorkDate  string    `db:"work_date"`
	TimeIn    time.Time `db:"time_in"`
	TimeOut   null.Time `db:"time_out"`
	Hours     float64   `db:"hours"`
	Remarks   string    `db:"remarks"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newRecordRow(rec attendance.Record) recordRow {
	row := recordRow{
		ID:        rec.ID,
		InternID:  rec.InternID,
		WorkDate:  rec.WorkDate,
		TimeIn:    rec.TimeIn.UTC(),
		TimeOut:   null.TimeFromPtr(rec.TimeOut),
		Hours:     rec.Hours,
		Remarks:   rec.Remarks,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	if row.TimeOut.Valid {
		row.TimeOut.Time = row.TimeOut.Time.UTC()
	}
	return row
}

func (row recordRow) record() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		InternID:  row.InternID,
		WorkDate:  row.WorkDate,
		TimeIn:    utc(row.TimeIn),
		TimeOut:   utcPtr(row.TimeOut),
		Hours:     row.Hours,
		Remarks:   row.Remarks,
		CreatedAt: utc(row.CreatedAt),
		UpdatedAt: utc(row.UpdatedAt),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	q := `INSERT INTO attendance_records (` + recordColumns + `) VALUES (:id, :intern_id, :work_date, :time_in,
		:time_out, :hours, :remarks, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newRecordRow(rec)); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return repo.getOne(ctx, "id = ?", rec.ID)
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `UPDATE attendance_records SET work_date = :work_date, time_in = :time_in, time_out = :time_out,
		hours = :hours, remarks = :remarks, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newRecordRow(rec))
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if err := checkAffected(res, attendance.ErrNotFound); err != nil {
		return attendance.Record{}, err
	}
	return repo.getOne(ctx, "id = ?", rec.ID)
}

func (repo *attendanceRepository) getOne(ctx context.Context, cond string, args ...interface{}) (attendance.Record, error) {
	var row recordRow
	q := repo.db.Rebind("SELECT " + recordColumns + " FROM attendance_records WHERE " + cond + " ORDER BY time_in DESC LIMIT 1")
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) GetOpenRecord(ctx context.Context, internID string) (attendance.Record, error) {
	return repo.getOne(ctx, "intern_id = ? AND time_out IS NULL", internID)
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	w := new(where)
	if filter != nil {
		if filter.InternIDs != nil {
			if len(filter.InternIDs) == 0 {
				return []attendance.Record{}, nil
			}
			w.add("intern_id IN (?)", filter.InternIDs)
		}
		if filter.From != "" {
			w.add("work_date >= ?", filter.From)
		}
		if filter.To != "" {
			w.add("work_date <= ?", filter.To)
		}
	}
	q, args, err := w.build(repo.db, "SELECT "+recordColumns+" FROM attendance_records", "ORDER BY time_in ASC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	records := make([]attendance.Record, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}
