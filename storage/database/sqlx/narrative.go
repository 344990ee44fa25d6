package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
)

const reportColumns = `id, intern_id, week_of, content, status, feedback, reviewed_by, reviewed_at, created_at, updated_at`

type reportRow struct {
	ID         string      `db:"id"`
	InternID   string      `db:"intern_id"`
	WeekOf     string      `db:"week_of"`
	Content    string      `db:"content"`
	Status     string      `db:"status"`
	Feedback   string      `db:"feedback"`
	ReviewedBy null.String `db:"reviewed_by"`
	ReviewedAt null.Time   `db:"reviewed_at"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func newReportRow(r narrative.Report) reportRow {
	row := reportRow{
		ID:         r.ID,
		InternID:   r.InternID,
		WeekOf:     r.WeekOf,
		Content:    r.Content,
		Status:     string(r.Status),
		Feedback:   r.Feedback,
		ReviewedBy: nullString(r.ReviewedBy),
		ReviewedAt: null.TimeFromPtr(r.ReviewedAt),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if row.ReviewedAt.Valid {
		row.ReviewedAt.Time = row.ReviewedAt.Time.UTC()
	}
	return row
}

func (row reportRow) report() narrative.Report {
	return narrative.Report{
		ID:         row.ID,
		InternID:   row.InternID,
		WeekOf:     row.WeekOf,
		Content:    row.Content,
		Status:     narrative.Status(row.Status),
		Feedback:   row.Feedback,
		ReviewedBy: row.ReviewedBy.String,
		ReviewedAt: utcPtr(row.ReviewedAt),
		CreatedAt:  utc(row.CreatedAt),
		UpdatedAt:  utc(row.UpdatedAt),
	}
}

type narrativeRepository struct {
	db *sqlx.DB
}

var _ narrative.Repository = (*narrativeRepository)(nil)

func NewNarrativeRepository(db *sqlx.DB) narrative.Repository {
	return &narrativeRepository{db: db}
}

func (repo *narrativeRepository) CreateReport(ctx context.Context, r narrative.Report) (narrative.Report, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	q := `INSERT INTO narrative_reports (` + reportColumns + `) VALUES (:id, :intern_id, :week_of, :content, :status,
		:feedback, :reviewed_by, :reviewed_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newReportRow(r)); err != nil {
		return narrative.Report{}, errors.Wrap(err, "inserting narrative report")
	}
	return repo.GetReportByID(ctx, r.ID)
}

func (repo *narrativeRepository) GetReportByID(ctx context.Context, id string) (narrative.Report, error) {
	var row reportRow
	q := repo.db.Rebind("SELECT " + reportColumns + " FROM narrative_reports WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return narrative.Report{}, narrative.ErrNotFound
		}
		return narrative.Report{}, errors.Wrap(err, "selecting narrative report")
	}
	return row.report(), nil
}

func (repo *narrativeRepository) QueryReports(ctx context.Context, filter *narrative.QueryFilter) ([]narrative.Report, error) {
	w := new(where)
	if filter != nil {
		if filter.InternIDs != nil {
			if len(filter.InternIDs) == 0 {
				return []narrative.Report{}, nil
			}
			w.add("intern_id IN (?)", filter.InternIDs)
		}
		if len(filter.Statuses) > 0 {
			w.add("status IN (?)", stringsOf(filter.Statuses))
		}
		if filter.WeekOf != "" {
			w.add("week_of = ?", filter.WeekOf)
		}
	}
	q, args, err := w.build(repo.db, "SELECT "+reportColumns+" FROM narrative_reports", "ORDER BY week_of DESC, id ASC")
	if err != nil {
		return nil, err
	}

	var rows []reportRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting narrative reports")
	}
	reports := make([]narrative.Report, len(rows))
	for i, row := range rows {
		reports[i] = row.report()
	}
	return reports, nil
}

func (repo *narrativeRepository) UpdateReport(ctx context.Context, r narrative.Report) (narrative.Report, error) {
	q := `UPDATE narrative_reports SET week_of = :week_of, content = :content, status = :status, feedback = :feedback,
		reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newReportRow(r))
	if err != nil {
		return narrative.Report{}, errors.Wrap(err, "updating narrative report")
	}
	if err := checkAffected(res, narrative.ErrNotFound); err != nil {
		return narrative.Report{}, err
	}
	return repo.GetReportByID(ctx, r.ID)
}
