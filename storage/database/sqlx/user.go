package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

const userColumns = `id, name, email, role, department, supervisor_id, required_hours,
	internship_status, official_final_grade, is_active, created_at, updated_at`

type userRow struct {
	ID                 string       `db:"id"`
	Name               string       `db:"name"`
	Email              string       `db:"email"`
	Role               string       `db:"role"`
	Department         string       `db:"department"`
	SupervisorID       null.String  `db:"supervisor_id"`
	RequiredHours      float64      `db:"required_hours"`
	InternshipStatus   null.String  `db:"internship_status"`
	OfficialFinalGrade null.Float64 `db:"official_final_grade"`
	IsActive           bool         `db:"is_active"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:                 usr.ID,
		Name:               usr.Name,
		Email:              usr.Email,
		Role:               usr.Role,
		Department:         usr.Department,
		SupervisorID:       nullString(usr.SupervisorID),
		RequiredHours:      usr.RequiredHours,
		InternshipStatus:   nullString(usr.InternshipStatus),
		OfficialFinalGrade: null.Float64FromPtr(usr.OfficialFinalGrade),
		IsActive:           usr.IsActive,
		CreatedAt:          usr.CreatedAt.UTC(),
		UpdatedAt:          usr.UpdatedAt.UTC(),
	}
}

func (row userRow) user() user.User {
	return user.User{
		ID:                 row.ID,
		Name:               row.Name,
		Email:              row.Email,
		Role:               row.Role,
		Department:         row.Department,
		SupervisorID:       row.SupervisorID.String,
		RequiredHours:      row.RequiredHours,
		InternshipStatus:   row.InternshipStatus.String,
		OfficialFinalGrade: row.OfficialFinalGrade.Ptr(),
		IsActive:           row.IsActive,
		CreatedAt:          utc(row.CreatedAt),
		UpdatedAt:          utc(row.UpdatedAt),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	w := new(where)
	w.add("LOWER(email) = ?", strings.ToLower(email))
	if len(excludedUsers) > 0 {
		ids := make([]string, len(excludedUsers))
		for i, u := range excludedUsers {
			ids[i] = u.ID
		}
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := w.build(repo.db, "SELECT COUNT(*) FROM users", "")
	if err != nil {
		return err
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = newID()
	}
	q := `INSERT INTO users (` + userColumns + `) VALUES (:id, :name, :email, :role, :department, :supervisor_id,
		:required_hours, :internship_status, :official_final_grade, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

var userOrderColumns = map[string]string{
	"name":       "LOWER(name)",
	"email":      "LOWER(email)",
	"role":       "role",
	"department": "department",
	"created_at": "created_at",
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	w := new(where)
	if filter != nil {
		if filter.IDs != nil && len(filter.IDs) == 0 {
			return []user.User{}, nil
		}
		if filter.Search != "" {
			s := "%" + strings.ToLower(filter.Search) + "%"
			w.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", s, s)
		}
		if len(filter.Roles) > 0 {
			w.add("role IN (?)", filter.Roles)
		}
		if filter.Department != "" {
			w.add("LOWER(department) = ?", strings.ToLower(filter.Department))
		}
		if filter.SupervisorID != "" {
			w.add("supervisor_id = ?", filter.SupervisorID)
		}
		if filter.InternshipStatus != "" {
			w.add("internship_status = ?", filter.InternshipStatus)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if len(filter.IDs) > 0 {
			w.add("id IN (?)", filter.IDs)
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	orders := make([]string, 0, len(ordering)+1)
	for _, o := range ordering {
		if col, ok := userOrderColumns[o.Field]; ok {
			orders = append(orders, core.DBOrdering{Field: col, Ascending: o.Ascending}.String())
		}
	}
	orders = append(orders, "id ASC")

	q, args, err := w.build(repo.db, "SELECT "+userColumns+" FROM users", "ORDER BY "+strings.Join(orders, ", "))
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.user()
	}
	return users, nil
}

func (repo *userRepository) getOne(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	var row userRow
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + cond)
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getOne(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, email = :email, role = :role, department = :department,
		supervisor_id = :supervisor_id, required_hours = :required_hours, internship_status = :internship_status,
		official_final_grade = :official_final_grade, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err := checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	w := new(where)
	w.add("id IN (?)", ids)
	q, args, err := w.build(repo.db, "DELETE FROM users", "")
	if err != nil {
		return err
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
