package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	"github.com/Evenson-7/OJTManagement-sub000/storage/database"
	sqlxrepos "github.com/Evenson-7/OJTManagement-sub000/storage/database/sqlx"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, conf.Database.Engine))
	return db
}

var ctx = context.Background()

func newUser(name, email, role, dept string) user.User {
	now := core.Now()
	return user.User{Name: name, Email: email, Role: role, Department: dept, IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func TestUserRepository(t *testing.T) {
	repo := sqlxrepos.NewUserRepository(openDB(t))

	sup, err := repo.CreateUser(ctx, newUser("Sam Supervisor", "sam@test.test", user.RoleSupervisor, "IT"))
	require.NoError(t, err)
	require.NotEmpty(t, sup.ID)

	in := newUser("juan Dela Cruz", "Juan@test.test", user.RoleIntern, "IT")
	in.SupervisorID = sup.ID
	in.RequiredHours = 486
	in.InternshipStatus = user.InternshipOngoing
	juan, err := repo.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, sup.ID, juan.SupervisorID)
	assert.Equal(t, 486.0, juan.RequiredHours)
	assert.Nil(t, juan.OfficialFinalGrade)
	assert.True(t, in.CreatedAt.Equal(juan.CreatedAt))

	maria, err := repo.CreateUser(ctx, newUser("Maria Santos", "maria@test.test", user.RoleIntern, "HR"))
	require.NoError(t, err)
	assert.Empty(t, maria.SupervisorID)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "JUAN@test.test")
		require.NoError(t, err)
		assert.Equal(t, juan.ID, got.ID)

		_, err = repo.GetUserByID(ctx, "nope")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "juan@TEST.test"))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "juan@test.test", juan))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.test"))
	})

	active := true
	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{"all by name", nil, nil, []string{juan.ID, maria.ID, sup.ID}},
		{"by email desc", nil, []core.DBOrdering{{Field: "email"}}, []string{sup.ID, maria.ID, juan.ID}},
		{"search", &user.QueryFilter{Search: "SANTOS"}, nil, []string{maria.ID}},
		{"roles", &user.QueryFilter{Roles: []string{user.RoleIntern}}, nil, []string{juan.ID, maria.ID}},
		{"department", &user.QueryFilter{Department: "it"}, nil, []string{juan.ID, sup.ID}},
		{"supervisor", &user.QueryFilter{SupervisorID: sup.ID}, nil, []string{juan.ID}},
		{"status", &user.QueryFilter{InternshipStatus: user.InternshipOngoing}, nil, []string{juan.ID}},
		{"active", &user.QueryFilter{IsActive: &active, IDs: []string{maria.ID, sup.ID}}, nil, []string{maria.ID, sup.ID}},
		{"no ids", &user.QueryFilter{IDs: []string{}}, nil, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users, err := repo.QueryUsers(ctx, tc.filter, tc.ordering)
			require.NoError(t, err)
			ids := make([]string, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	t.Run("update", func(t *testing.T) {
		grade := 91.5
		juan.OfficialFinalGrade = &grade
		juan.InternshipStatus = user.InternshipCompleted
		juan.SupervisorID = ""
		juan.UpdatedAt = core.Now().Add(time.Hour)
		got, err := repo.UpdateUser(ctx, juan)
		require.NoError(t, err)
		require.NotNil(t, got.OfficialFinalGrade)
		assert.Equal(t, 91.5, *got.OfficialFinalGrade)
		assert.Equal(t, user.InternshipCompleted, got.InternshipStatus)
		assert.Empty(t, got.SupervisorID)
		assert.True(t, juan.UpdatedAt.Equal(got.UpdatedAt))

		_, err = repo.UpdateUser(ctx, user.User{ID: "nope"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsersByID(ctx, maria.ID, "nope"))
		_, err := repo.GetUserByID(ctx, maria.ID)
		assert.Equal(t, user.ErrNotFound, err)
		assert.NoError(t, repo.DeleteUsersByID(ctx))
	})
}

func TestTemplateRepository(t *testing.T) {
	repo := sqlxrepos.NewTemplateRepository(openDB(t))

	legacy := evaluation.LegacyTemplate()
	legacy.CreatedAt, legacy.UpdatedAt = core.Now(), core.Now()
	got, err := repo.CreateTemplate(ctx, legacy)
	require.NoError(t, err)
	assert.Equal(t, legacy.Sections, got.Sections)
	assert.Equal(t, scoring.MethodWeighted, got.ScoringMethod)
	assert.Equal(t, legacy.Essays, got.Essays)

	it := evaluation.Template{
		Title:      "IT Evaluation",
		Department: "IT",
		ScaleID:    scoring.ScaleLetter,
		Sections:   []evaluation.Section{{ID: "tech", Title: "Technical", Items: []evaluation.Item{{ID: "coding", Text: "Writes code"}}}},
		CreatedBy:  "cora",
		CreatedAt:  core.Now(),
		UpdatedAt:  core.Now(),
	}
	it, err = repo.CreateTemplate(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, "cora", it.CreatedBy)
	assert.NotNil(t, it.Essays)

	tmpls, err := repo.QueryTemplates(ctx, &evaluation.TemplateFilter{Department: "it"})
	require.NoError(t, err)
	assert.Len(t, tmpls, 2) // the built-in one has no department

	tmpls, err = repo.QueryTemplates(ctx, &evaluation.TemplateFilter{Department: "HR"})
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	assert.Equal(t, evaluation.LegacyTemplateID, tmpls[0].ID)

	tmpls, err = repo.QueryTemplates(ctx, &evaluation.TemplateFilter{Search: "it eval"})
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	assert.Equal(t, it.ID, tmpls[0].ID)

	it.Title = "IT Evaluation v2"
	it, err = repo.UpdateTemplate(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, "IT Evaluation v2", it.Title)

	require.NoError(t, repo.DeleteTemplate(ctx, it.ID))
	_, err = repo.GetTemplateByID(ctx, it.ID)
	assert.Equal(t, evaluation.ErrTemplateNotFound, err)
	assert.Equal(t, evaluation.ErrTemplateNotFound, repo.DeleteTemplate(ctx, it.ID))
}

func TestEvaluationRepository(t *testing.T) {
	repo := sqlxrepos.NewEvaluationRepository(openDB(t))

	t0 := core.Now()
	mk := func(intern string, status evaluation.Status, typ evaluation.Type, at time.Time) evaluation.Evaluation {
		return evaluation.Evaluation{
			InternID:     intern,
			SupervisorID: "sam",
			Status:       status,
			Type:         typ,
			Template:     evaluation.LegacyTemplate(),
			CreatedAt:    at,
			UpdatedAt:    at,
		}
	}

	submitted := mk("juan", evaluation.StatusSubmitted, evaluation.TypeFinal, t0)
	submitted.Ratings = map[string]map[string]string{"behavior": {"punctuality": "5"}}
	submitted.Essays = map[string]string{"e1": "Good"}
	submitted.SectionScores = map[string]float64{"Behavior at Work": 5}
	submitted.OverallScore, submitted.RatedItems, submitted.MaxScore = 5, 1, 5
	submitted.SubmittedAt = &t0

	e1, err := repo.CreateEvaluation(ctx, submitted)
	require.NoError(t, err)
	assert.Equal(t, submitted.Ratings, e1.Ratings)
	assert.Equal(t, submitted.Essays, e1.Essays)
	assert.Equal(t, submitted.SectionScores, e1.SectionScores)
	assert.Equal(t, evaluation.LegacyTemplateID, e1.Template.ID)
	require.NotNil(t, e1.SubmittedAt)
	assert.True(t, t0.Equal(*e1.SubmittedAt))

	e2, err := repo.CreateEvaluation(ctx, mk("maria", evaluation.StatusDraft, evaluation.TypeRegular, t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.Nil(t, e2.SubmittedAt)
	e3, err := repo.CreateEvaluation(ctx, mk("juan", evaluation.StatusCompleted, evaluation.TypeMidterm, t0.Add(2*time.Minute)))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter *evaluation.QueryFilter
		want   []string
	}{
		{"all, oldest first", nil, []string{e1.ID, e2.ID, e3.ID}},
		{"interns", &evaluation.QueryFilter{InternIDs: []string{"juan"}}, []string{e1.ID, e3.ID}},
		{"no interns", &evaluation.QueryFilter{InternIDs: []string{}}, []string{}},
		{"terminal", &evaluation.QueryFilter{Statuses: evaluation.TerminalStatuses()}, []string{e1.ID, e3.ID}},
		{"types", &evaluation.QueryFilter{Types: []evaluation.Type{evaluation.TypeRegular}}, []string{e2.ID}},
		{"template", &evaluation.QueryFilter{TemplateID: "other"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evals, err := repo.QueryEvaluations(ctx, tc.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(evals))
			for _, e := range evals {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	e2.Status = evaluation.StatusSubmitted
	e2.SupervisorName = "Sam Supervisor"
	e2, err = repo.UpdateEvaluation(ctx, e2)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusSubmitted, e2.Status)
	assert.Equal(t, "Sam Supervisor", e2.SupervisorName)

	require.NoError(t, repo.DeleteEvaluation(ctx, e2.ID))
	_, err = repo.GetEvaluationByID(ctx, e2.ID)
	assert.Equal(t, evaluation.ErrNotFound, err)
	_, err = repo.UpdateEvaluation(ctx, e2)
	assert.Equal(t, evaluation.ErrNotFound, err)
}

func TestAttendanceRepository(t *testing.T) {
	repo := sqlxrepos.NewAttendanceRepository(openDB(t))

	_, err := repo.GetOpenRecord(ctx, "juan")
	assert.Equal(t, attendance.ErrNotFound, err)

	day := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		in := day.AddDate(0, 0, i)
		out := in.Add(8 * time.Hour)
		_, err := repo.CreateRecord(ctx, attendance.Record{
			InternID: "juan", WorkDate: in.Format("2006-01-02"), TimeIn: in, TimeOut: &out, Hours: 8,
			CreatedAt: in, UpdatedAt: out,
		})
		require.NoError(t, err)
	}
	open, err := repo.CreateRecord(ctx, attendance.Record{
		InternID: "juan", WorkDate: "2024-06-06", TimeIn: day.AddDate(0, 0, 3), CreatedAt: day, UpdatedAt: day,
	})
	require.NoError(t, err)
	assert.True(t, open.IsOpen())

	got, err := repo.GetOpenRecord(ctx, "juan")
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.ID)

	records, err := repo.QueryRecords(ctx, &attendance.QueryFilter{InternIDs: []string{"juan"}, From: "2024-06-04", To: "2024-06-05"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-06-04", records[0].WorkDate)
	assert.Equal(t, 8.0, records[1].Hours)

	out := day.AddDate(0, 0, 3).Add(4 * time.Hour)
	open.TimeOut, open.Hours = &out, 4
	closed, err := repo.UpdateRecord(ctx, open)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.True(t, out.Equal(*closed.TimeOut))

	_, err = repo.GetOpenRecord(ctx, "juan")
	assert.Equal(t, attendance.ErrNotFound, err)
	_, err = repo.UpdateRecord(ctx, attendance.Record{ID: "nope"})
	assert.Equal(t, attendance.ErrNotFound, err)
}

func TestNarrativeRepository(t *testing.T) {
	repo := sqlxrepos.NewNarrativeRepository(openDB(t))

	now := core.Now()
	mk := func(intern, week string) narrative.Report {
		return narrative.Report{InternID: intern, WeekOf: week, Content: "Did things", Status: narrative.StatusSubmitted, CreatedAt: now, UpdatedAt: now}
	}
	r1, err := repo.CreateReport(ctx, mk("juan", "2024-06-03"))
	require.NoError(t, err)
	r2, err := repo.CreateReport(ctx, mk("juan", "2024-06-10"))
	require.NoError(t, err)
	_, err = repo.CreateReport(ctx, mk("maria", "2024-06-03"))
	require.NoError(t, err)

	_, err = repo.CreateReport(ctx, mk("juan", "2024-06-03"))
	assert.Error(t, err, "one report per intern and week")

	reports, err := repo.QueryReports(ctx, &narrative.QueryFilter{InternIDs: []string{"juan"}})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, r2.ID, reports[0].ID)

	r1.Status = narrative.StatusReturned
	r1.Feedback = "More detail please"
	r1.ReviewedBy = "sam"
	r1.ReviewedAt = &now
	r1, err = repo.UpdateReport(ctx, r1)
	require.NoError(t, err)
	assert.Equal(t, "sam", r1.ReviewedBy)
	require.NotNil(t, r1.ReviewedAt)

	reports, err = repo.QueryReports(ctx, &narrative.QueryFilter{Statuses: []narrative.Status{narrative.StatusReturned}, WeekOf: "2024-06-03"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, r1.ID, reports[0].ID)

	_, err = repo.GetReportByID(ctx, "nope")
	assert.Equal(t, narrative.ErrNotFound, err)
}
