package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
	"github.com/Evenson-7/OJTManagement-sub000/internal/testutil"
)

func TestUser_CanView(t *testing.T) {
	env := testutil.NewEnv(t)
	c := testutil.NewCast(t, env.UserRepo)

	tests := []struct {
		name    string
		viewer  user.User
		subject user.User
		want    bool
	}{
		{name: "self", viewer: c.Intern, subject: c.Intern, want: true},
		{name: "other intern", viewer: c.Intern, subject: c.OtherIntern},
		{name: "admin", viewer: c.Admin, subject: c.Outsider, want: true},
		{name: "coordinator: same department", viewer: c.Coordinator, subject: c.OtherIntern, want: true},
		{name: "coordinator: other department", viewer: c.Coordinator, subject: c.Outsider},
		{name: "supervisor: assignee", viewer: c.Supervisor, subject: c.Intern, want: true},
		{name: "supervisor: not assigned", viewer: c.Supervisor, subject: c.OtherIntern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.viewer.CanView(tt.subject))
		})
	}
}

func TestUser_CanManage(t *testing.T) {
	env := testutil.NewEnv(t)
	c := testutil.NewCast(t, env.UserRepo)

	assert.True(t, c.Admin.CanManage(c.Outsider))
	assert.True(t, c.Coordinator.CanManage(c.Intern))
	assert.False(t, c.Coordinator.CanManage(c.Outsider))
	assert.False(t, c.Coordinator.CanManage(c.Admin))
	assert.False(t, c.Coordinator.CanManage(c.Coordinator))
	assert.False(t, c.Supervisor.CanManage(c.Intern))
}

func TestNewUser_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	testutil.CreateUser(t, env.UserRepo, user.RoleIntern, "Taken", "IT")

	tests := []struct {
		name       string
		nu         user.NewUser
		wantFields []string
	}{
		{name: "empty", nu: user.NewUser{}, wantFields: []string{"name", "email", "role"}},
		{name: "bad role", nu: user.NewUser{Name: "A", Email: "a@test.test", Role: "teacher"}, wantFields: []string{"role"}},
		{name: "bad status", nu: user.NewUser{Name: "A", Email: "a@test.test", Role: "intern", InternshipStatus: "lol"}, wantFields: []string{"internship_status"}},
		{name: "email taken", nu: user.NewUser{Name: "A", Email: " TAKEN@test.test ", Role: "intern"}, wantFields: []string{"email"}},
		{name: "valid", nu: user.NewUser{Name: " A ", Email: "A@Test.test", Role: "Intern"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, env.Validate, env.Translator, env.Users)
			if tt.wantFields == nil {
				require.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}

	nu := user.NewUser{Name: " A ", Email: "A@Test.test", Role: "Intern"}
	require.NoError(t, nu.Validate(ctx, env.Validate, env.Translator, env.Users))
	assert.Equal(t, "a@test.test", nu.Email)
	assert.Equal(t, user.RoleIntern, nu.Role)
	assert.Equal(t, user.InternshipPending, nu.InternshipStatus)
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c := testutil.NewCast(t, env.UserRepo)

	intern, err := env.Users.Create(ctx, user.NewUser{Name: "New", Email: "new@test.test", Role: user.RoleIntern, SupervisorID: c.Supervisor.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, intern.ID)
	assert.True(t, intern.IsActive)
	assert.Equal(t, c.Supervisor.ID, intern.SupervisorID)

	_, err = env.Users.Create(ctx, user.NewUser{Name: "Bad", Email: "bad@test.test", Role: user.RoleIntern, SupervisorID: c.Intern.ID})
	assert.True(t, core.IsValidationError(err))

	_, err = env.Users.Create(ctx, user.NewUser{Name: "Sup", Email: "sup@test.test", Role: user.RoleSupervisor, SupervisorID: c.Supervisor.ID})
	assert.True(t, core.IsValidationError(err))
}

func TestService_AssignSupervisor(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c := testutil.NewCast(t, env.UserRepo)
	events, cancel := env.Broker.Subscribe(10)
	defer cancel()

	assert.Equal(t, user.InternshipPending, c.Outsider.InternshipStatus)
	usr, err := env.Users.AssignSupervisor(ctx, c.Outsider, c.OtherSupervisor.ID)
	require.NoError(t, err)
	assert.Equal(t, c.OtherSupervisor.ID, usr.SupervisorID)
	assert.Equal(t, user.InternshipOngoing, usr.InternshipStatus)

	ev := <-events
	assert.Equal(t, core.TopicUsers, ev.Topic)
	assert.Equal(t, c.Outsider.ID, ev.ID)

	_, err = env.Users.AssignSupervisor(ctx, c.Supervisor, c.OtherSupervisor.ID)
	assert.True(t, core.IsValidationError(err))
	_, err = env.Users.AssignSupervisor(ctx, c.Outsider, c.Coordinator.ID)
	assert.True(t, core.IsValidationError(err))

	usr, err = env.Users.AssignSupervisor(ctx, usr, "")
	require.NoError(t, err)
	assert.Empty(t, usr.SupervisorID)
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c := testutil.NewCast(t, env.UserRepo)

	dept, hours, active := " HR ", 300.0, false
	uu := user.UpdateUser{Name: "Juan D.", Department: &dept, RequiredHours: &hours, IsActive: &active}
	require.NoError(t, uu.Validate(ctx, env.Validate, env.Translator, c.Intern, env.Users))

	usr, err := env.Users.Update(ctx, c.Intern, uu)
	require.NoError(t, err)
	assert.Equal(t, "Juan D.", usr.Name)
	assert.Equal(t, "HR", usr.Department)
	assert.Equal(t, 300.0, usr.RequiredHours)
	assert.False(t, usr.IsActive)
	assert.Equal(t, c.Intern.Email, usr.Email)

	uu = user.UpdateUser{Email: c.Supervisor.Email}
	assert.True(t, core.IsValidationError(uu.Validate(ctx, env.Validate, env.Translator, c.Intern, env.Users)))

	// promoting an intern drops their supervisor
	usr, err = env.Users.Update(ctx, usr, user.UpdateUser{Role: user.RoleSupervisor})
	require.NoError(t, err)
	assert.Empty(t, usr.SupervisorID)
}

func TestService_Finalize(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c := testutil.NewCast(t, env.UserRepo)

	usr, err := env.Users.Finalize(ctx, c.Intern, 91.456)
	require.NoError(t, err)
	require.NotNil(t, usr.OfficialFinalGrade)
	assert.Equal(t, 91.46, *usr.OfficialFinalGrade)
	assert.Equal(t, user.InternshipCompleted, usr.InternshipStatus)

	_, err = env.Users.Finalize(ctx, c.Supervisor, 90)
	assert.True(t, core.IsValidationError(err))
}

func TestService_Roster(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	c := testutil.NewCast(t, env.UserRepo)

	names := func(users []user.User) []string {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		viewer user.User
		want   []string
	}{
		{name: "admin", viewer: c.Admin, want: []string{"Hector Reyes", "Juan Dela Cruz", "Maria Santos"}},
		{name: "coordinator", viewer: c.Coordinator, want: []string{"Juan Dela Cruz", "Maria Santos"}},
		{name: "supervisor", viewer: c.Supervisor, want: []string{"Juan Dela Cruz"}},
		{name: "intern", viewer: c.OtherIntern, want: []string{"Maria Santos"}},
		{name: "coordinator without department", viewer: user.User{ID: "x", Role: user.RoleCoordinator}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster, err := env.Users.Roster(ctx, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(roster))
		})
	}
}

func TestQueryFilter_Matches(t *testing.T) {
	active := true
	usr := user.User{ID: "1", Name: "Juan", Email: "juan@test.test", Role: user.RoleIntern, Department: "IT", IsActive: true}

	qf := &user.QueryFilter{Roles: []string{" intern, supervisor "}, Search: "JUAN", Department: "it", IsActive: &active}
	qf.Clean()
	assert.Equal(t, []string{"intern", "supervisor"}, qf.Roles)
	assert.True(t, qf.Matches(usr))

	assert.False(t, (&user.QueryFilter{IDs: []string{}}).Matches(usr))
	assert.False(t, (&user.QueryFilter{SupervisorID: "s1"}).Matches(usr))
	assert.True(t, (&user.QueryFilter{}).IsEmpty())
}
