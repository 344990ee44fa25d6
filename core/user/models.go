package user

import (
	"context"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Evenson-7/OJTManagement-sub000/core"
)

// Roles
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleSupervisor  = "supervisor"
	RoleIntern      = "intern"
)

// Internship statuses
const (
	InternshipPending   = "pending"
	InternshipOngoing   = "ongoing"
	InternshipCompleted = "completed"
)

var (
	AllRoles              = []string{RoleAdmin, RoleCoordinator, RoleSupervisor, RoleIntern}
	AllInternshipStatuses = []string{InternshipPending, InternshipOngoing, InternshipCompleted}

	rolePriorities = map[string]int{
		RoleAdmin:       30,
		RoleCoordinator: 20,
		RoleSupervisor:  10,
		RoleIntern:      1,
	}

	Roles = []Role{
		{Name: "Intern", Value: RoleIntern},
		{Name: "Supervisor", Value: RoleSupervisor},
		{Name: "Coordinator", Value: RoleCoordinator},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	Department         string    `json:"department"`
	SupervisorID       string    `json:"supervisor_id,omitempty"`
	RequiredHours      float64   `json:"required_hours,omitempty"`
	InternshipStatus   string    `json:"internship_status,omitempty"`
	OfficialFinalGrade *float64  `json:"official_final_grade,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (u User) IsAdmin() bool       { return u.Role == RoleAdmin }
func (u User) IsCoordinator() bool { return u.Role == RoleCoordinator }
func (u User) IsSupervisor() bool  { return u.Role == RoleSupervisor }
func (u User) IsIntern() bool      { return u.Role == RoleIntern }

// IsManager reports whether the user administers evaluations (admins and coordinators).
func (u User) IsManager() bool { return u.IsAdmin() || u.IsCoordinator() }

// SameDepartment compares departments trimmed and case-insensitively.
func (u User) SameDepartment(other User) bool {
	d := core.CleanString(u.Department, true)
	return d != "" && d == core.CleanString(other.Department, true)
}

// CanView reports whether u may see subject's records (evaluations, attendance, reports).
// Admins see everyone, coordinators their department, supervisors their assignees, others themselves.
func (u User) CanView(subject User) bool {
	switch {
	case u.ID != "" && u.ID == subject.ID:
		return true
	case u.IsAdmin():
		return true
	case u.IsCoordinator():
		return u.SameDepartment(subject)
	case u.IsSupervisor():
		return subject.SupervisorID != "" && subject.SupervisorID == u.ID
	}
	return false
}

// CanManage reports whether u may administer subject (assign, finalize, edit profile).
func (u User) CanManage(subject User) bool {
	if u.IsAdmin() {
		return true
	}
	return u.IsCoordinator() && u.ID != subject.ID && !subject.IsAdmin() && u.SameDepartment(subject)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name             string  `json:"name" validate:"required,notblank"`
	Email            string  `json:"email" validate:"required,email"`
	Role             string  `json:"role" validate:"required,role"`
	Department       string  `json:"department"`
	SupervisorID     string  `json:"supervisor_id"`
	RequiredHours    float64 `json:"required_hours" validate:"gte=0"`
	InternshipStatus string  `json:"internship_status" validate:"omitempty,internshipstatus"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.SupervisorID = core.CleanString(nu.SupervisorID)
	nu.InternshipStatus = core.CleanString(nu.InternshipStatus, true /* lower */)
	if nu.Role == RoleIntern && nu.InternshipStatus == "" {
		nu.InternshipStatus = InternshipPending
	}
}

// UniquenessChecker is satisfied by *Service.
type UniquenessChecker interface {
	CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, translator ut.Translator, svc UniquenessChecker) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields are left unchanged.
type UpdateUser struct {
	Name             string   `json:"name"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Role             string   `json:"role" validate:"omitempty,role"`
	Department       *string  `json:"department"`
	RequiredHours    *float64 `json:"required_hours" validate:"omitempty,gte=0"`
	InternshipStatus string   `json:"internship_status" validate:"omitempty,internshipstatus"`
	IsActive         *bool    `json:"is_active"`
}

func (uu *UpdateUser) Validate(ctx context.Context, validate *validator.Validate, translator ut.Translator, origUsr User, svc UniquenessChecker) error {
	uu.Name = core.CleanString(uu.Name)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Role = core.CleanString(uu.Role, true /* lower */)
	uu.InternshipStatus = core.CleanString(uu.InternshipStatus, true /* lower */)
	if uu.Department != nil {
		d := core.CleanString(*uu.Department)
		uu.Department = &d
	}

	if err := validate.Struct(uu); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	if uu.Email != "" && uu.Email != origUsr.Email {
		return svc.CheckUniqueness(ctx, uu.Email, origUsr)
	}
	return nil
}

// Apply returns a copy of usr with the update applied.
func (uu UpdateUser) Apply(usr User) User {
	if uu.Name != "" {
		usr.Name = uu.Name
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Department != nil {
		usr.Department = *uu.Department
	}
	if uu.RequiredHours != nil {
		usr.RequiredHours = *uu.RequiredHours
	}
	if uu.InternshipStatus != "" {
		usr.InternshipStatus = uu.InternshipStatus
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	return usr
}

type QueryFilter struct {
	Search           string   `query:"search"`
	Roles            []string `query:"role"`
	Department       string   `query:"department"`
	SupervisorID     string   `query:"supervisor_id"`
	InternshipStatus string   `query:"internship_status"`
	IsActive         *bool    `query:"is_active"`
	IDs              []string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Department == "" && qf.SupervisorID == "" &&
		qf.InternshipStatus == "" && qf.IsActive == nil && qf.IDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
	qf.SupervisorID = core.CleanString(qf.SupervisorID)
	qf.InternshipStatus = core.CleanString(qf.InternshipStatus, true)
	roles := make([]string, 0, len(qf.Roles))
	for _, r := range qf.Roles {
		for _, part := range strings.Split(r, ",") {
			if part = core.CleanString(part, true); part != "" {
				roles = append(roles, part)
			}
		}
	}
	if len(roles) > 0 {
		qf.Roles = roles
	} else {
		qf.Roles = nil
	}
}

// Matches applies the filter to an in-memory user.
// Search does a case-insensitive match on one of User.Name or User.Email.
func (qf *QueryFilter) Matches(usr User) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(usr.Name), s) && !strings.Contains(strings.ToLower(usr.Email), s) {
			return false
		}
	}
	if len(qf.Roles) > 0 && !contains(qf.Roles, usr.Role) {
		return false
	}
	if qf.Department != "" && !strings.EqualFold(qf.Department, usr.Department) {
		return false
	}
	if qf.SupervisorID != "" && qf.SupervisorID != usr.SupervisorID {
		return false
	}
	if qf.InternshipStatus != "" && qf.InternshipStatus != usr.InternshipStatus {
		return false
	}
	if qf.IsActive != nil && *qf.IsActive != usr.IsActive {
		return false
	}
	if qf.IDs != nil && !contains(qf.IDs, usr.ID) {
		return false
	}
	return true
}

// OrderingFields are the fields users can be ordered by.
var OrderingFields = []string{"name", "email", "role", "department", "created_at"}

// FinalGrade is the payload to finalize an internship.
// Grade is a percentage; when omitted it is derived from the latest submitted Final evaluation.
type FinalGrade struct {
	Grade *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
