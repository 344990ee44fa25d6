package user

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("user")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrNotAnIntern       = errors.New("only interns can be assigned a supervisor")
	ErrInvalidSupervisor = errors.New("the supervisor must be an active supervisor")
)

type Repository interface {
	// CheckEmailUniqueness returns ErrEmailExists if another user (not in excludedUsers) has the email.
	CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
	CreateUser(ctx context.Context, usr User) (User, error)
	// QueryUsers applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
	QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, usr User) (User, error)
	DeleteUsersByID(ctx context.Context, ids ...string) error
}

type Service struct {
	repo   Repository
	broker *core.Broker
	now    func() time.Time
}

func NewService(repo Repository, broker *core.Broker) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(broker, "broker"),
	).CheckAndPanic()
	return &Service{repo: repo, broker: broker, now: core.Now}
}

func (svc *Service) changed(id string) {
	svc.broker.Publish(core.TopicUsers, id)
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := svc.now()
	usr := User{
		Name:             nu.Name,
		Email:            nu.Email,
		Role:             nu.Role,
		Department:       nu.Department,
		RequiredHours:    nu.RequiredHours,
		InternshipStatus: nu.InternshipStatus,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if nu.SupervisorID != "" {
		if !usr.IsIntern() {
			return User{}, core.NewValidationError(ErrNotAnIntern, core.FieldError{Field: "supervisor_id", Error: ErrNotAnIntern.Error()})
		}
		if err := svc.checkSupervisor(ctx, nu.SupervisorID); err != nil {
			return User{}, err
		}
		usr.SupervisorID = nu.SupervisorID
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.changed(usr.ID)
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update applies a validated UpdateUser to usr and stores the result.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr = uu.Apply(usr)
	usr.UpdatedAt = svc.now()
	if !usr.IsIntern() {
		usr.SupervisorID = ""
	}
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	svc.changed(usr.ID)
	return usr, nil
}

func (svc *Service) checkSupervisor(ctx context.Context, supervisorID string) error {
	sup, err := svc.repo.GetUserByID(ctx, supervisorID)
	if err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "finding supervisor by ID")
	}
	if err != nil || !sup.IsSupervisor() || !sup.IsActive {
		return core.NewValidationError(ErrInvalidSupervisor, core.FieldError{Field: "supervisor_id", Error: ErrInvalidSupervisor.Error()})
	}
	return nil
}

// AssignSupervisor sets (or clears, with an empty supervisorID) the supervisor of an intern.
func (svc *Service) AssignSupervisor(ctx context.Context, intern User, supervisorID string) (User, error) {
	if !intern.IsIntern() {
		return User{}, core.NewValidationError(ErrNotAnIntern)
	}
	supervisorID = core.CleanString(supervisorID)
	if supervisorID != "" {
		if err := svc.checkSupervisor(ctx, supervisorID); err != nil {
			return User{}, err
		}
	}

	intern.SupervisorID = supervisorID
	if supervisorID != "" && intern.InternshipStatus == InternshipPending {
		intern.InternshipStatus = InternshipOngoing
	}
	intern.UpdatedAt = svc.now()
	usr, err := svc.repo.UpdateUser(ctx, intern)
	if err != nil {
		return User{}, errors.Wrap(err, "assigning supervisor")
	}
	svc.changed(usr.ID)
	return usr, nil
}

// Finalize records the official final grade of an intern and completes their internship.
func (svc *Service) Finalize(ctx context.Context, intern User, grade float64) (User, error) {
	if !intern.IsIntern() {
		return User{}, core.NewValidationError(errors.New("only interns can be finalized"))
	}
	grade = core.Round(grade, 2)
	intern.OfficialFinalGrade = &grade
	intern.InternshipStatus = InternshipCompleted
	intern.UpdatedAt = svc.now()
	usr, err := svc.repo.UpdateUser(ctx, intern)
	if err != nil {
		return User{}, errors.Wrap(err, "finalizing internship")
	}
	svc.changed(usr.ID)
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if err := svc.repo.DeleteUsersByID(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	for _, id := range ids {
		svc.changed(id)
	}
	return nil
}

// Roster returns the interns visible to viewer, ordered by name:
// every intern for admins, the department's interns for coordinators,
// the assignees of a supervisor, and the intern themself.
func (svc *Service) Roster(ctx context.Context, viewer User) ([]User, error) {
	filter := &QueryFilter{Roles: []string{RoleIntern}}
	switch {
	case viewer.IsAdmin():
	case viewer.IsCoordinator():
		if viewer.Department == "" {
			return []User{}, nil
		}
		filter.Department = viewer.Department
	case viewer.IsSupervisor():
		filter.SupervisorID = viewer.ID
	case viewer.IsIntern():
		return []User{viewer}, nil
	default:
		return []User{}, nil
	}

	users, err := svc.repo.QueryUsers(ctx, filter, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}
