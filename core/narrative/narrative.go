package narrative

import (
	"context"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

const dateLayout = "2006-01-02"

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusReturned  Status = "returned"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("narrative report")
	ErrAlreadySent     = errors.New("a report was already submitted for this week")
	ErrAlreadyReviewed = errors.New("this report was already reviewed")
	ErrFeedbackNeeded  = errors.New("feedback is required to return a report")
)

// Report is the weekly narrative report of an intern.
type Report struct {
	ID         string     `json:"id"`
	InternID   string     `json:"intern_id"`
	WeekOf     string     `json:"week_of"` // Monday of the week, YYYY-MM-DD
	Content    string     `json:"content"`
	Status     Status     `json:"status"`
	Feedback   string     `json:"feedback,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// NewReport contains information needed to submit a weekly report.
// A returned report of the same week is replaced by a new submission.
type NewReport struct {
	WeekOf  string `json:"week_of" validate:"required,date"`
	Content string `json:"content" validate:"required,notblank"`
}

func (nr *NewReport) Validate(validate *validator.Validate, translator ut.Translator) error {
	nr.WeekOf = core.CleanString(nr.WeekOf)
	nr.Content = core.CleanString(nr.Content)
	if err := validate.Struct(nr); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}

type Review struct {
	Status   Status `json:"status" validate:"required,oneof=approved returned"`
	Feedback string `json:"feedback"`
}

func (rv *Review) Validate(validate *validator.Validate, translator ut.Translator) error {
	rv.Status = Status(core.CleanString(string(rv.Status), true))
	rv.Feedback = core.CleanString(rv.Feedback)
	if err := validate.Struct(rv); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	if rv.Status == StatusReturned && rv.Feedback == "" {
		return core.NewValidationError(ErrFeedbackNeeded, core.FieldError{Field: "feedback", Error: "this field is required"})
	}
	return nil
}

// QueryFilter applies AND operation on available fields.
// A non-nil empty InternIDs matches nothing.
type QueryFilter struct {
	InternIDs []string `query:"intern_id"`
	Statuses  []Status `query:"status"`
	WeekOf    string   `query:"week_of"`
}

func (qf *QueryFilter) Matches(r Report) bool {
	if qf == nil {
		return true
	}
	if qf.InternIDs != nil {
		found := false
		for _, id := range qf.InternIDs {
			found = found || id == r.InternID
		}
		if !found {
			return false
		}
	}
	if len(qf.Statuses) > 0 {
		found := false
		for _, s := range qf.Statuses {
			found = found || s == r.Status
		}
		if !found {
			return false
		}
	}
	return qf.WeekOf == "" || qf.WeekOf == r.WeekOf
}

// WeekStart returns the Monday of the week containing date (YYYY-MM-DD).
func WeekStart(date string) (string, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", errors.Wrap(err, "parsing date")
	}
	offset := (int(d.Weekday()) + 6) % 7 // days since Monday
	return d.AddDate(0, 0, -offset).Format(dateLayout), nil
}

type (
	Repository interface {
		CreateReport(ctx context.Context, r Report) (Report, error)
		GetReportByID(ctx context.Context, id string) (Report, error)
		// QueryReports returns the matching reports, latest week first.
		QueryReports(ctx context.Context, filter *QueryFilter) ([]Report, error)
		UpdateReport(ctx context.Context, r Report) (Report, error)
	}

	// UserService is satisfied by *user.Service.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		Roster(ctx context.Context, viewer user.User) ([]user.User, error)
	}
)

type Service struct {
	repo   Repository
	users  UserService
	mailer core.EmailService
	now    func() time.Time
}

func NewService(repo Repository, users UserService, mailer core.EmailService) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(mailer, "mailer"),
	).CheckAndPanic()
	return &Service{repo: repo, users: users, mailer: mailer, now: core.Now}
}

// Submit stores the weekly report of an intern. There is one report per intern and week:
// a returned report is resubmitted in place, any other is rejected.
func (svc *Service) Submit(ctx context.Context, actor user.User, nr NewReport) (Report, error) {
	if !actor.IsIntern() {
		return Report{}, core.NewPermissionError("only interns submit narrative reports")
	}
	week, err := WeekStart(nr.WeekOf)
	if err != nil {
		return Report{}, core.NewValidationError(err, core.FieldError{Field: "week_of", Error: "invalid date"})
	}

	existing, err := svc.repo.QueryReports(ctx, &QueryFilter{InternIDs: []string{actor.ID}, WeekOf: week})
	if err != nil {
		return Report{}, errors.Wrap(err, "querying reports")
	}
	now := svc.now()
	if len(existing) > 0 {
		r := existing[0]
		if r.Status != StatusReturned {
			return Report{}, core.NewValidationError(ErrAlreadySent, core.FieldError{Field: "week_of", Error: ErrAlreadySent.Error()})
		}
		r.Content = nr.Content
		r.Status = StatusSubmitted
		r.UpdatedAt = now
		if r, err = svc.repo.UpdateReport(ctx, r); err != nil {
			return Report{}, errors.Wrap(err, "resubmitting report")
		}
		return r, nil
	}

	r, err := svc.repo.CreateReport(ctx, Report{
		InternID:  actor.ID,
		WeekOf:    week,
		Content:   nr.Content,
		Status:    StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Report{}, errors.Wrap(err, "creating report")
	}
	return r, nil
}

func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Report, error) {
	r, err := svc.repo.GetReportByID(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if actor.ID == r.InternID {
		return r, nil
	}
	intern, err := svc.users.GetByID(ctx, r.InternID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Report{}, ErrNotFound
		}
		return Report{}, errors.Wrap(err, "finding intern by ID")
	}
	if !actor.CanView(intern) {
		return Report{}, ErrNotFound
	}
	return r, nil
}

// Review approves or returns a submitted report. Only the intern's supervisor
// and the managers of the intern can review.
func (svc *Service) Review(ctx context.Context, actor user.User, id string, rv Review) (Report, error) {
	r, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Report{}, err
	}
	intern, err := svc.users.GetByID(ctx, r.InternID)
	if err != nil {
		return Report{}, errors.Wrap(err, "finding intern by ID")
	}
	isSupervisor := actor.IsSupervisor() && intern.SupervisorID == actor.ID
	if !isSupervisor && !actor.CanManage(intern) {
		return Report{}, core.NewPermissionError("you cannot review this report")
	}
	if r.Status != StatusSubmitted {
		return Report{}, core.NewValidationError(ErrAlreadyReviewed)
	}

	now := svc.now()
	r.Status = rv.Status
	r.Feedback = rv.Feedback
	r.ReviewedBy = actor.ID
	r.ReviewedAt = &now
	r.UpdatedAt = now
	if r, err = svc.repo.UpdateReport(ctx, r); err != nil {
		return Report{}, errors.Wrap(err, "reviewing report")
	}

	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: intern.Name, Address: intern.Email}},
		Subject:      "Your narrative report was " + string(r.Status),
		TemplateName: "narrative_reviewed",
		TemplateData: reviewedMailData{
			InternName: intern.Name,
			WeekOf:     r.WeekOf,
			Status:     string(r.Status),
			Feedback:   r.Feedback,
		},
	})
	return r, nil
}

// Query lists the reports of the interns visible to actor.
func (svc *Service) Query(ctx context.Context, actor user.User, filter *QueryFilter) ([]Report, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	if filter.WeekOf != "" {
		week, err := WeekStart(filter.WeekOf)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "week_of", Error: "invalid date"})
		}
		filter.WeekOf = week
	}
	roster, err := svc.users.Roster(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}
	ids := make([]string, 0, len(roster))
	for _, u := range roster {
		if filter.InternIDs == nil || contains(filter.InternIDs, u.ID) {
			ids = append(ids, u.ID)
		}
	}
	filter.InternIDs = ids
	return svc.repo.QueryReports(ctx, filter)
}

type reviewedMailData struct {
	InternName string
	WeekOf     string
	Status     string
	Feedback   string
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
