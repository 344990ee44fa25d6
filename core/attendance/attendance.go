package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

const dateLayout = "2006-01-02"

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("attendance record")
	ErrAlreadyClockedIn = errors.New("you are already clocked in")
	ErrNotClockedIn     = errors.New("you are not clocked in")
	ErrInternsOnly      = errors.New("only interns keep a daily time record")
)

// Record is one day-time-record entry: a clock in and, once closed, a clock out.
type Record struct {
	ID        string     `json:"id"`
	InternID  string     `json:"intern_id"`
	WorkDate  string     `json:"work_date"` // YYYY-MM-DD of the clock in, UTC
	TimeIn    time.Time  `json:"time_in"`
	TimeOut   *time.Time `json:"time_out,omitempty"`
	Hours     float64    `json:"hours"`
	Remarks   string     `json:"remarks,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r Record) IsOpen() bool {
	return r.TimeOut == nil
}

type ClockRequest struct {
	Remarks string `json:"remarks" validate:"max=500"`
}

// QueryFilter applies AND operation on available fields. Dates are inclusive.
// A non-nil empty InternIDs matches nothing.
type QueryFilter struct {
	InternIDs []string `query:"intern_id"`
	From      string   `query:"from" validate:"omitempty,date"`
	To        string   `query:"to" validate:"omitempty,date"`
}

func (qf *QueryFilter) Matches(r Record) bool {
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
	if qf.From != "" && r.WorkDate < qf.From {
		return false
	}
	if qf.To != "" && r.WorkDate > qf.To {
		return false
	}
	return true
}

// Summary is the progress of an intern towards their required hours.
type Summary struct {
	InternID       string  `json:"intern_id"`
	TotalHours     float64 `json:"total_hours"`
	RequiredHours  float64 `json:"required_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	Progress       float64 `json:"progress"` // percent, capped at 100
	DaysPresent    int     `json:"days_present"`
	ClockedIn      bool    `json:"clocked_in"`
}

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		// GetOpenRecord returns ErrNotFound when the intern is not clocked in.
		GetOpenRecord(ctx context.Context, internID string) (Record, error)
		// QueryRecords returns the matching records ordered by clock in time.
		QueryRecords(ctx context.Context, filter *QueryFilter) ([]Record, error)
	}

	// UserService is satisfied by *user.Service.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		Roster(ctx context.Context, viewer user.User) ([]user.User, error)
	}
)

// ComputeHours returns the hours between in and out, rounded to 2 decimals and capped at max (when > 0).
func ComputeHours(in, out time.Time, max float64) float64 {
	h := out.Sub(in).Hours()
	if h < 0 {
		return 0
	}
	if max > 0 && h > max {
		h = max
	}
	return core.Round(h, 2)
}

// Summarize totals the closed records of an intern.
func Summarize(intern user.User, records []Record) Summary {
	s := Summary{InternID: intern.ID, RequiredHours: intern.RequiredHours}
	days := make(map[string]bool)
	var total float64
	for _, r := range records {
		if r.InternID != intern.ID {
			continue
		}
		if r.IsOpen() {
			s.ClockedIn = true
			continue
		}
		total += r.Hours
		days[r.WorkDate] = true
	}
	s.TotalHours = core.Round(total, 2)
	s.DaysPresent = len(days)
	if s.RequiredHours > 0 {
		s.RemainingHours = core.Round(s.RequiredHours-s.TotalHours, 2)
		if s.RemainingHours < 0 {
			s.RemainingHours = 0
		}
		s.Progress = core.Round(s.TotalHours/s.RequiredHours*100, 2)
		if s.Progress > 100 {
			s.Progress = 100
		}
	}
	return s
}

type Service struct {
	repo          Repository
	users         UserService
	maxDailyHours float64
	now           func() time.Time
}

func NewService(repo Repository, users UserService, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Service{repo: repo, users: users, maxDailyHours: conf.Attendance.MaxDailyHours, now: core.Now}
}

func (svc *Service) ClockIn(ctx context.Context, actor user.User, req ClockRequest) (Record, error) {
	if !actor.IsIntern() {
		return Record{}, core.NewPermissionError(ErrInternsOnly.Error())
	}
	if _, err := svc.repo.GetOpenRecord(ctx, actor.ID); err == nil {
		return Record{}, core.NewValidationError(ErrAlreadyClockedIn)
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, errors.Wrap(err, "finding open record")
	}

	now := svc.now()
	rec, err := svc.repo.CreateRecord(ctx, Record{
		InternID:  actor.ID,
		WorkDate:  now.Format(dateLayout),
		TimeIn:    now,
		Remarks:   core.CleanString(req.Remarks),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "creating record")
	}
	return rec, nil
}

func (svc *Service) ClockOut(ctx context.Context, actor user.User, req ClockRequest) (Record, error) {
	if !actor.IsIntern() {
		return Record{}, core.NewPermissionError(ErrInternsOnly.Error())
	}
	rec, err := svc.repo.GetOpenRecord(ctx, actor.ID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{}, core.NewValidationError(ErrNotClockedIn)
		}
		return Record{}, errors.Wrap(err, "finding open record")
	}

	now := svc.now()
	rec.TimeOut = &now
	rec.Hours = ComputeHours(rec.TimeIn, now, svc.maxDailyHours)
	if remarks := core.CleanString(req.Remarks); remarks != "" {
		rec.Remarks = remarks
	}
	rec.UpdatedAt = now
	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "closing record")
	}
	return rec, nil
}

// Query lists the records of the interns visible to actor.
func (svc *Service) Query(ctx context.Context, actor user.User, filter *QueryFilter) ([]Record, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	roster, err := svc.users.Roster(ctx, actor)
	if err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}
	visible := make([]string, 0, len(roster))
	for _, u := range roster {
		if filter.InternIDs == nil || contains(filter.InternIDs, u.ID) {
			visible = append(visible, u.ID)
		}
	}
	filter.InternIDs = visible

	records, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].TimeIn.Before(records[j].TimeIn) })
	return records, nil
}

// Summary returns the hours rendered by an intern against their required hours.
func (svc *Service) Summary(ctx context.Context, actor user.User, internID string) (Summary, error) {
	intern, err := svc.users.GetByID(ctx, internID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "finding intern by ID")
	}
	if !intern.IsIntern() || !actor.CanView(intern) {
		return Summary{}, user.ErrNotFound
	}
	records, err := svc.repo.QueryRecords(ctx, &QueryFilter{InternIDs: []string{intern.ID}})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying records")
	}
	return Summarize(intern, records), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
