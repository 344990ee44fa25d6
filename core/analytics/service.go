package analytics

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

// Update types
const (
	UpdateAnalytics = "analytics"
	UpdateError     = "error"
)

type (
	// RosterProvider returns the interns a viewer may see; *user.Service satisfies it.
	RosterProvider interface {
		Roster(ctx context.Context, viewer user.User) ([]user.User, error)
	}

	// EvaluationSource returns submitted evaluations; *evaluation.Service satisfies it.
	EvaluationSource interface {
		Submitted(ctx context.Context, internIDs []string) ([]evaluation.Evaluation, error)
	}
)

// Update is one message of a live analytics stream.
// Error updates carry the last good analytics, if any.
type Update struct {
	Type      string           `json:"type"`
	RequestID uint64           `json:"request_id"`
	Analytics *CohortAnalytics `json:"analytics,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type Service struct {
	users  RosterProvider
	evals  EvaluationSource
	broker *core.Broker
	th     Thresholds
	logger core.Logger
}

func NewService(users RosterProvider, evals EvaluationSource, broker *core.Broker, th Thresholds, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(evals, "evals"),
		vala.IsNotNil(broker, "broker"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	if err := th.Validate(); err != nil {
		panic(err)
	}

	return &Service{users: users, evals: evals, broker: broker, th: th, logger: logger}
}

func (svc *Service) Thresholds() Thresholds {
	return svc.th
}

// Cohort computes the analytics of the interns visible to viewer.
func (svc *Service) Cohort(ctx context.Context, viewer user.User) (CohortAnalytics, error) {
	roster, err := svc.users.Roster(ctx, viewer)
	if err != nil {
		return CohortAnalytics{}, errors.Wrap(err, "loading roster")
	}
	return svc.compute(ctx, roster)
}

func (svc *Service) compute(ctx context.Context, roster []user.User) (CohortAnalytics, error) {
	ids := make([]string, 0, len(roster))
	for _, u := range roster {
		ids = append(ids, u.ID)
	}
	evals, err := svc.evals.Submitted(ctx, ids)
	if err != nil {
		return CohortAnalytics{}, errors.Wrap(err, "loading submitted evaluations")
	}

	res := ComputeCohort(evals, roster, svc.th)
	if res.Skipped > 0 {
		svc.logger.Warn("analytics skipped unreadable evaluations", map[string]interface{}{"skipped": res.Skipped})
	}
	return res, nil
}

// Subject returns the leaderboard row of one intern visible to viewer,
// ranked within the viewer's cohort.
func (svc *Service) Subject(ctx context.Context, viewer user.User, internID string) (SubjectStats, error) {
	roster, err := svc.users.Roster(ctx, viewer)
	if err != nil {
		return SubjectStats{}, errors.Wrap(err, "loading roster")
	}
	visible := false
	for _, u := range roster {
		if u.ID == internID {
			visible = true
			break
		}
	}
	if !visible {
		return SubjectStats{}, user.ErrNotFound
	}

	res, err := svc.compute(ctx, roster)
	if err != nil {
		return SubjectStats{}, err
	}
	for _, stats := range res.Leaderboard {
		if stats.InternID == internID {
			return stats, nil
		}
	}
	return SubjectStats{}, user.ErrNotFound
}

type computation struct {
	id  uint64
	res CohortAnalytics
	err error
}

// Watch streams the cohort analytics of viewer through send: once at start,
// then after every evaluation or roster change. Results of computations overtaken
// by a newer one are dropped. It returns when ctx is done or send fails.
func (svc *Service) Watch(ctx context.Context, viewer user.User, send func(Update) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := svc.broker.Subscribe(16)
	defer unsubscribe()

	tracker := NewTracker()
	results := make(chan computation)
	start := func() {
		id := tracker.Begin()
		go func() {
			res, err := svc.Cohort(ctx, viewer)
			select {
			case results <- computation{id: id, res: res, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	start()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Topic == core.TopicEvaluations || ev.Topic == core.TopicUsers {
				start()
			}
		case c := <-results:
			if c.err != nil {
				if !tracker.IsLatest(c.id) || ctx.Err() != nil {
					continue
				}
				svc.logger.Error(fmt.Sprintf("live analytics #%d", c.id), c.err, viewer)
				if err := send(Update{Type: UpdateError, RequestID: c.id, Error: "analytics are temporarily unavailable", Analytics: tracker.Last()}); err != nil {
					return errors.Wrap(err, "sending analytics error")
				}
				continue
			}
			if !tracker.Commit(c.id, c.res) {
				continue
			}
			res := c.res
			if err := send(Update{Type: UpdateAnalytics, RequestID: c.id, Analytics: &res}); err != nil {
				return errors.Wrap(err, "sending analytics")
			}
		}
	}
}
