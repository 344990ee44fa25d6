package evaluation

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("evaluation")
	ErrTemplateNotFound = core.NewNotFoundError("evaluation template")
	ErrReadOnly         = errors.New("this evaluation is already submitted")
	ErrNotSubmitted     = errors.New("only submitted evaluations can be reopened")
	ErrNoFinalGrade     = errors.New("no submitted Final evaluation to derive the grade from")
	ErrTemplateBuiltin  = errors.New("the built-in template cannot be modified")
)

type (
	Repository interface {
		CreateEvaluation(ctx context.Context, evl Evaluation) (Evaluation, error)
		GetEvaluationByID(ctx context.Context, id string) (Evaluation, error)
		// QueryEvaluations returns the matching evaluations ordered by creation time, then ID.
		QueryEvaluations(ctx context.Context, filter *QueryFilter) ([]Evaluation, error)
		UpdateEvaluation(ctx context.Context, evl Evaluation) (Evaluation, error)
		DeleteEvaluation(ctx context.Context, id string) error
	}

	TemplateRepository interface {
		CreateTemplate(ctx context.Context, tmpl Template) (Template, error)
		GetTemplateByID(ctx context.Context, id string) (Template, error)
		QueryTemplates(ctx context.Context, filter *TemplateFilter) ([]Template, error)
		UpdateTemplate(ctx context.Context, tmpl Template) (Template, error)
		DeleteTemplate(ctx context.Context, id string) error
	}

	// UserService is the part of the roster the workflow needs; *user.Service satisfies it.
	UserService interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		Roster(ctx context.Context, viewer user.User) ([]user.User, error)
		Finalize(ctx context.Context, intern user.User, grade float64) (user.User, error)
	}
)

type Service struct {
	repo      Repository
	templates TemplateRepository
	users     UserService
	scales    *scoring.Registry
	mailer    core.EmailService
	broker    *core.Broker
	logger    core.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	templates TemplateRepository,
	users UserService,
	scales *scoring.Registry,
	mailer core.EmailService,
	broker *core.Broker,
	logger core.Logger,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(templates, "templates"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(scales, "scales"),
		vala.IsNotNil(mailer, "mailer"),
		vala.IsNotNil(broker, "broker"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:      repo,
		templates: templates,
		users:     users,
		scales:    scales,
		mailer:    mailer,
		broker:    broker,
		logger:    logger,
		now:       core.Now,
	}
}

func (svc *Service) changed(topic, id string) {
	svc.broker.Publish(topic, id)
}

// Scales returns the registry of known rating scales.
func (svc *Service) Scales() *scoring.Registry {
	return svc.scales
}

// Templates

// EnsureBuiltinTemplates stores the built-in templates that are missing.
func (svc *Service) EnsureBuiltinTemplates(ctx context.Context) error {
	legacy := LegacyTemplate()
	if _, err := svc.templates.GetTemplateByID(ctx, legacy.ID); err == nil {
		return nil
	} else if errors.Cause(err) != ErrTemplateNotFound {
		return errors.Wrap(err, "finding built-in template")
	}
	legacy.CreatedAt = svc.now()
	legacy.UpdatedAt = legacy.CreatedAt
	if _, err := svc.templates.CreateTemplate(ctx, legacy); err != nil {
		return errors.Wrap(err, "creating built-in template")
	}
	return nil
}

func canEditTemplate(actor user.User, tmpl Template) bool {
	if actor.IsAdmin() {
		return true
	}
	if !actor.IsCoordinator() {
		return false
	}
	return tmpl.CreatedBy == actor.ID || (tmpl.Department != "" && core.CleanString(tmpl.Department, true) == core.CleanString(actor.Department, true))
}

// CreateTemplate stores a validated template. Coordinators author templates for their own department.
func (svc *Service) CreateTemplate(ctx context.Context, actor user.User, nt NewTemplate) (Template, error) {
	if !actor.IsManager() {
		return Template{}, core.NewPermissionError("only coordinators and admins can create templates")
	}
	tmpl := nt.Template()
	tmpl.ID = ""
	if actor.IsCoordinator() {
		tmpl.Department = actor.Department
	}
	tmpl.CreatedBy = actor.ID
	tmpl.CreatedAt = svc.now()
	tmpl.UpdatedAt = tmpl.CreatedAt

	tmpl, err := svc.templates.CreateTemplate(ctx, tmpl)
	if err != nil {
		return Template{}, errors.Wrap(err, "creating template")
	}
	svc.changed(core.TopicTemplates, tmpl.ID)
	return tmpl, nil
}

// ImportTemplate creates or replaces a template by ID; used to seed templates from files.
func (svc *Service) ImportTemplate(ctx context.Context, nt NewTemplate) (Template, bool, error) {
	tmpl := nt.Template()
	tmpl.UpdatedAt = svc.now()

	existing, err := svc.templates.GetTemplateByID(ctx, tmpl.ID)
	switch {
	case err == nil:
		tmpl.CreatedBy = existing.CreatedBy
		tmpl.CreatedAt = existing.CreatedAt
		tmpl, err = svc.templates.UpdateTemplate(ctx, tmpl)
		if err != nil {
			return Template{}, false, errors.Wrap(err, "updating template")
		}
		svc.changed(core.TopicTemplates, tmpl.ID)
		return tmpl, false, nil
	case errors.Cause(err) == ErrTemplateNotFound:
		tmpl.CreatedAt = tmpl.UpdatedAt
		tmpl, err = svc.templates.CreateTemplate(ctx, tmpl)
		if err != nil {
			return Template{}, false, errors.Wrap(err, "creating template")
		}
		svc.changed(core.TopicTemplates, tmpl.ID)
		return tmpl, true, nil
	default:
		return Template{}, false, errors.Wrap(err, "finding template by ID")
	}
}

// UpdateTemplate replaces a live template. Evaluations already sent keep their snapshot.
func (svc *Service) UpdateTemplate(ctx context.Context, actor user.User, id string, nt NewTemplate) (Template, error) {
	orig, err := svc.templates.GetTemplateByID(ctx, id)
	if err != nil {
		return Template{}, errors.Wrap(err, "finding template by ID")
	}
	if orig.ID == LegacyTemplateID {
		return Template{}, core.NewValidationError(ErrTemplateBuiltin)
	}
	if !canEditTemplate(actor, orig) {
		return Template{}, core.NewPermissionError("you cannot edit this template")
	}

	tmpl := nt.Template()
	tmpl.ID = orig.ID
	tmpl.CreatedBy = orig.CreatedBy
	tmpl.CreatedAt = orig.CreatedAt
	tmpl.UpdatedAt = svc.now()
	if actor.IsCoordinator() {
		tmpl.Department = orig.Department
	}

	tmpl, err = svc.templates.UpdateTemplate(ctx, tmpl)
	if err != nil {
		return Template{}, errors.Wrap(err, "updating template")
	}
	svc.changed(core.TopicTemplates, tmpl.ID)
	return tmpl, nil
}

func (svc *Service) GetTemplate(ctx context.Context, id string) (Template, error) {
	return svc.templates.GetTemplateByID(ctx, id)
}

// QueryTemplates lists templates; coordinators only see their department's and the global ones.
func (svc *Service) QueryTemplates(ctx context.Context, actor user.User, filter *TemplateFilter) ([]Template, error) {
	if filter == nil {
		filter = new(TemplateFilter)
	}
	if !actor.IsAdmin() {
		filter.Department = actor.Department
	}
	return svc.templates.QueryTemplates(ctx, filter)
}

func (svc *Service) DeleteTemplate(ctx context.Context, actor user.User, id string) error {
	tmpl, err := svc.templates.GetTemplateByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "finding template by ID")
	}
	if tmpl.ID == LegacyTemplateID {
		return core.NewValidationError(ErrTemplateBuiltin)
	}
	if !canEditTemplate(actor, tmpl) {
		return core.NewPermissionError("you cannot delete this template")
	}
	if err := svc.templates.DeleteTemplate(ctx, id); err != nil {
		return errors.Wrap(err, "deleting template")
	}
	svc.changed(core.TopicTemplates, id)
	return nil
}

// Evaluations

// Send snapshots a template into a new evaluation and asks the supervisor to fill it in.
func (svc *Service) Send(ctx context.Context, actor user.User, ne NewEvaluation) (Evaluation, error) {
	if !actor.IsManager() {
		return Evaluation{}, core.NewPermissionError("only coordinators and admins can send evaluations")
	}

	intern, err := svc.users.GetByID(ctx, ne.InternID)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "finding intern by ID")
	}
	if !intern.IsIntern() {
		return Evaluation{}, core.NewValidationError(errors.New("only interns can be evaluated"),
			core.FieldError{Field: "intern_id", Error: "not an intern"})
	}
	if !actor.CanManage(intern) {
		return Evaluation{}, core.NewPermissionError("this intern is not in your department")
	}

	supervisorID := ne.SupervisorID
	if supervisorID == "" {
		supervisorID = intern.SupervisorID
	}
	if supervisorID == "" {
		return Evaluation{}, core.NewValidationError(errors.New("this intern has no supervisor yet"),
			core.FieldError{Field: "supervisor_id", Error: "this field is required"})
	}
	supervisor, err := svc.users.GetByID(ctx, supervisorID)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return Evaluation{}, errors.Wrap(err, "finding supervisor by ID")
	}
	if err != nil || !supervisor.IsSupervisor() || !supervisor.IsActive {
		return Evaluation{}, core.NewValidationError(user.ErrInvalidSupervisor,
			core.FieldError{Field: "supervisor_id", Error: user.ErrInvalidSupervisor.Error()})
	}

	tmpl, err := svc.templates.GetTemplateByID(ctx, ne.TemplateID)
	if err != nil {
		if errors.Cause(err) == ErrTemplateNotFound {
			return Evaluation{}, core.NewValidationError(err, core.FieldError{Field: "template_id", Error: err.Error()})
		}
		return Evaluation{}, errors.Wrap(err, "finding template by ID")
	}
	scale, err := svc.scales.Get(tmpl.ScaleID)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "resolving template scale")
	}

	now := svc.now()
	evl := NewSession(tmpl.Clone(), scale).Apply(Evaluation{
		InternID:      intern.ID,
		SupervisorID:  supervisor.ID,
		CreatedBy:     actor.ID,
		Status:        StatusPendingSupervisor,
		Type:          ne.Type,
		PeriodCovered: ne.PeriodCovered,
		Template:      tmpl.Clone(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})

	evl, err = svc.repo.CreateEvaluation(ctx, evl)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "creating evaluation")
	}
	svc.changed(core.TopicEvaluations, evl.ID)

	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: supervisor.Name, Address: supervisor.Email}},
		Subject:      "Evaluation request: " + intern.Name,
		TemplateName: "evaluation_requested",
		TemplateData: requestedMailData{
			SupervisorName: supervisor.Name,
			InternName:     intern.Name,
			EvaluationType: string(evl.Type),
			TemplateTitle:  tmpl.Title,
			EvaluationID:   evl.ID,
		},
	})
	return evl, nil
}

// canView reports whether actor may read evl. Interns only see their submitted evaluations.
func (svc *Service) canView(ctx context.Context, actor user.User, evl Evaluation) (bool, error) {
	switch {
	case actor.IsAdmin():
		return true, nil
	case actor.IsSupervisor():
		return evl.SupervisorID == actor.ID, nil
	case actor.IsIntern():
		return evl.InternID == actor.ID && evl.Status.IsTerminal(), nil
	case actor.IsCoordinator():
		intern, err := svc.users.GetByID(ctx, evl.InternID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return false, nil
			}
			return false, errors.Wrap(err, "finding intern by ID")
		}
		return actor.CanView(intern), nil
	}
	return false, nil
}

// Get returns an evaluation if actor may see it; otherwise it is reported as not found.
func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Evaluation, error) {
	evl, err := svc.repo.GetEvaluationByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	ok, err := svc.canView(ctx, actor, evl)
	if err != nil {
		return Evaluation{}, err
	}
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return evl, nil
}

// Query lists the evaluations visible to actor that match the filter.
func (svc *Service) Query(ctx context.Context, actor user.User, filter *QueryFilter) ([]Evaluation, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()

	switch {
	case actor.IsAdmin():
	case actor.IsSupervisor():
		filter.SupervisorID = actor.ID
	case actor.IsIntern():
		filter.InternIDs = []string{actor.ID}
		filter.Statuses = TerminalStatuses()
	case actor.IsCoordinator():
		roster, err := svc.users.Roster(ctx, actor)
		if err != nil {
			return nil, errors.Wrap(err, "loading roster")
		}
		filter.InternIDs = intersectIDs(filter.InternIDs, roster)
	default:
		return []Evaluation{}, nil
	}
	return svc.repo.QueryEvaluations(ctx, filter)
}

func intersectIDs(requested []string, roster []user.User) []string {
	ids := make([]string, 0, len(roster))
	for _, u := range roster {
		if requested == nil || containsString(requested, u.ID) {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func (svc *Service) loadForSupervisor(ctx context.Context, actor user.User, id string) (Evaluation, scoring.Scale, error) {
	evl, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Evaluation{}, scoring.Scale{}, err
	}
	if evl.SupervisorID != actor.ID {
		return Evaluation{}, scoring.Scale{}, core.NewPermissionError("only the assigned supervisor can fill in this evaluation")
	}
	if evl.Status.IsTerminal() {
		return Evaluation{}, scoring.Scale{}, core.NewValidationError(ErrReadOnly)
	}
	scale, err := svc.scales.Get(evl.Template.ScaleID)
	if err != nil {
		return Evaluation{}, scoring.Scale{}, errors.Wrap(err, "resolving evaluation scale")
	}
	return evl, scale, nil
}

func applyDraft(evl Evaluation, scale scoring.Scale, du DraftUpdate) (Evaluation, Session, Scores) {
	sess := evl.Session(scale).WithRatings(du.Ratings).WithEssays(du.Essays)
	if du.SupervisorName != nil {
		sess = sess.WithSignature(*du.SupervisorName)
	}
	if du.PeriodCovered != nil {
		evl.PeriodCovered = core.CleanString(*du.PeriodCovered)
	}
	return sess.Apply(evl), sess, sess.Score()
}

func (svc *Service) logInvalid(evl Evaluation, scores Scores) {
	if len(scores.Invalid) > 0 {
		svc.logger.Warn("unresolvable ratings ignored", evl, map[string]interface{}{
			"scale":   evl.Template.ScaleID,
			"ratings": scores.Invalid,
		})
	}
}

// SaveDraft merges content into an evaluation, recomputes its scores and moves it to draft.
func (svc *Service) SaveDraft(ctx context.Context, actor user.User, id string, du DraftUpdate) (Evaluation, error) {
	evl, scale, err := svc.loadForSupervisor(ctx, actor, id)
	if err != nil {
		return Evaluation{}, err
	}

	evl, _, scores := applyDraft(evl, scale, du)
	svc.logInvalid(evl, scores)
	evl.Status = StatusDraft
	evl.UpdatedAt = svc.now()

	evl, err = svc.repo.UpdateEvaluation(ctx, evl)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "saving draft")
	}
	svc.changed(core.TopicEvaluations, evl.ID)
	return evl, nil
}

// Submit applies the optional last changes and submits the evaluation.
// An incomplete evaluation is saved as a draft and a validation error naming
// the first incomplete part is returned.
func (svc *Service) Submit(ctx context.Context, actor user.User, id string, du DraftUpdate) (Evaluation, error) {
	evl, scale, err := svc.loadForSupervisor(ctx, actor, id)
	if err != nil {
		return Evaluation{}, err
	}

	evl, sess, scores := applyDraft(evl, scale, du)
	svc.logInvalid(evl, scores)
	now := svc.now()
	evl.UpdatedAt = now

	if incomplete := sess.CheckComplete(); incomplete != nil {
		evl.Status = StatusDraft
		if _, err := svc.repo.UpdateEvaluation(ctx, evl); err != nil {
			return Evaluation{}, errors.Wrap(err, "saving draft")
		}
		svc.changed(core.TopicEvaluations, evl.ID)
		return Evaluation{}, incomplete
	}

	evl.Status = StatusSubmitted
	evl.SubmittedAt = &now
	evl, err = svc.repo.UpdateEvaluation(ctx, evl)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "submitting evaluation")
	}
	svc.changed(core.TopicEvaluations, evl.ID)
	svc.notifySubmitted(ctx, evl)
	return evl, nil
}

func (svc *Service) notifySubmitted(ctx context.Context, evl Evaluation) {
	intern, err := svc.users.GetByID(ctx, evl.InternID)
	if err != nil {
		svc.logger.Error("loading intern for submission email", errors.Wrap(err, "finding intern by ID"), evl)
		return
	}
	recipients := []user.User{intern}
	if creator, err := svc.users.GetByID(ctx, evl.CreatedBy); err == nil && creator.ID != intern.ID {
		recipients = append(recipients, creator)
	}

	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, r := range recipients {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: r.Name, Address: r.Email}},
			Subject:      "Evaluation submitted: " + intern.Name,
			TemplateName: "evaluation_submitted",
			TemplateData: submittedMailData{
				RecipientName:  r.Name,
				SupervisorName: evl.SupervisorName,
				InternName:     intern.Name,
				EvaluationType: string(evl.Type),
				OverallScore:   evl.OverallScore,
				MaxScore:       evl.MaxScore,
				EvaluationID:   evl.ID,
			},
		})
	}
	svc.mailer.SendMessages(msgs...)
}

// Reopen moves a submitted evaluation back to draft so its supervisor can edit it again.
func (svc *Service) Reopen(ctx context.Context, actor user.User, id string) (Evaluation, error) {
	if !actor.IsManager() {
		return Evaluation{}, core.NewPermissionError("only coordinators and admins can reopen evaluations")
	}
	evl, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Evaluation{}, err
	}
	if !evl.Status.IsTerminal() {
		return Evaluation{}, core.NewValidationError(ErrNotSubmitted)
	}

	evl.Status = StatusDraft
	evl.SubmittedAt = nil
	evl.UpdatedAt = svc.now()
	evl, err = svc.repo.UpdateEvaluation(ctx, evl)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "reopening evaluation")
	}
	svc.changed(core.TopicEvaluations, evl.ID)
	return evl, nil
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsManager() {
		return core.NewPermissionError("only coordinators and admins can delete evaluations")
	}
	if _, err := svc.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := svc.repo.DeleteEvaluation(ctx, id); err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	svc.changed(core.TopicEvaluations, id)
	return nil
}

// PreviewRequest scores unsaved content against a stored template.
type PreviewRequest struct {
	TemplateID     string                       `json:"template_id" validate:"required"`
	Ratings        map[string]map[string]string `json:"ratings"`
	Essays         map[string]string            `json:"essays"`
	SupervisorName string                       `json:"supervisor_name"`
}

type Preview struct {
	Scores
	Complete   bool   `json:"complete"`
	Incomplete string `json:"incomplete,omitempty"`
}

// Preview scores a session without storing anything.
func (svc *Service) Preview(ctx context.Context, req PreviewRequest) (Preview, error) {
	tmpl, err := svc.templates.GetTemplateByID(ctx, req.TemplateID)
	if err != nil {
		return Preview{}, errors.Wrap(err, "finding template by ID")
	}
	scale, err := svc.scales.Get(tmpl.ScaleID)
	if err != nil {
		return Preview{}, errors.Wrap(err, "resolving template scale")
	}
	sess := NewSession(tmpl, scale).
		WithRatings(req.Ratings).
		WithEssays(req.Essays).
		WithSignature(req.SupervisorName)

	p := Preview{Scores: sess.Score(), Complete: true}
	if err := sess.CheckComplete(); err != nil {
		p.Complete = false
		p.Incomplete = err.Error()
	}
	return p, nil
}

// TemplateDrift diffs the snapshot of an evaluation against its live template.
func (svc *Service) TemplateDrift(ctx context.Context, actor user.User, id string) (Drift, error) {
	evl, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Drift{}, err
	}
	live, err := svc.templates.GetTemplateByID(ctx, evl.Template.ID)
	if err != nil {
		return Drift{}, errors.Wrap(err, "finding template by ID")
	}
	return TemplateDrift(evl.Template, live)
}

// FinalGrade derives a percentage grade from the latest submitted Final evaluation.
func FinalGrade(evals []Evaluation) (float64, bool) {
	var latest *Evaluation
	for i := range evals {
		e := &evals[i]
		if e.Type != TypeFinal || !e.Status.IsTerminal() || !e.IsEvaluated() || e.MaxScore <= 0 {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) ||
			(e.CreatedAt.Equal(latest.CreatedAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	if latest == nil {
		return 0, false
	}
	return core.Round(latest.OverallScore/latest.MaxScore*100, 2), true
}

// Finalize records the official final grade of an intern and completes their internship.
func (svc *Service) Finalize(ctx context.Context, actor user.User, internID string, fg user.FinalGrade) (user.User, error) {
	if !actor.IsManager() {
		return user.User{}, core.NewPermissionError("only coordinators and admins can finalize internships")
	}
	intern, err := svc.users.GetByID(ctx, internID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding intern by ID")
	}
	if !actor.CanManage(intern) {
		return user.User{}, core.NewPermissionError("this intern is not in your department")
	}

	var grade float64
	if fg.Grade != nil {
		grade = *fg.Grade
	} else {
		evals, err := svc.repo.QueryEvaluations(ctx, &QueryFilter{
			InternIDs: []string{intern.ID},
			Statuses:  TerminalStatuses(),
			Types:     []Type{TypeFinal},
		})
		if err != nil {
			return user.User{}, errors.Wrap(err, "querying final evaluations")
		}
		var ok bool
		if grade, ok = FinalGrade(evals); !ok {
			return user.User{}, core.NewValidationError(ErrNoFinalGrade, core.FieldError{Field: "grade", Error: ErrNoFinalGrade.Error()})
		}
	}
	return svc.users.Finalize(ctx, intern, grade)
}

// Submitted returns the submitted evaluations of the given interns, oldest first.
func (svc *Service) Submitted(ctx context.Context, internIDs []string) ([]Evaluation, error) {
	evals, err := svc.repo.QueryEvaluations(ctx, &QueryFilter{InternIDs: internIDs, Statuses: TerminalStatuses()})
	if err != nil {
		return nil, errors.Wrap(err, "querying submitted evaluations")
	}
	sort.SliceStable(evals, func(i, j int) bool {
		if !evals[i].CreatedAt.Equal(evals[j].CreatedAt) {
			return evals[i].CreatedAt.Before(evals[j].CreatedAt)
		}
		return evals[i].ID < evals[j].ID
	})
	return evals, nil
}

type requestedMailData struct {
	SupervisorName string
	InternName     string
	EvaluationType string
	TemplateTitle  string
	EvaluationID   string
}

type submittedMailData struct {
	RecipientName  string
	SupervisorName string
	InternName     string
	EvaluationType string
	OverallScore   float64
	MaxScore       float64
	EvaluationID   string
}
