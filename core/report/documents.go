package report

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/scoring"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

var (
	// errors
	ErrNotCompleted = errors.New("the internship is not completed yet")
)

type (
	EvaluationGetter interface {
		Get(ctx context.Context, actor user.User, id string) (evaluation.Evaluation, error)
		Scales() *scoring.Registry
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	HoursProvider interface {
		Summary(ctx context.Context, actor user.User, internID string) (attendance.Summary, error)
	}
)

// Document is a rendered file ready for download.
type Document struct {
	FileName string
	Data     []byte
}

// CertificateInfo is what a certificate states; the QR code on it leads to these details.
type CertificateInfo struct {
	InternID      string    `json:"intern_id"`
	Name          string    `json:"name"`
	Department    string    `json:"department"`
	HoursRendered float64   `json:"hours_rendered"`
	FinalGrade    float64   `json:"final_grade"`
	CompletedAt   time.Time `json:"completed_at"`
	URL           string    `json:"url"`
}

type Service struct {
	evals           EvaluationGetter
	users           UserGetter
	hours           HoursProvider
	mailer          core.EmailService
	appName         string
	frontendBaseURL string
	now             func() time.Time
}

func NewService(evals EvaluationGetter, users UserGetter, hours HoursProvider, mailer core.EmailService, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(evals, "evals"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(hours, "hours"),
		vala.IsNotNil(mailer, "mailer"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		evals:           evals,
		users:           users,
		hours:           hours,
		mailer:          mailer,
		appName:         conf.AppName,
		frontendBaseURL: conf.FrontendBaseURL,
		now:             core.Now,
	}
}

// EvaluationFileName returns eg. "Juan_Dela_Cruz_Final.pdf".
func EvaluationFileName(intern user.User, evl evaluation.Evaluation) string {
	return core.SafeFileName(intern.Name, string(evl.Type)) + ".pdf"
}

// CertificateFileName returns eg. "Juan_Dela_Cruz_Certificate.pdf".
func CertificateFileName(intern user.User) string {
	return core.SafeFileName(intern.Name, "Certificate") + ".pdf"
}

// CertificateURL is the public page a certificate's QR code points to.
func (svc *Service) CertificateURL(internID string) string {
	return fmt.Sprintf("%s/certificates/%s", svc.frontendBaseURL, internID)
}

// EvaluationPDF renders an evaluation visible to actor.
func (svc *Service) EvaluationPDF(ctx context.Context, actor user.User, id string) (Document, error) {
	evl, err := svc.evals.Get(ctx, actor, id)
	if err != nil {
		return Document{}, err
	}
	intern, err := svc.users.GetByID(ctx, evl.InternID)
	if err != nil {
		return Document{}, errors.Wrap(err, "finding evaluated intern")
	}
	scale, err := svc.evals.Scales().Get(evl.Template.ScaleID)
	if err != nil {
		// the levels are still printed by code
		scale = scoring.Scale{ID: evl.Template.ScaleID}
	}

	var buf bytes.Buffer
	if err := svc.renderEvaluation(&buf, evl, intern, scale); err != nil {
		return Document{}, err
	}
	return Document{FileName: EvaluationFileName(intern, evl), Data: buf.Bytes()}, nil
}

func (svc *Service) renderEvaluation(buf *bytes.Buffer, evl evaluation.Evaluation, intern user.User, scale scoring.Scale) error {
	title := evl.Template.Title
	if title == "" {
		title = "Evaluation Form"
	}
	r := NewRenderer(A4(), title, svc.appName)
	r.SetFooter(fmt.Sprintf("%s - %s evaluation", intern.Name, evl.Type))

	r.Title(title, 16)
	r.Paragraph(svc.appName, true, "C")
	submitted := "-"
	if evl.SubmittedAt != nil {
		submitted = evl.SubmittedAt.Format("January 2, 2006")
	}
	r.Fields([][2]string{
		{"Intern", intern.Name},
		{"Department", intern.Department},
		{"Supervisor", evl.SupervisorName},
		{"Evaluation type", string(evl.Type)},
		{"Period covered", evl.PeriodCovered},
		{"Status", string(evl.Status)},
		{"Submitted", submitted},
	})

	maxScore := evl.MaxScore
	if maxScore == 0 {
		maxScore = scale.Max()
	}
	for _, sec := range evl.Template.Sections {
		heading := sec.Title
		if score, ok := evl.SectionScores[sec.Title]; ok {
			heading = fmt.Sprintf("%s (%.2f / %g)", sec.Title, score, maxScore)
		}
		r.Heading(heading)

		rows := make([][]string, 0, len(sec.Items))
		for _, item := range sec.Items {
			rows = append(rows, []string{item.Text, ratingText(scale, evl.Ratings[sec.ID][item.ID])})
		}
		r.Table([]string{"Criteria", "Rating"}, []float64{0.7, 0.3}, rows)
	}

	r.Heading("Summary")
	r.Fields([][2]string{
		{"Overall score", fmt.Sprintf("%.2f / %g", evl.OverallScore, maxScore)},
		{"Rated items", fmt.Sprintf("%d of %d", evl.RatedItems, evl.Template.ItemCount())},
	})

	for _, essay := range evl.Template.Essays {
		r.Heading(essay.Prompt)
		answer := evl.Essays[essay.ID]
		if answer == "" {
			answer = "-"
		}
		r.Paragraph(answer, false, "L")
	}

	r.Spacer(6)
	r.Signature(evl.SupervisorName, "Evaluated by")
	return r.Write(buf)
}

func ratingText(scale scoring.Scale, code string) string {
	if code == "" {
		return "Not rated"
	}
	if lvl, ok := scale.Resolve(code); ok {
		return fmt.Sprintf("%s - %s", lvl.Code, lvl.Label)
	}
	return code
}

// Verify returns the certificate details of a completed internship. It needs no user:
// anyone holding the certificate may check it.
func (svc *Service) Verify(ctx context.Context, internID string) (CertificateInfo, error) {
	intern, err := svc.users.GetByID(ctx, internID)
	if err != nil {
		return CertificateInfo{}, err
	}
	if !intern.IsIntern() {
		return CertificateInfo{}, user.ErrNotFound
	}
	if intern.InternshipStatus != user.InternshipCompleted || intern.OfficialFinalGrade == nil {
		return CertificateInfo{}, core.NewValidationError(ErrNotCompleted)
	}

	summary, err := svc.hours.Summary(ctx, intern, intern.ID)
	if err != nil {
		return CertificateInfo{}, errors.Wrap(err, "summarizing rendered hours")
	}
	return CertificateInfo{
		InternID:      intern.ID,
		Name:          intern.Name,
		Department:    intern.Department,
		HoursRendered: summary.TotalHours,
		FinalGrade:    *intern.OfficialFinalGrade,
		CompletedAt:   intern.UpdatedAt,
		URL:           svc.CertificateURL(intern.ID),
	}, nil
}

// Certificate renders the completion certificate of an intern visible to actor.
func (svc *Service) Certificate(ctx context.Context, actor user.User, internID string) (Document, error) {
	intern, err := svc.users.GetByID(ctx, internID)
	if err != nil {
		return Document{}, err
	}
	if !actor.CanView(intern) {
		return Document{}, user.ErrNotFound
	}
	info, err := svc.Verify(ctx, internID)
	if err != nil {
		return Document{}, err
	}

	qr, err := qrcode.Encode(info.URL, qrcode.Medium, 256)
	if err != nil {
		return Document{}, errors.Wrap(err, "encoding certificate qr code")
	}

	r := NewRenderer(A4Landscape(), "Certificate of Completion", svc.appName)
	r.Spacer(8)
	r.Title("CERTIFICATE OF COMPLETION", 26)
	r.Spacer(6)
	r.Paragraph("This certifies that", true, "C")
	r.Spacer(2)
	r.Title(info.Name, 22)
	r.Spacer(2)
	r.Paragraph(fmt.Sprintf(
		"has satisfactorily completed %.2f hours of on-the-job training in the %s department with a final grade of %.2f.",
		info.HoursRendered, info.Department, info.FinalGrade,
	), true, "C")
	r.Paragraph("Issued on "+svc.now().Format("January 2, 2006"), true, "C")
	r.Spacer(4)
	r.Image("certificate-qr", qr, 30)
	r.Paragraph("Verify this certificate at "+info.URL, true, "C")

	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		return Document{}, err
	}
	return Document{FileName: CertificateFileName(intern), Data: buf.Bytes()}, nil
}

type certificateMailData struct {
	InternName string
	VerifyURL  string
}

// SendCertificate emails the completion certificate to the intern. Only their managers may send it.
func (svc *Service) SendCertificate(ctx context.Context, actor user.User, internID string) error {
	intern, err := svc.users.GetByID(ctx, internID)
	if err != nil {
		return err
	}
	if !actor.CanView(intern) {
		return user.ErrNotFound
	}
	if !actor.CanManage(intern) {
		return core.NewPermissionError("only coordinators and admins can send certificates")
	}

	doc, err := svc.Certificate(ctx, actor, internID)
	if err != nil {
		return err
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: intern.Name, Address: intern.Email}},
		Subject:      "Your certificate of completion",
		TemplateName: "certificate",
		TemplateData: certificateMailData{InternName: intern.Name, VerifyURL: svc.CertificateURL(intern.ID)},
	}
	if err := msg.Attach(bytes.NewReader(doc.Data), doc.FileName, "application/pdf"); err != nil {
		return errors.Wrap(err, "attaching certificate")
	}
	svc.mailer.SendMessages(msg)
	return nil
}
