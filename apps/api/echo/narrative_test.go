package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
)

func Test_narrativeApi(t *testing.T) {
	e := setup(t)
	c := e.cast
	internToken := getToken(t, e, c.Intern)
	supToken := getToken(t, e, c.Supervisor)

	e.run(t, []httpTest{
		{
			name: "Interns only", method: http.MethodPost, path: "/v1/narratives", token: supToken,
			body: marchallObj(t, narrative.NewReport{WeekOf: "2024-06-05", Content: "Week"}), wantCode: http.StatusForbidden,
		},
		{
			name: "Required fields", method: http.MethodPost, path: "/v1/narratives", token: internToken,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"week_of": "this field is required", "content": "this field is required"}),
		},
	})

	var report narrative.Report
	t.Run("submit", func(t *testing.T) {
		body := marchallObj(t, narrative.NewReport{WeekOf: "2024-06-05", Content: " Set up the build pipeline. "})
		rec := e.do(http.MethodPost, "/v1/narratives", internToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &report)
		assert.Equal(t, "2024-06-03", report.WeekOf)
		assert.Equal(t, "Set up the build pipeline.", report.Content)
		assert.Equal(t, narrative.StatusSubmitted, report.Status)
	})
	path := "/v1/narratives/" + report.ID

	e.run(t, []httpTest{
		{
			name: "One report per week", method: http.MethodPost, path: "/v1/narratives", token: internToken,
			body: marchallObj(t, narrative.NewReport{WeekOf: "2024-06-07", Content: "Again"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"week_of": narrative.ErrAlreadySent.Error()}),
		},
		{name: "Supervisor sees it", path: path, token: supToken},
		{name: "Other supervisor does not", path: path, token: getToken(t, e, c.OtherSupervisor), wantCode: http.StatusNotFound},
		{
			name: "Returning needs feedback", method: http.MethodPost, path: path + "/review", token: supToken,
			body: []byte(`{"status": "returned"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"feedback": "this field is required"}),
		},
		{
			name: "Unknown status", method: http.MethodPost, path: path + "/review", token: supToken,
			body: []byte(`{"status": "lost"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Interns do not review", method: http.MethodPost, path: path + "/review", token: internToken,
			body: []byte(`{"status": "approved"}`), wantCode: http.StatusForbidden,
		},
	})

	t.Run("return and resubmit", func(t *testing.T) {
		e.Mailer.Reset()
		rec := e.do(http.MethodPost, path+"/review", supToken, []byte(`{"status": "returned", "feedback": "More details please"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got narrative.Report
		unmarshal(t, rec, &got)
		assert.Equal(t, narrative.StatusReturned, got.Status)
		assert.Equal(t, c.Supervisor.ID, got.ReviewedBy)

		sent := e.Mailer.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, c.Intern.Email, sent[0].To[0].Address)

		body := marchallObj(t, narrative.NewReport{WeekOf: "2024-06-03", Content: "Set up the pipeline and its tests."})
		rec = e.do(http.MethodPost, "/v1/narratives", internToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &got)
		assert.Equal(t, report.ID, got.ID)
		assert.Equal(t, narrative.StatusSubmitted, got.Status)
	})

	e.run(t, []httpTest{
		{name: "Coordinator approves", method: http.MethodPost, path: path + "/review", token: getToken(t, e, c.Coordinator), body: []byte(`{"status": "approved"}`)},
		{
			name: "Already reviewed", method: http.MethodPost, path: path + "/review", token: supToken,
			body: []byte(`{"status": "approved"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: narrative.ErrAlreadyReviewed.Error()}),
		},
	})

	t.Run("query", func(t *testing.T) {
		var reports []narrative.Report
		rec := e.do(http.MethodGet, "/v1/narratives?status=approved", internToken)
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshal(t, rec, &reports)
		require.Len(t, reports, 1)
		assert.Equal(t, report.ID, reports[0].ID)

		rec = e.do(http.MethodGet, "/v1/narratives", getToken(t, e, c.OtherSupervisor))
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshal(t, rec, &reports)
		assert.Empty(t, reports)
	})
}
