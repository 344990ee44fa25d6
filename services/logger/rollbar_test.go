package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

var (
	sam = user.User{ID: "u1", Name: "Sam Supervisor", Email: "sam@test.test", Role: user.RoleSupervisor}
	evl = evaluation.Evaluation{
		ID:           "e1",
		InternID:     "i1",
		SupervisorID: "u1",
		Status:       evaluation.StatusDraft,
		Type:         evaluation.TypeMidterm,
		Template:     evaluation.Template{ID: "it-basic"},
	}
	errBoom = errors.New("boom")
)

func Test_collect(t *testing.T) {
	tests := []struct {
		name       string
		args       []interface{}
		wantPerson *user.User
		wantCustom map[string]interface{}
		wantRest   []interface{}
	}{
		{
			name:       "nothing",
			wantCustom: map[string]interface{}{},
		},
		{
			name:       "first user is the person",
			args:       []interface{}{sam, user.User{ID: "u2", Role: user.RoleAdmin}, errBoom},
			wantPerson: &sam,
			wantCustom: map[string]interface{}{"user_role": user.RoleSupervisor},
			wantRest:   []interface{}{errBoom},
		},
		{
			name: "evaluation identifiers",
			args: []interface{}{evl},
			wantCustom: map[string]interface{}{
				"evaluation_id":   "e1",
				"intern_id":       "i1",
				"supervisor_id":   "u1",
				"template_id":     "it-basic",
				"evaluation_type": string(evaluation.TypeMidterm),
				"status":          string(evaluation.StatusDraft),
			},
		},
		{
			name: "maps are merged and later keys win",
			args: []interface{}{
				map[string]interface{}{"scale": "numeric-5", "skipped": 1},
				map[string]interface{}{"skipped": 2},
			},
			wantCustom: map[string]interface{}{"scale": "numeric-5", "skipped": 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := collect(tc.args)
			assert.Equal(t, tc.wantPerson, e.person)
			assert.Equal(t, tc.wantCustom, e.custom)
			assert.Equal(t, tc.wantRest, e.rest)
		})
	}
}

func Test_entry_rollbarArgs(t *testing.T) {
	e := collect([]interface{}{errBoom, map[string]interface{}{"skipped": 1}})
	assert.Equal(t, []interface{}{"msg", errBoom, map[string]interface{}{"skipped": 1}}, e.rollbarArgs("msg"))

	assert.Equal(t, []interface{}{"msg"}, collect(nil).rollbarArgs("msg"))
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	logger.Warn("unresolvable ratings ignored", evl, map[string]interface{}{"ratings": 2})
	logger.Error("sending email", errBoom, sam)
	logger.Info("started")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, "unresolvable ratings ignored | evaluation_id=e1 evaluation_type=Midterm intern_id=i1 ratings=2 status=draft supervisor_id=u1 template_id=it-basic", string(lines[0]))
	assert.Equal(t, "sending email | user_role=supervisor", string(lines[1]))
	assert.Equal(t, "boom", string(lines[2]))
	assert.Equal(t, "started", string(lines[3]))
}
