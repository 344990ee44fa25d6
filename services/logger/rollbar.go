package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

// entry is one log call split into what Rollbar reports separately.
type entry struct {
	person *user.User
	custom map[string]interface{}
	rest   []interface{}
}

// collect sorts the arguments of a log call. Accepted args:
//   - user.User: the acting user, reported as the person (first one wins)
//   - evaluation.Evaluation: its identifiers go to the custom data
//   - map[string]interface{}: merged into the custom data, later keys win
//   - anything else (errors mostly) is passed through
func collect(args []interface{}) entry {
	e := entry{custom: make(map[string]interface{})}
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if e.person == nil {
				usr := v
				e.person = &usr
				e.custom["user_role"] = v.Role
			}
		case evaluation.Evaluation:
			e.custom["evaluation_id"] = v.ID
			e.custom["intern_id"] = v.InternID
			e.custom["supervisor_id"] = v.SupervisorID
			e.custom["template_id"] = v.Template.ID
			e.custom["evaluation_type"] = string(v.Type)
			e.custom["status"] = string(v.Status)
		case map[string]interface{}:
			for k, val := range v {
				e.custom[k] = val
			}
		default:
			e.rest = append(e.rest, arg)
		}
	}
	return e
}

func (e entry) rollbarArgs(msg string) []interface{} {
	out := make([]interface{}, 0, len(e.rest)+2)
	out = append(out, msg)
	out = append(out, e.rest...)
	if len(e.custom) > 0 {
		out = append(out, e.custom)
	}
	return out
}

// fields renders the custom data as sorted key=value pairs.
func (e entry) fields() string {
	keys := make([]string, 0, len(e.custom))
	for k := range e.custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.custom[k]))
	}
	return strings.Join(pairs, " ")
}

func (l RollbarLogger) log(report func(...interface{}), msg string, args []interface{}) {
	e := collect(args)
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Name, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(e.rollbarArgs(msg)...)

	if len(e.custom) > 0 {
		l.std.Println(msg, "|", e.fields())
	} else {
		l.std.Println(msg)
	}
	for _, arg := range e.rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.Debug, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.Info, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.Warning, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.Error, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}
