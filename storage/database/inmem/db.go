// Package inmemdb stores everything in mutex-guarded maps. It backs the tests and
// `ENV=TEST` runs; data does not survive a restart.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Evenson-7/OJTManagement-sub000/core/attendance"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/narrative"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

type (
	DB struct {
		user       *userTable
		template   *templateTable
		evaluation *evaluationTable
		attendance *attendanceTable
		narrative  *narrativeTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	templateTable struct {
		sync.RWMutex
		table map[string]*evaluation.Template
	}

	evaluationTable struct {
		sync.RWMutex
		table map[string]*evaluation.Evaluation
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	narrativeTable struct {
		sync.RWMutex
		table map[string]*narrative.Report
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		template:   &templateTable{table: make(map[string]*evaluation.Template)},
		evaluation: &evaluationTable{table: make(map[string]*evaluation.Evaluation)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		narrative:  &narrativeTable{table: make(map[string]*narrative.Report)},
	}
}

func newID() string {
	return uuid.New().String()
}
