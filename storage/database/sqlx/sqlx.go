// Package sqlxrepos implements the repositories over Postgres or SQLite with sqlx.
// Nested documents (templates, ratings, essays) are stored as JSON text.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

func newID() string {
	return uuid.New().String()
}

// where collects AND conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// build expands the slice arguments of `IN (?)` conditions and rebinds the query for db.
func (w *where) build(db *sqlx.DB, query, suffix string) (string, []interface{}, error) {
	if len(w.conds) > 0 {
		query += " WHERE " + strings.Join(w.conds, " AND ")
	}
	query += " " + suffix
	q, args, err := sqlx.In(query, w.args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query arguments")
	}
	return db.Rebind(q), args, nil
}

func toJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encoding document")
	}
	return string(b), nil
}

func fromJSON(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(s), v), "decoding document")
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	at := t.Time.UTC()
	return &at
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
