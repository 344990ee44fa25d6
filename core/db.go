package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering turns "name,-created_at" into orderings, keeping only the allowed fields.
func ParseOrdering(s string, allowed ...string) []DBOrdering {
	allowedSet := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = true
	}

	var ords []DBOrdering
	for _, f := range strings.Split(s, ",") {
		f = CleanString(f, true)
		if f == "" {
			continue
		}
		ord := DBOrdering{Field: f, Ascending: true}
		if strings.HasPrefix(f, "-") {
			ord = DBOrdering{Field: f[1:], Ascending: false}
		}
		if allowedSet[ord.Field] {
			ords = append(ords, ord)
		}
	}
	return ords
}
