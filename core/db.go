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

// CleanOrdering drops every ordering whose field is not in `allowed`.
// Orderings reach the repositories as raw SQL so unknown fields must never pass.
func CleanOrdering(ordering []DBOrdering, allowed ...string) []DBOrdering {
	if len(ordering) == 0 {
		return nil
	}
	cleaned := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		ord.Field = strings.ToLower(strings.TrimSpace(ord.Field))
		if StringInSlice(ord.Field, allowed) {
			cleaned = append(cleaned, ord)
		}
	}
	return cleaned
}
