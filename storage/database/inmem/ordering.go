package inmemdb

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/dojang/core"
)

// compareFunc compares a and b on field: <0, 0 or >0.
type compareFunc[T any] func(a, b T, field string) int

// orderBy sorts items following ordering, falling back to `defaults` when ordering is empty.
func orderBy[T any](items []T, ordering []core.DBOrdering, cmp compareFunc[T], defaults ...core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = defaults
	}
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(items[i], items[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpString(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// contains does a case-insensitive substring match of keyword on any of values.
func contains(keyword string, values ...string) bool {
	keyword = strings.ToLower(keyword)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	return false
}

func boolVal(b *bool) bool { return b == nil || *b }
