package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/dojang/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryBool returns nil when the param is missing or not a boolean.
func queryBool(ctx echo.Context, name string) *bool {
	if b, err := strconv.ParseBool(ctx.QueryParam(name)); err == nil {
		return &b
	}
	return nil
}

// queryTime parses a RFC3339 or YYYY-MM-DD param. invalid values yield a zero time.
func queryTime(ctx echo.Context, name string) time.Time {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// queryWeekday accepts 0-6 (Sunday first) or a day name.
func queryWeekday(ctx echo.Context, name string) *time.Weekday {
	val := strings.ToLower(strings.TrimSpace(ctx.QueryParam(name)))
	if val == "" {
		return nil
	}
	if n, err := strconv.Atoi(val); err == nil && n >= 0 && n <= 6 {
		day := time.Weekday(n)
		return &day
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == val || strings.ToLower(d.String()[:3]) == val {
			return &d
		}
	}
	return nil
}

// queryList merges repeated and comma-separated values of a param.
func queryList(ctx echo.Context, name string) []string {
	var list []string
	for _, val := range ctx.QueryParams()[name] {
		for _, v := range strings.Split(val, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
	}
	return list
}
