package analytics

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Masterminds/squirrel"
)

// Builder renders queries with PostgreSQL placeholders.
type Builder struct {
	placeholder squirrel.PlaceholderFormat
}

func NewBuilder() *Builder {
	return &Builder{placeholder: squirrel.Dollar}
}

// Build validates q against s and renders it. Measures are aggregated,
// dimensions and the time bucket are grouped on, filters on dimensions go
// to WHERE and filters on measures to HAVING.
func (b *Builder) Build(q Query, s Schema) (string, []interface{}, error) {
	if err := ValidateAgainst(q, s); err != nil {
		return "", nil, err
	}

	tz, err := sanitizeTimezone(q.Timezone)
	if err != nil {
		return "", nil, err
	}

	sel := squirrel.Select().PlaceholderFormat(b.placeholder).From(s.Table)
	var groupBy []string

	for _, name := range q.Dimensions {
		d := s.Dimensions[name]
		sel = sel.Column(fmt.Sprintf("%s AS %s", d.Column, name))
		groupBy = append(groupBy, d.Column)
	}

	if td := q.TimeDimension; td != nil {
		d := s.Dimensions[td.Dimension]
		sel = sel.Column(fmt.Sprintf("DATE_TRUNC('%s', %s) AS %s", td.Granularity, inZone(d.Column, tz), td.Alias()))
		groupBy = append(groupBy, td.Alias())
		if td.From != nil {
			sel = sel.Where(squirrel.GtOrEq{d.Column: td.From.UTC()})
		}
		if td.To != nil {
			sel = sel.Where(squirrel.Lt{d.Column: td.To.UTC()})
		}
	}

	for _, name := range q.Measures {
		sel = sel.Column(fmt.Sprintf("%s AS %s", aggregate(s.Measures[name]), name))
	}

	for _, f := range q.Filters {
		if d, ok := s.Dimensions[f.Member]; ok {
			cond, err := condition(d.Column, f)
			if err != nil {
				return "", nil, err
			}
			sel = sel.Where(cond)
			continue
		}
		cond, err := condition(aggregate(s.Measures[f.Member]), f)
		if err != nil {
			return "", nil, err
		}
		sel = sel.Having(cond)
	}

	if len(groupBy) > 0 {
		sel = sel.GroupBy(groupBy...)
	}

	for _, o := range q.Order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		sel = sel.OrderBy(o.Member + " " + dir)
	}
	if len(q.Order) == 0 && q.TimeDimension != nil {
		sel = sel.OrderBy(q.TimeDimension.Alias() + " ASC")
	}

	sel = sel.Limit(uint64(q.EffectiveLimit()))

	sql, args, err := sel.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build SQL: %w", err)
	}
	return sql, args, nil
}

func aggregate(m Measure) string {
	var expr string
	switch m.Agg {
	case AggCount:
		expr = fmt.Sprintf("COUNT(%s)", m.Column)
	case AggCountDistinct:
		expr = fmt.Sprintf("COUNT(DISTINCT %s)", m.Column)
	case AggSum:
		expr = fmt.Sprintf("COALESCE(SUM(%s), 0)", m.Column)
	case AggAvg:
		expr = fmt.Sprintf("COALESCE(AVG(%s), 0)", m.Column)
	case AggMin:
		expr = fmt.Sprintf("MIN(%s)", m.Column)
	case AggMax:
		expr = fmt.Sprintf("MAX(%s)", m.Column)
	default:
		expr = m.Column
	}
	if m.Where == "" {
		return expr
	}
	// COALESCE wraps the aggregate, so the filter goes inside it.
	if strings.HasPrefix(expr, "COALESCE(") {
		inner := strings.TrimSuffix(strings.TrimPrefix(expr, "COALESCE("), ", 0)")
		return fmt.Sprintf("COALESCE(%s FILTER (WHERE %s), 0)", inner, m.Where)
	}
	return fmt.Sprintf("%s FILTER (WHERE %s)", expr, m.Where)
}

func condition(expr string, f Filter) (squirrel.Sqlizer, error) {
	single := func() (string, error) {
		if len(f.Values) != 1 {
			return "", fmt.Errorf("%w: %s takes exactly one value", ErrInvalidOperator, f.Operator)
		}
		return f.Values[0], nil
	}

	switch f.Operator {
	case "equals":
		if len(f.Values) == 1 {
			return squirrel.Eq{expr: f.Values[0]}, nil
		}
		return squirrel.Eq{expr: f.Values}, nil
	case "notEquals":
		if len(f.Values) == 1 {
			return squirrel.NotEq{expr: f.Values[0]}, nil
		}
		return squirrel.NotEq{expr: f.Values}, nil
	case "in":
		return squirrel.Eq{expr: f.Values}, nil
	case "notIn":
		return squirrel.NotEq{expr: f.Values}, nil
	case "contains":
		v, err := single()
		if err != nil {
			return nil, err
		}
		return squirrel.ILike{expr: "%" + escapeLike(v) + "%"}, nil
	case "gt", "gte", "lt", "lte":
		v, err := single()
		if err != nil {
			return nil, err
		}
		switch f.Operator {
		case "gt":
			return squirrel.Gt{expr: v}, nil
		case "gte":
			return squirrel.GtOrEq{expr: v}, nil
		case "lt":
			return squirrel.Lt{expr: v}, nil
		default:
			return squirrel.LtOrEq{expr: v}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidOperator, f.Operator)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func inZone(column, tz string) string {
	if tz == "" || tz == "UTC" {
		return column
	}
	return fmt.Sprintf("(%s AT TIME ZONE '%s')", column, tz)
}

// sanitizeTimezone accepts IANA names only. The result is interpolated
// into SQL, so anything outside [A-Za-z0-9_/+-] is rejected even if the
// tz database would load it.
func sanitizeTimezone(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", nil
	}
	if len(tz) > 64 {
		return "", ErrInvalidTimezone
	}
	for _, r := range tz {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '_' || r == '/' || r == '+' || r == '-'
		if !ok {
			return "", ErrInvalidTimezone
		}
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}
	return tz, nil
}
