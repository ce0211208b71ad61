// Package analytics turns small declarative queries over a fixed set of
// schemas into parameterized PostgreSQL.
package analytics

import (
	"errors"
	"time"
)

var (
	ErrUnknownSchema      = errors.New("unknown schema")
	ErrUnknownMember      = errors.New("unknown member")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidOperator    = errors.New("invalid operator")
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrEmptyQuery         = errors.New("query selects nothing")
)

type Aggregation string

const (
	AggCount         Aggregation = "count"
	AggCountDistinct Aggregation = "count_distinct"
	AggSum           Aggregation = "sum"
	AggAvg           Aggregation = "avg"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// Measure is an aggregate over Column. Where, when set, becomes a
// FILTER (WHERE ...) clause on the aggregate.
type Measure struct {
	Agg         Aggregation `json:"agg"`
	Column      string      `json:"column"`
	Where       string      `json:"where,omitempty"`
	Description string      `json:"description"`
}

type Dimension struct {
	Column      string `json:"column"`
	Time        bool   `json:"time,omitempty"`
	Description string `json:"description"`
}

// Schema maps public member names onto one table. Column and Where
// fragments are trusted SQL; only member names come from callers.
type Schema struct {
	Name       string               `json:"name"`
	Table      string               `json:"table"`
	Measures   map[string]Measure   `json:"measures"`
	Dimensions map[string]Dimension `json:"dimensions"`
}

type TimeDimension struct {
	Dimension   string      `json:"dimension" valid:"required"`
	Granularity Granularity `json:"granularity" valid:"required"`
	From        *time.Time  `json:"from,omitempty"`
	To          *time.Time  `json:"to,omitempty"`
}

type Filter struct {
	Member   string   `json:"member" valid:"required"`
	Operator string   `json:"operator" valid:"required,in(equals|notEquals|contains|gt|gte|lt|lte|in|notIn)"`
	Values   []string `json:"values"`
}

type Order struct {
	Member string `json:"member"`
	Desc   bool   `json:"desc,omitempty"`
}

type Query struct {
	Schema        string         `json:"schema" valid:"required"`
	Measures      []string       `json:"measures"`
	Dimensions    []string       `json:"dimensions,omitempty"`
	TimeDimension *TimeDimension `json:"timeDimension,omitempty"`
	Filters       []Filter       `json:"filters,omitempty"`
	Order         []Order        `json:"order,omitempty"`
	Limit         int            `json:"limit,omitempty"`
	Timezone      string         `json:"timezone,omitempty"`
}

const (
	DefaultLimit = 1000
	MaxLimit     = 10000
)

func (q *Query) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	}
	return q.Limit
}

// TimeAlias is the result column name of the time bucket.
func (td *TimeDimension) Alias() string {
	return td.Dimension + "_" + string(td.Granularity)
}

type Result struct {
	Rows     []map[string]interface{} `json:"rows"`
	SQL      string                   `json:"sql"`
	Args     []interface{}            `json:"args"`
	Duration time.Duration            `json:"duration"`
}
