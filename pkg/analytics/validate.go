package analytics

import (
	"fmt"

	"github.com/asaskevich/govalidator"
)

// Validate checks q's shape and resolves its schema from schemas.
func Validate(q Query, schemas map[string]Schema) (Schema, error) {
	s, ok := schemas[q.Schema]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrUnknownSchema, q.Schema)
	}
	if err := ValidateAgainst(q, s); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// ValidateAgainst checks that every member q names exists in s.
func ValidateAgainst(q Query, s Schema) error {
	for _, f := range q.Filters {
		if _, err := govalidator.ValidateStruct(f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOperator, err)
		}
	}
	if _, err := govalidator.ValidateStruct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	if len(q.Measures) == 0 && len(q.Dimensions) == 0 && q.TimeDimension == nil {
		return ErrEmptyQuery
	}

	selected := make(map[string]bool)
	for _, m := range q.Measures {
		if _, ok := s.Measures[m]; !ok {
			return fmt.Errorf("%w: measure %s", ErrUnknownMember, m)
		}
		selected[m] = true
	}
	for _, d := range q.Dimensions {
		if _, ok := s.Dimensions[d]; !ok {
			return fmt.Errorf("%w: dimension %s", ErrUnknownMember, d)
		}
		selected[d] = true
	}

	if td := q.TimeDimension; td != nil {
		d, ok := s.Dimensions[td.Dimension]
		if !ok || !d.Time {
			return fmt.Errorf("%w: time dimension %s", ErrUnknownMember, td.Dimension)
		}
		if !td.Granularity.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidGranularity, td.Granularity)
		}
		if td.From != nil && td.To != nil && td.To.Before(*td.From) {
			return fmt.Errorf("invalid query: time range ends before it starts")
		}
		selected[td.Alias()] = true
	}

	for _, f := range q.Filters {
		_, isDim := s.Dimensions[f.Member]
		_, isMeasure := s.Measures[f.Member]
		if !isDim && !isMeasure {
			return fmt.Errorf("%w: filter %s", ErrUnknownMember, f.Member)
		}
		if len(f.Values) == 0 {
			return fmt.Errorf("invalid query: filter %s has no values", f.Member)
		}
	}

	for _, o := range q.Order {
		if !selected[o.Member] {
			return fmt.Errorf("%w: order by %s is not selected", ErrUnknownMember, o.Member)
		}
	}
	return nil
}
