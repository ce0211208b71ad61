package domain

// Optional carries the outcome of a best-effort fetch. A failed fetch keeps
// its error so callers can log it, but its value is never read.
type Optional[T any] struct {
	Value T
	Err   error
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v}
}

func Failed[T any](err error) Optional[T] {
	return Optional[T]{Err: err}
}

func (o Optional[T]) Available() bool {
	return o.Err == nil
}

// Get returns the value and whether it is usable.
func (o Optional[T]) Get() (T, bool) {
	if o.Err != nil {
		var zero T
		return zero, false
	}
	return o.Value, true
}

type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Title    string        `json:"title"`
	Detail   string        `json:"detail"`
	Source   AgentKind     `json:"source"`
}

// Growth placeholders reported when no analytics database is configured.
const (
	EstimatedRevenueGrowth = 12.5
	EstimatedOrderGrowth   = 8.3
)

// Growth is month-over-month change in percent.
type Growth struct {
	Revenue   float64 `json:"revenue"`
	Orders    float64 `json:"orders"`
	Estimated bool    `json:"estimated"`
}

func EstimatedGrowth() Growth {
	return Growth{Revenue: EstimatedRevenueGrowth, Orders: EstimatedOrderGrowth, Estimated: true}
}

// PercentChange is zero when previous is zero.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
