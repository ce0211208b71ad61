package agent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Ironclad/ironclad/internal/domain"
)

// Context keys clients may send alongside a message.
const (
	ContextOrderNumber  = "order_number"
	ContextInquiryID    = "inquiry_id"
	ContextCommissionID = "commission_id"
	ContextPartnerID    = "partner_id"
	ContextEmail        = "email"
	ContextStatus       = "status"
	ContextAmount       = "amount"
	ContextNotes        = "notes"
	ContextConfirm      = "confirm"
)

var (
	emailPattern       = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	orderNumberPattern = regexp.MustCompile(`(?i)(?:#|\border\s+(?:number\s+|no\.?\s*)?#?)([a-z]{0,5}-?\d[\w-]*)`)
	amountPattern      = regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d{1,2})?)`)
	minAmountPattern   = regexp.MustCompile(`(?i)\b(?:over|above|more than|at least|greater than)\s+\$\s?(\d[\d,]*(?:\.\d{1,2})?)`)
	maxAmountPattern   = regexp.MustCompile(`(?i)\b(?:under|below|less than|at most)\s+\$\s?(\d[\d,]*(?:\.\d{1,2})?)`)
	notesPattern       = regexp.MustCompile(`(?is)\bnotes?\s*:\s*(.+)$`)
)

// containsAny is a case-insensitive OR over phrases. It matches inside
// words, so short tokens such as "all" go through containsWord.
func containsAny(message string, phrases ...string) bool {
	lower := strings.ToLower(message)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// containsWord matches phrase on word boundaries, ignoring case.
func containsWord(message, phrase string) bool {
	if phrase == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func extractEmail(message string) string {
	return strings.ToLower(emailPattern.FindString(message))
}

func extractOrderNumber(message string) string {
	m := orderNumberPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// extractReference returns the token following noun, as in "inquiry abc123"
// or "commission #k57x". Tokens need a digit to count as IDs.
func extractReference(message, noun string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(noun) + `\s+(?:id\s+)?#?([a-z0-9_-]*\d[a-z0-9_-]*)`)
	m := re.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

func parseDollars(s string) (domain.Cents, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return domain.Cents(math.Round(f * 100)), true
}

func extractAmount(message string) (domain.Cents, bool) {
	m := amountPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	return parseDollars(m[1])
}

func extractBounds(message string) (lo, hi *domain.Cents) {
	if m := minAmountPattern.FindStringSubmatch(message); m != nil {
		if c, ok := parseDollars(m[1]); ok {
			lo = &c
		}
	}
	if m := maxAmountPattern.FindStringSubmatch(message); m != nil {
		if c, ok := parseDollars(m[1]); ok {
			hi = &c
		}
	}
	return lo, hi
}

func extractNotes(message string) string {
	m := notesPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractQuery returns the text after the first of the lead-in phrases.
func extractQuery(message string, leads ...string) string {
	lower := strings.ToLower(message)
	for _, lead := range leads {
		if i := strings.Index(lower, lead); i >= 0 {
			q := strings.TrimSpace(message[i+len(lead):])
			return strings.Trim(q, " ?.!\"'")
		}
	}
	return ""
}

// findStatuses returns every status whose label or wire value appears in
// the message as a whole word, in set order.
func findStatuses[S interface {
	~string
	Label() string
}](message string, set []S) []S {
	var out []S
	for _, s := range set {
		if containsWord(message, s.Label()) || containsWord(message, string(s)) {
			out = append(out, s)
		}
	}
	return out
}

// dateRangeFor understands "today", "this month" and "last month".
func dateRangeFor(message string, now time.Time) domain.DateRange {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "last month"):
		end := domain.MonthStart(now)
		return domain.DateRange{From: end.AddDate(0, -1, 0), To: end.Add(-time.Nanosecond)}
	case strings.Contains(lower, "this month"):
		return domain.DateRange{From: domain.MonthStart(now), To: now}
	case strings.Contains(lower, "today"):
		return domain.DateRange{From: domain.DayStart(now), To: now}
	}
	return domain.DateRange{}
}

// partnerInMessage finds a partner whose name or store code appears in the
// message. Longer names win so "Ace Guns North" beats "Ace Guns".
func partnerInMessage(partners []domain.PartnerStore, message string) *domain.PartnerStore {
	var best *domain.PartnerStore
	bestLen := 0
	for i := range partners {
		p := &partners[i]
		for _, name := range []string{p.StoreName, p.StoreCode} {
			if len(name) > bestLen && containsWord(message, name) {
				best, bestLen = p, len(name)
			}
		}
	}
	return best
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}
