package models

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpetrillo/spendsplit/internal/config"
)

// Summary is the attribution engine for one report run. It owns the roster
// of person ledgers and routes parsed transactions to every person whose
// account numbers match. A fresh Summary is built per run; it is never
// shared between runs.
type Summary struct {
	// Date is the report reference date, used by the month filter and as the
	// subject-line fallback when no transaction was attributed.
	Date       time.Time
	Owner      string
	People     []*Person
	Categories CategorySet

	// MonthFilter restricts attribution to transactions in Date's month.
	// Off by default; the observed date range is the preferred design.
	MonthFilter bool

	startDate time.Time
	endDate   time.Time
}

// NewSummary constructs an engine from a validated configuration document.
// Construction fails fast: a malformed config yields no engine.
func NewSummary(date time.Time, cfg *config.Config) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	people := make([]*Person, 0, len(cfg.People))
	for _, pc := range cfg.People {
		people = append(people, &Person{
			Name:           pc.Name,
			Email:          pc.Email,
			AccountNumbers: pc.Accounts,
		})
	}

	categories := DefaultCategories()
	if len(cfg.Categories) > 0 {
		categories = CategoriesFromConfig(cfg.Categories)
	}

	return &Summary{
		Date:        date,
		Owner:       cfg.SenderEmail(),
		People:      people,
		Categories:  categories,
		MonthFilter: cfg.MonthFilter,
	}, nil
}

// AddTransactions attributes a batch of parsed transactions to the roster.
// A transaction goes to every person whose account list contains its account
// number; overlapping account lists therefore double-count it. Ignored
// transactions are never attributed.
func (s *Summary) AddTransactions(transactions []Transaction) {
	for _, t := range transactions {
		attributed := false
		for _, p := range s.People {
			if s.attributable(t, p) {
				s.observeDate(t.Date)
				p.AddTransaction(t)
				attributed = true
			}
		}
		if !attributed {
			slog.Warn("skipped transaction",
				"name", t.Name,
				"date", t.Date.Format(DateFormat),
				"account_number", t.AccountNumber)
		}
	}
}

func (s *Summary) attributable(t Transaction, p *Person) bool {
	if !p.HasAccount(t.AccountNumber) || t.Ignore != IgnoredFromNothing {
		return false
	}
	if s.MonthFilter {
		return t.Date.Year() == s.Date.Year() && t.Date.Month() == s.Date.Month()
	}
	return true
}

func (s *Summary) observeDate(d time.Time) {
	if s.startDate.IsZero() || d.Before(s.startDate) {
		s.startDate = d
	}
	if s.endDate.IsZero() || d.After(s.endDate) {
		s.endDate = d
	}
}

// DateRange returns the min and max attributed transaction dates. When no
// transaction was attributed it returns the report date for both ends.
func (s *Summary) DateRange() (time.Time, time.Time) {
	if s.startDate.IsZero() {
		return s.Date, s.Date
	}
	return s.startDate, s.endDate
}

// Difference returns p1's expenses minus p2's for the given category (empty
// for all categories). The sign is meaningful; no rounding is applied here.
func (s *Summary) Difference(p1, p2 *Person, category Category) decimal.Decimal {
	return p1.Expenses(category).Sub(p2.Expenses(category))
}
