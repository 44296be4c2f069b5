package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used by the spreadsheet export and
// the archive.
const DateFormat = "2006-01-02"

// IgnoredFrom represents the `Ignored From` column of the spreadsheet: a flag
// excluding a transaction from certain calculations.
type IgnoredFrom string

const (
	IgnoredFromNothing    IgnoredFrom = ""
	IgnoredFromBudget     IgnoredFrom = "budget"
	IgnoredFromEverything IgnoredFrom = "everything"
)

// Transaction represents a single financial transaction. Amounts are signed
// decimals; positive means an expense, by convention of the source export.
type Transaction struct {
	Date          time.Time       `json:"date"`
	Name          string          `json:"name"`
	AccountNumber int             `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	Ignore        IgnoredFrom     `json:"ignore"`
}
