package models

import (
	"github.com/shopspring/decimal"
)

// Person is a household member's ledger: a set of account numbers and the
// transactions attributed to them during a run.
type Person struct {
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	AccountNumbers []int         `json:"accountNumbers"`
	Transactions   []Transaction `json:"transactions"`
}

// HasAccount reports whether the account number belongs to this person.
func (p *Person) HasAccount(accountNumber int) bool {
	for _, n := range p.AccountNumbers {
		if n == accountNumber {
			return true
		}
	}
	return false
}

// AddTransaction appends a transaction to the ledger. Validation and
// attribution rules are the Summary's responsibility.
func (p *Person) AddTransaction(t Transaction) {
	p.Transactions = append(p.Transactions, t)
}

// Expenses sums the amounts of the held transactions. An empty category sums
// everything; an empty ledger sums to zero.
func (p *Person) Expenses(category Category) decimal.Decimal {
	total := decimal.Zero
	for _, t := range p.Transactions {
		if category != "" && t.Category != category {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}
