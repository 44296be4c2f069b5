package models

import "sort"

// Category represents a spending category for transactions. The value is the
// display string used both for CSV matching and for report rendering.
type Category string

const (
	CategoryDining        Category = "Dining & Drinks"
	CategoryGroceries     Category = "Groceries"
	CategoryPets          Category = "Pets"
	CategoryBills         Category = "Bills & Utilities"
	CategoryPurchases     Category = "Shared Purchases"
	CategorySubscriptions Category = "Shared Subscriptions"
	CategoryTravel        Category = "Travel & Vacation"
)

// CategorySet is the set of categories recognized for a run, resolved once
// at startup. Order is significant: it fixes the column order of the report.
type CategorySet struct {
	categories []Category
	members    map[Category]bool
}

// NewCategorySet builds a set from an ordered list of display strings.
func NewCategorySet(categories []Category) CategorySet {
	members := make(map[Category]bool, len(categories))
	for _, c := range categories {
		members[c] = true
	}
	return CategorySet{categories: categories, members: members}
}

// DefaultCategories returns the built-in category set.
func DefaultCategories() CategorySet {
	return NewCategorySet([]Category{
		CategoryDining,
		CategoryGroceries,
		CategoryPets,
		CategoryBills,
		CategoryPurchases,
		CategorySubscriptions,
		CategoryTravel,
	})
}

// CategoriesFromConfig resolves a set from a config map of stable keys to
// display strings. JSON maps carry no order, so columns are ordered by
// sorted key to keep rendering deterministic.
func CategoriesFromConfig(m map[string]string) CategorySet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	categories := make([]Category, 0, len(keys))
	for _, k := range keys {
		categories = append(categories, Category(m[k]))
	}
	return NewCategorySet(categories)
}

// Contains reports whether the display string belongs to the set.
func (s CategorySet) Contains(c Category) bool {
	return s.members[c]
}

// List returns the categories in set order. Callers must not mutate it.
func (s CategorySet) List() []Category {
	return s.categories
}

// Len returns the number of categories in the set.
func (s CategorySet) Len() int {
	return len(s.categories)
}
