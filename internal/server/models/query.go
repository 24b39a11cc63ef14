package models

import "time"

// Scope restricts a listing to what a principal may view: their own
// entries, or entries of a visible classification that are either not
// sensitive or viewable because IncludeSensitive is set.
type Scope struct {
	OwnerID          string
	Classifications  []Classification
	IncludeSensitive bool
}

// ListFilter narrows a listing. Zero values mean "no constraint".
type ListFilter struct {
	Search         string
	Category       Category
	Classification Classification
	Tag            string
	OwnerID        string
}

type SortField string

const (
	SortUpdatedAt  SortField = "updated_at"
	SortCreatedAt  SortField = "created_at"
	SortTitle      SortField = "title"
	SortExpiration SortField = "expiration_date"
)

type Sort struct {
	Field SortField
	Desc  bool
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 1_000_000
)

// Page selects a window of results; Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// ListQuery bundles everything an entry listing needs.
type ListQuery struct {
	Scope  Scope
	Filter ListFilter
	Sort   Sort
	Page   Page
}

// EntryPatch carries optional updates; nil fields are left untouched.
type EntryPatch struct {
	Title          *string
	Content        *string
	Category       *Category
	Classification *Classification
	Tags           []string
	SetTags        bool
	IsSensitive    *bool
	ExpirationDate *time.Time
	ClearExpiry    bool
}
