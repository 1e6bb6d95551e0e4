package model

import "time"

// Child is a child profile in the registry. Active is false once the child
// has been archived; archived children keep their attendance history.
type Child struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  *string   `json:"lastName"`
	BirthDate *string   `json:"birthDate"`
	Notes     *string   `json:"notes"`
	Color     *string   `json:"color"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName returns the first name followed by the last name, if any.
func (c Child) DisplayName() string {
	if c.LastName == nil || *c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + *c.LastName
}

// NewChild holds the fields accepted when registering a child.
type NewChild struct {
	FirstName string
	LastName  *string
	BirthDate *string
	Notes     *string
	Color     *string
}

// ChildPatch is a partial update of a child. Nil pointers and unset
// Optionals leave the field untouched.
type ChildPatch struct {
	Active    *bool    `json:"active"`
	FirstName *string  `json:"firstName"`
	LastName  Optional `json:"lastName"`
	BirthDate Optional `json:"birthDate"`
	Notes     Optional `json:"notes"`
	Color     Optional `json:"color"`
}

// Empty reports whether the patch changes nothing.
func (p ChildPatch) Empty() bool {
	return p.Active == nil && p.FirstName == nil &&
		!p.LastName.Set && !p.BirthDate.Set && !p.Notes.Set && !p.Color.Set
}

// Apply returns a copy of c with the patch applied.
func (p ChildPatch) Apply(c Child) Child {
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	c.LastName = p.LastName.Or(c.LastName)
	c.BirthDate = p.BirthDate.Or(c.BirthDate)
	c.Notes = p.Notes.Or(c.Notes)
	c.Color = p.Color.Or(c.Color)
	return c
}
