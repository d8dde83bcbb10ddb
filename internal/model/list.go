package model

import "time"

// List represents a shared todo list as stored in the `lists`
// table. Every list has exactly one owner (the creator) and
// ownership never transfers. Other users gain access through
// `list_members` rows; the owner is never a member row.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – users.id of the creator; sole rename/delete authority.
//  Name      – display name, defaulted to "Untitled list" when blank.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type List struct {
	ID        uint64    // lists.id
	OwnerID   uint64    // lists.owner_id
	Name      string    // lists.name
	CreatedAt time.Time // lists.created_at
	UpdatedAt time.Time // lists.updated_at
}

// Member relates one user to one list with a role. The pair
// (ListID, UserID) is the primary key, so re-inviting the same user
// updates the role instead of adding a second row. Email is joined
// in from `users` for membership listings and is not a column of
// `list_members` itself.
type Member struct {
	ListID uint64 // list_members.list_id
	UserID uint64 // list_members.user_id
	Email  string // users.email (joined)
	Role   string // list_members.role: "editor" or "viewer"
}
