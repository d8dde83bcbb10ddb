package model

import "time"

// Todo represents a task record as stored in the `todos` table.
// A todo always belongs to the user who created it. ListID is
// nullable: a todo with no list is "personal" and visible only to
// its creator, while a todo inside a list inherits visibility from
// the caller's access to that list.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – users.id of the creator; full access regardless of list.
//  ListID      – lists.id the todo lives in, or nil for personal todos.
//  Title       – short label, defaulted to "Untitled" when blank.
//  Description – free-form text, may be empty.
//  Completed   – done flag.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Todo struct {
	ID          uint64    // todos.id
	UserID      uint64    // todos.user_id
	ListID      *uint64   // todos.list_id (nullable)
	Title       string    // todos.title
	Description string    // todos.description
	Completed   bool      // todos.completed
	CreatedAt   time.Time // todos.created_at
	UpdatedAt   time.Time // todos.updated_at
}

// Document represents a file attached to a todo as stored in the
// `documents` table. The blob itself lives in the attachment store
// under StorageKey; the row only records metadata. Deleting a todo
// deletes its document rows and, best effort, their blobs.
type Document struct {
	ID           uint64    // documents.id
	TodoID       uint64    // documents.todo_id
	OriginalName string    // documents.original_name (name at upload time)
	StorageKey   string    // documents.storage_key (opaque blob key)
	CreatedAt    time.Time // documents.created_at
}
