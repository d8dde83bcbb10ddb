// Package repository contains data access logic separated from HTTP
// handlers. This file defines repository methods for lists and their
// membership rows. A list belongs to exactly one owner; other users
// are attached through list_members with a role of "editor" or
// "viewer". All access decisions are made in internal/access on top
// of the lookups exposed here.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/todo-share/internal/model"
)

// ErrListNotFound is returned when a list cannot be found in the DB.
var ErrListNotFound = errors.New("list not found")

// ErrMemberNotFound is returned when a membership row is absent.
var ErrMemberNotFound = errors.New("member not found")

// ListWithRole is a list row annotated with the requesting user's
// effective role. The role is computed per caller and never stored.
type ListWithRole struct {
	model.List
	MyRole string // "owner", "editor" or "viewer"
}

// ListRepo encapsulates all database queries related to lists and
// list memberships. It depends on a sql.DB connection configured at
// startup.
type ListRepo struct {
	db *sql.DB
}

// NewListRepo constructs a ListRepo with the provided DB handle.
func NewListRepo(db *sql.DB) *ListRepo {
	return &ListRepo{db: db}
}

// Create inserts a new list. On success the ID field is populated
// with the auto-generated value and a follow-up SELECT fills in the
// timestamp columns so callers receive a fully populated record.
func (r *ListRepo) Create(ctx context.Context, l *model.List) error {
	const qInsert = "INSERT INTO lists (owner_id, name) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, l.OwnerID, l.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)

	const qSelect = "SELECT owner_id, name, created_at, updated_at FROM lists WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, l.ID).
		Scan(&l.OwnerID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID fetches a list by its ID regardless of the caller. It
// returns ErrListNotFound if no row is found. Access checks happen
// above this layer so that absence and denial can be reported
// identically.
func (r *ListRepo) GetByID(ctx context.Context, id uint64) (*model.List, error) {
	const q = "SELECT id, owner_id, name, created_at, updated_at FROM lists WHERE id = ?"
	var l model.List
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListForUser returns the union of lists the user owns and lists
// where the user holds a membership, each annotated with the
// caller's role. Owner and member are mutually exclusive per list,
// so the two queries never overlap.
func (r *ListRepo) ListForUser(ctx context.Context, userID uint64) ([]*ListWithRole, error) {
	const qOwned = `SELECT id, owner_id, name, created_at, updated_at
	                FROM lists WHERE owner_id = ? ORDER BY name`
	const qMember = `SELECT l.id, l.owner_id, l.name, l.created_at, l.updated_at, m.role
	                 FROM lists l
	                 INNER JOIN list_members m ON m.list_id = l.id AND m.user_id = ?
	                 ORDER BY l.name`

	out := []*ListWithRole{}
	rows, err := r.db.QueryContext(ctx, qOwned, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		lr := &ListWithRole{MyRole: "owner"}
		if err := rows.Scan(&lr.ID, &lr.OwnerID, &lr.Name, &lr.CreatedAt, &lr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := r.db.QueryContext(ctx, qMember, userID)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		lr := &ListWithRole{}
		if err := mrows.Scan(&lr.ID, &lr.OwnerID, &lr.Name, &lr.CreatedAt, &lr.UpdatedAt, &lr.MyRole); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	if err := mrows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMemberRole returns the membership role of a user on a list, or
// ErrMemberNotFound when no row exists. The owner never has a
// membership row; callers resolve ownership from the list itself.
func (r *ListRepo) GetMemberRole(ctx context.Context, listID, userID uint64) (string, error) {
	const q = "SELECT role FROM list_members WHERE list_id = ? AND user_id = ?"
	var role string
	if err := r.db.QueryRowContext(ctx, q, listID, userID).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMemberNotFound
		}
		return "", err
	}
	return role, nil
}

// ListMembers returns every membership row of a list joined with the
// member's email, ordered by email for stable output.
func (r *ListRepo) ListMembers(ctx context.Context, listID uint64) ([]*model.Member, error) {
	const q = `SELECT m.list_id, m.user_id, u.email, m.role
	           FROM list_members m
	           INNER JOIN users u ON u.id = m.user_id
	           WHERE m.list_id = ?
	           ORDER BY u.email`
	rows, err := r.db.QueryContext(ctx, q, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Member{}
	for rows.Next() {
		m := new(model.Member)
		if err := rows.Scan(&m.ListID, &m.UserID, &m.Email, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertMember inserts a membership row or, when the (list, user)
// pair already exists, updates its role in place. The single
// INSERT .. ON DUPLICATE KEY UPDATE keeps concurrent invites of the
// same user from racing into duplicate rows.
func (r *ListRepo) UpsertMember(ctx context.Context, listID, userID uint64, role string) error {
	const q = `INSERT INTO list_members (list_id, user_id, role) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE role = VALUES(role)`
	_, err := r.db.ExecContext(ctx, q, listID, userID, role)
	return err
}

// RemoveMember deletes a membership row. It returns
// ErrMemberNotFound when no row was deleted so callers can tell a
// no-op leave from a successful one.
func (r *ListRepo) RemoveMember(ctx context.Context, listID, userID uint64) error {
	const q = "DELETE FROM list_members WHERE list_id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, q, listID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateName renames a list if it belongs to the provided owner.
// It returns sql.ErrNoRows when no row is affected (not found or not
// owned).
func (r *ListRepo) UpdateName(ctx context.Context, id, ownerID uint64, name string) error {
	const q = `UPDATE lists
	           SET name = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, name, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDAndOwner removes a list provided it belongs to the
// specified owner. The cascade runs inside one transaction so
// concurrent readers never observe a half-deleted list: membership
// rows are removed, todos that referenced the list are unlinked
// (they survive as personal todos, documents intact), and finally
// the list row itself is deleted. If the list does not exist,
// sql.ErrNoRows is returned; if it exists but is owned by a
// different user, ErrForbidden is returned for the caller to mask.
func (r *ListRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var dbOwnerID uint64
	if err = tx.QueryRowContext(ctx, `SELECT owner_id FROM lists WHERE id = ?`, id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	if dbOwnerID != ownerID {
		err = ErrForbidden
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM list_members WHERE list_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE todos SET list_id = NULL WHERE list_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
