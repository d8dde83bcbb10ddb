package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/todo-share/internal/model"
)

// ErrDocumentNotFound is returned when a document lookup fails.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepo persists document metadata rows. The referenced blobs
// live in the attachment store under model.Document.StorageKey.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo constructs a DocumentRepo with the given DB handle.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a document row for a todo and re-reads it so the
// creation timestamp comes back populated.
func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	const qInsert = `INSERT INTO documents (todo_id, original_name, storage_key) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, d.TodoID, d.OriginalName, d.StorageKey)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)

	const qSelect = `SELECT todo_id, original_name, storage_key, created_at FROM documents WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, d.ID).
		Scan(&d.TodoID, &d.OriginalName, &d.StorageKey, &d.CreatedAt)
}

// GetByIDAndTodo fetches a document only when it belongs to the
// given todo, so a document id cannot be reached through a foreign
// todo path.
func (r *DocumentRepo) GetByIDAndTodo(ctx context.Context, id, todoID uint64) (*model.Document, error) {
	const q = `SELECT id, todo_id, original_name, storage_key, created_at
	           FROM documents WHERE id = ? AND todo_id = ?`
	var d model.Document
	err := r.db.QueryRowContext(ctx, q, id, todoID).
		Scan(&d.ID, &d.TodoID, &d.OriginalName, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByTodo returns all documents attached to a todo ordered by id.
func (r *DocumentRepo) ListByTodo(ctx context.Context, todoID uint64) ([]*model.Document, error) {
	const q = `SELECT id, todo_id, original_name, storage_key, created_at
	           FROM documents WHERE todo_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, todoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Document{}
	for rows.Next() {
		d := new(model.Document)
		if err := rows.Scan(&d.ID, &d.TodoID, &d.OriginalName, &d.StorageKey, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document row scoped to its todo. Returns
// ErrDocumentNotFound when nothing was deleted.
func (r *DocumentRepo) Delete(ctx context.Context, id, todoID uint64) error {
	const q = `DELETE FROM documents WHERE id = ? AND todo_id = ?`
	res, err := r.db.ExecContext(ctx, q, id, todoID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
