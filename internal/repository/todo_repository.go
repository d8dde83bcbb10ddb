package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/todo-share/internal/model"
)

// ErrTodoNotFound is returned when a todo lookup fails.
var ErrTodoNotFound = errors.New("todo not found")

// TodoSummary is a todo row annotated for listing: how many
// documents hang off it, the name of its list (when any) and the
// list-role context needed to derive the caller's per-row
// is_owner/can_edit hints. ListOwnerID and MemberRole are nil when
// the todo is personal or the caller holds no membership.
type TodoSummary struct {
	model.Todo
	DocumentCount int
	ListName      *string
	ListOwnerID   *uint64
	MemberRole    *string
}

// TodoRepo provides persistence for todos. Visibility is never
// filtered here beyond what the queries express; the access package
// decides what a given caller may see or touch.
type TodoRepo struct {
	db *sql.DB
}

// NewTodoRepo constructs a TodoRepo with the given DB handle.
func NewTodoRepo(db *sql.DB) *TodoRepo {
	return &TodoRepo{db: db}
}

// Create inserts a new todo and re-reads the row so timestamp and
// default columns come back populated.
func (r *TodoRepo) Create(ctx context.Context, t *model.Todo) error {
	const qInsert = `INSERT INTO todos (user_id, list_id, title, description)
	                 VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, t.UserID, t.ListID, t.Title, t.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	const qSelect = `SELECT user_id, list_id, title, description, completed, created_at, updated_at
	                 FROM todos WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, t.ID).
		Scan(&t.UserID, &t.ListID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a todo by its ID regardless of caller. Returns
// ErrTodoNotFound when no row exists.
func (r *TodoRepo) GetByID(ctx context.Context, id uint64) (*model.Todo, error) {
	const q = `SELECT id, user_id, list_id, title, description, completed, created_at, updated_at
	           FROM todos WHERE id = ?`
	var t model.Todo
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.UserID, &t.ListID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListVisible returns every todo the user may see: todos they own
// plus todos whose list they own or are a member of. Each row is
// annotated with its document count, list name and the role context
// the handlers need for per-row permission hints. The visibility
// predicate here mirrors the access package exactly; both must stay
// in sync with the membership model.
func (r *TodoRepo) ListVisible(ctx context.Context, userID uint64) ([]*TodoSummary, error) {
	const q = `SELECT t.id, t.user_id, t.list_id, t.title, t.description, t.completed,
	                  t.created_at, t.updated_at,
	                  (SELECT COUNT(*) FROM documents d WHERE d.todo_id = t.id) AS document_count,
	                  l.name, l.owner_id, m.role
	           FROM todos t
	           LEFT JOIN lists l ON l.id = t.list_id
	           LEFT JOIN list_members m ON m.list_id = t.list_id AND m.user_id = ?
	           WHERE t.user_id = ?
	              OR (t.list_id IS NOT NULL AND (l.owner_id = ? OR m.user_id IS NOT NULL))
	           ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*TodoSummary{}
	for rows.Next() {
		s := new(TodoSummary)
		var (
			listName  sql.NullString
			listOwner sql.NullInt64
			role      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.ListID, &s.Title, &s.Description, &s.Completed,
			&s.CreatedAt, &s.UpdatedAt, &s.DocumentCount, &listName, &listOwner, &role); err != nil {
			return nil, err
		}
		if listName.Valid {
			s.ListName = &listName.String
		}
		if listOwner.Valid {
			v := uint64(listOwner.Int64)
			s.ListOwnerID = &v
		}
		if role.Valid {
			s.MemberRole = &role.String
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial patch: nil fields keep their stored
// value, non-nil fields overwrite it. COALESCE keeps the statement a
// single round trip.
func (r *TodoRepo) Update(ctx context.Context, id uint64, title, description *string, completed *bool) error {
	const q = `UPDATE todos
	           SET title = COALESCE(?, title),
	               description = COALESCE(?, description),
	               completed = COALESCE(?, completed),
	               updated_at = NOW()
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, title, description, completed, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows both for a missing todo and
		// for a patch that matches the stored values; only the former
		// is an error.
		var exists int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM todos WHERE id = ?", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTodoNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteCascade removes a todo together with its document rows in a
// single transaction and returns the orphaned storage keys so the
// caller can delete the blobs afterwards. Blob deletion is
// deliberately outside the transaction: a failed store delete must
// not resurrect registry rows.
func (r *TodoRepo) DeleteCascade(ctx context.Context, id uint64) (keys []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT storage_key FROM documents WHERE todo_id = ?`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE todo_id = ?`, id); err != nil {
		return nil, err
	}
	res, execErr := tx.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if execErr != nil {
		err = execErr
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrTodoNotFound
		return nil, err
	}
	return keys, nil
}
