// Package access centralizes every permission decision for lists and
// todos. Handlers never branch on roles themselves: they ask the
// Evaluator and act on the answer, so owner/member/role logic exists
// in exactly one place. The evaluator holds no state of its own; it
// is a pure function of registry contents at call time, re-evaluated
// on every request so membership changes take effect immediately.
package access

import (
	"context"
	"errors"

	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/repository"
)

// Role is the caller's relation to a list. The zero value RoleNone
// means no relation at all. Exactly one role applies per (user,
// list) pair: the owner is never also a member, and member rows
// carry either "editor" or "viewer".
type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ListAccess is the result of a list access check. Role is RoleNone
// when the caller has no relation to the list or the list does not
// exist; the two cases are indistinguishable on purpose so callers
// cannot leak existence.
type ListAccess struct {
	CanView bool
	CanEdit bool
	Role    Role
}

// ListSource is the slice of the list repository the evaluator
// needs. *repository.ListRepo satisfies it.
type ListSource interface {
	GetByID(ctx context.Context, id uint64) (*model.List, error)
	GetMemberRole(ctx context.Context, listID, userID uint64) (string, error)
}

// TodoSource is the slice of the todo repository the evaluator
// needs. *repository.TodoRepo satisfies it.
type TodoSource interface {
	GetByID(ctx context.Context, id uint64) (*model.Todo, error)
}

// Evaluator answers the three access queries. It is safe for
// concurrent use; all state lives in the backing store.
type Evaluator struct {
	lists ListSource
	todos TodoSource
}

// NewEvaluator constructs an Evaluator over the given sources.
func NewEvaluator(lists ListSource, todos TodoSource) *Evaluator {
	if lists == nil || todos == nil {
		panic("nil source passed to access.NewEvaluator")
	}
	return &Evaluator{lists: lists, todos: todos}
}

// Derive maps loaded list state to an access tuple without touching
// the store. memberRole is the caller's membership role, or "" when
// no membership row exists. Owner always wins: a stale membership
// row for the owner would still yield full access.
func Derive(listOwnerID, userID uint64, memberRole string) ListAccess {
	if listOwnerID == userID {
		return ListAccess{CanView: true, CanEdit: true, Role: RoleOwner}
	}
	switch memberRole {
	case string(RoleEditor):
		return ListAccess{CanView: true, CanEdit: true, Role: RoleEditor}
	case string(RoleViewer):
		return ListAccess{CanView: true, CanEdit: false, Role: RoleViewer}
	}
	return ListAccess{}
}

// ForList computes the caller's access to a list. A missing list
// yields the zero ListAccess and no error.
func (e *Evaluator) ForList(ctx context.Context, userID, listID uint64) (ListAccess, error) {
	l, err := e.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			return ListAccess{}, nil
		}
		return ListAccess{}, err
	}
	if l.OwnerID == userID {
		return Derive(l.OwnerID, userID, ""), nil
	}
	role, err := e.lists.GetMemberRole(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ListAccess{}, nil
		}
		return ListAccess{}, err
	}
	return Derive(l.OwnerID, userID, role), nil
}

// ForTodo computes view/edit rights for an already-loaded todo. The
// todo's creator has full access regardless of list; otherwise the
// rights are exactly the caller's rights on the todo's list, and a
// personal todo (nil list) grants nothing to anyone else.
func (e *Evaluator) ForTodo(ctx context.Context, userID uint64, t *model.Todo) (canView, canEdit bool, err error) {
	if t == nil {
		return false, false, nil
	}
	if t.UserID == userID {
		return true, true, nil
	}
	if t.ListID == nil {
		return false, false, nil
	}
	la, err := e.ForList(ctx, userID, *t.ListID)
	if err != nil {
		return false, false, err
	}
	return la.CanView, la.CanEdit, nil
}

// CanViewTodo reports whether the user may read the todo with the
// given id. A missing todo is simply not viewable.
func (e *Evaluator) CanViewTodo(ctx context.Context, userID, todoID uint64) (bool, error) {
	t, err := e.loadTodo(ctx, todoID)
	if err != nil {
		return false, err
	}
	view, _, err := e.ForTodo(ctx, userID, t)
	return view, err
}

// CanEditTodo reports whether the user may mutate the todo with the
// given id.
func (e *Evaluator) CanEditTodo(ctx context.Context, userID, todoID uint64) (bool, error) {
	t, err := e.loadTodo(ctx, todoID)
	if err != nil {
		return false, err
	}
	_, edit, err := e.ForTodo(ctx, userID, t)
	return edit, err
}

func (e *Evaluator) loadTodo(ctx context.Context, todoID uint64) (*model.Todo, error) {
	t, err := e.todos.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// RowFlags derives the informational is_owner/can_edit hints for a
// listed todo row from the join columns the todo repository already
// fetched. The hints mirror ForTodo; they are for client UI only and
// every mutation path still goes through the evaluator.
func RowFlags(todoOwnerID uint64, listOwnerID *uint64, memberRole *string, userID uint64) (isOwner, canEdit bool) {
	isOwner = todoOwnerID == userID
	if isOwner {
		return true, true
	}
	if listOwnerID == nil {
		return false, false
	}
	role := ""
	if memberRole != nil {
		role = *memberRole
	}
	return false, Derive(*listOwnerID, userID, role).CanEdit
}
