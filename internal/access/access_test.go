package access

import (
	"context"
	"testing"

	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/repository"
)

// fakeLists and fakeTodos satisfy the evaluator's source interfaces
// without a database.
type fakeLists struct {
	lists   map[uint64]*model.List
	members map[uint64]map[uint64]string // listID -> userID -> role
}

func (f *fakeLists) GetByID(_ context.Context, id uint64) (*model.List, error) {
	l, ok := f.lists[id]
	if !ok {
		return nil, repository.ErrListNotFound
	}
	return l, nil
}

func (f *fakeLists) GetMemberRole(_ context.Context, listID, userID uint64) (string, error) {
	role, ok := f.members[listID][userID]
	if !ok {
		return "", repository.ErrMemberNotFound
	}
	return role, nil
}

type fakeTodos struct {
	todos map[uint64]*model.Todo
}

func (f *fakeTodos) GetByID(_ context.Context, id uint64) (*model.Todo, error) {
	t, ok := f.todos[id]
	if !ok {
		return nil, repository.ErrTodoNotFound
	}
	return t, nil
}

const (
	alice   = uint64(1) // owns list 10
	bob     = uint64(2) // viewer on list 10
	carol   = uint64(3) // editor on list 10
	mallory = uint64(4) // no relation to anything
)

func listID(v uint64) *uint64 { return &v }

func newFixture() (*Evaluator, *fakeLists, *fakeTodos) {
	lists := &fakeLists{
		lists: map[uint64]*model.List{
			10: {ID: 10, OwnerID: alice, Name: "Work"},
		},
		members: map[uint64]map[uint64]string{
			10: {bob: "viewer", carol: "editor"},
		},
	}
	todos := &fakeTodos{
		todos: map[uint64]*model.Todo{
			// personal todo of alice
			100: {ID: 100, UserID: alice},
			// carol's todo inside the shared list
			101: {ID: 101, UserID: carol, ListID: listID(10)},
		},
	}
	return NewEvaluator(lists, todos), lists, todos
}

func TestForListRoles(t *testing.T) {
	e, _, _ := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		user uint64
		want ListAccess
	}{
		{"owner", alice, ListAccess{CanView: true, CanEdit: true, Role: RoleOwner}},
		{"viewer", bob, ListAccess{CanView: true, CanEdit: false, Role: RoleViewer}},
		{"editor", carol, ListAccess{CanView: true, CanEdit: true, Role: RoleEditor}},
		{"stranger", mallory, ListAccess{}},
	}
	for _, tc := range cases {
		got, err := e.ForList(ctx, tc.user, 10)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestForListMissingList(t *testing.T) {
	e, _, _ := newFixture()
	got, err := e.ForList(context.Background(), alice, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (ListAccess{}) {
		t.Errorf("missing list must yield zero access, got %+v", got)
	}
}

func TestOwnerBypassBeatsStaleMembershipRow(t *testing.T) {
	e, lists, _ := newFixture()
	// A leftover viewer row for the owner must not demote them.
	lists.members[10][alice] = "viewer"
	got, err := e.ForList(context.Background(), alice, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RoleOwner || !got.CanEdit {
		t.Errorf("owner demoted by membership row: %+v", got)
	}
}

func TestPersonalTodoOnlyCreator(t *testing.T) {
	e, _, _ := newFixture()
	ctx := context.Background()

	for _, user := range []uint64{bob, carol, mallory} {
		view, err := e.CanViewTodo(ctx, user, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view {
			t.Errorf("user %d can view a personal todo they did not create", user)
		}
	}
	view, err := e.CanViewTodo(ctx, alice, 100)
	if err != nil || !view {
		t.Fatalf("creator denied their own personal todo (view=%v err=%v)", view, err)
	}
}

func TestListTodoAccessByRole(t *testing.T) {
	e, _, _ := newFixture()
	ctx := context.Background()

	// alice owns the list but not the todo: full access via list.
	if edit, err := e.CanEditTodo(ctx, alice, 101); err != nil || !edit {
		t.Fatalf("list owner cannot edit todo in own list (edit=%v err=%v)", edit, err)
	}
	// bob is a viewer: view yes, edit no.
	if view, err := e.CanViewTodo(ctx, bob, 101); err != nil || !view {
		t.Fatalf("viewer cannot view list todo (view=%v err=%v)", view, err)
	}
	if edit, err := e.CanEditTodo(ctx, bob, 101); err != nil || edit {
		t.Fatalf("viewer can edit list todo (edit=%v err=%v)", edit, err)
	}
	// carol created the todo: full access regardless of role.
	if edit, err := e.CanEditTodo(ctx, carol, 101); err != nil || !edit {
		t.Fatalf("creator cannot edit own todo (edit=%v err=%v)", edit, err)
	}
	// mallory has no relation to the list at all.
	if view, err := e.CanViewTodo(ctx, mallory, 101); err != nil || view {
		t.Fatalf("stranger can view list todo (view=%v err=%v)", view, err)
	}
}

func TestMissingTodoIsNotViewable(t *testing.T) {
	e, _, _ := newFixture()
	view, err := e.CanViewTodo(context.Background(), alice, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view {
		t.Error("missing todo reported viewable")
	}
}

func TestTodoLosesListAccessAfterUnlink(t *testing.T) {
	e, _, todos := newFixture()
	ctx := context.Background()

	// Simulate list deletion: the todo survives but is unlinked.
	todos.todos[101].ListID = nil
	if view, err := e.CanViewTodo(ctx, bob, 101); err != nil || view {
		t.Fatalf("former list member still sees unlinked todo (view=%v err=%v)", view, err)
	}
	// The creator keeps full access.
	if edit, err := e.CanEditTodo(ctx, carol, 101); err != nil || !edit {
		t.Fatalf("creator lost access after unlink (edit=%v err=%v)", edit, err)
	}
}

func TestDerive(t *testing.T) {
	cases := []struct {
		name     string
		owner    uint64
		user     uint64
		role     string
		wantRole Role
		wantEdit bool
	}{
		{"owner", 1, 1, "", RoleOwner, true},
		{"editor", 1, 2, "editor", RoleEditor, true},
		{"viewer", 1, 2, "viewer", RoleViewer, false},
		{"none", 1, 2, "", RoleNone, false},
		{"unknown role", 1, 2, "admin", RoleNone, false},
	}
	for _, tc := range cases {
		got := Derive(tc.owner, tc.user, tc.role)
		if got.Role != tc.wantRole || got.CanEdit != tc.wantEdit {
			t.Errorf("%s: got %+v", tc.name, got)
		}
		if got.CanEdit && !got.CanView {
			t.Errorf("%s: edit without view", tc.name)
		}
	}
}

func TestRowFlags(t *testing.T) {
	owner := uint64(1)
	editor := "editor"
	viewer := "viewer"

	// Creator always owns the row even inside a list.
	if isOwner, canEdit := RowFlags(carol, &owner, &editor, carol); !isOwner || !canEdit {
		t.Errorf("creator flags wrong: is_owner=%v can_edit=%v", isOwner, canEdit)
	}
	// List owner edits rows they did not create.
	if isOwner, canEdit := RowFlags(carol, &owner, nil, owner); isOwner || !canEdit {
		t.Errorf("list owner flags wrong: is_owner=%v can_edit=%v", isOwner, canEdit)
	}
	// Viewer sees the row but cannot edit it.
	if isOwner, canEdit := RowFlags(carol, &owner, &viewer, bob); isOwner || canEdit {
		t.Errorf("viewer flags wrong: is_owner=%v can_edit=%v", isOwner, canEdit)
	}
	// Personal rows grant nothing to non-creators.
	if isOwner, canEdit := RowFlags(alice, nil, nil, bob); isOwner || canEdit {
		t.Errorf("personal row flags wrong: is_owner=%v can_edit=%v", isOwner, canEdit)
	}
}
