package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/access"
	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/queue"
	"github.com/iliyamo/todo-share/internal/repository"
)

// fakeListStore and fakeUserStore satisfy the handler's store
// interfaces without a database. fakeListStore doubles as the
// evaluator's list source.
type fakeListStore struct {
	lists   map[uint64]*model.List
	members map[uint64]map[uint64]string // listID -> userID -> role
	nextID  uint64
}

func (f *fakeListStore) Create(_ context.Context, l *model.List) error {
	f.nextID++
	l.ID = f.nextID
	f.lists[l.ID] = l
	return nil
}

func (f *fakeListStore) GetByID(_ context.Context, id uint64) (*model.List, error) {
	l, ok := f.lists[id]
	if !ok {
		return nil, repository.ErrListNotFound
	}
	return l, nil
}

func (f *fakeListStore) ListForUser(_ context.Context, _ uint64) ([]*repository.ListWithRole, error) {
	return nil, nil
}

func (f *fakeListStore) GetMemberRole(_ context.Context, listID, userID uint64) (string, error) {
	role, ok := f.members[listID][userID]
	if !ok {
		return "", repository.ErrMemberNotFound
	}
	return role, nil
}

func (f *fakeListStore) ListMembers(_ context.Context, listID uint64) ([]*model.Member, error) {
	var out []*model.Member
	for uid, role := range f.members[listID] {
		out = append(out, &model.Member{ListID: listID, UserID: uid, Role: role})
	}
	return out, nil
}

func (f *fakeListStore) UpsertMember(_ context.Context, listID, userID uint64, role string) error {
	if f.members[listID] == nil {
		f.members[listID] = map[uint64]string{}
	}
	f.members[listID][userID] = role
	return nil
}

func (f *fakeListStore) RemoveMember(_ context.Context, listID, userID uint64) error {
	if _, ok := f.members[listID][userID]; !ok {
		return repository.ErrMemberNotFound
	}
	delete(f.members[listID], userID)
	return nil
}

func (f *fakeListStore) UpdateName(_ context.Context, id, ownerID uint64, name string) error {
	l, ok := f.lists[id]
	if !ok || l.OwnerID != ownerID {
		return sql.ErrNoRows
	}
	l.Name = name
	return nil
}

func (f *fakeListStore) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	l, ok := f.lists[id]
	if !ok {
		return sql.ErrNoRows
	}
	if l.OwnerID != ownerID {
		return repository.ErrForbidden
	}
	delete(f.lists, id)
	delete(f.members, id)
	return nil
}

type fakeUserStore struct {
	users map[uint64]model.User
}

func (f *fakeUserStore) Create(_ context.Context, _, _ string, _ int) (uint64, error) {
	return 0, repository.ErrConflict
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeTodoSource struct{}

func (fakeTodoSource) GetByID(_ context.Context, _ uint64) (*model.Todo, error) {
	return nil, repository.ErrTodoNotFound
}

const (
	ownerID    = uint64(1) // owns list 10
	viewerID   = uint64(2) // viewer on list 10
	editorID   = uint64(3) // editor on list 10
	outsiderID = uint64(4) // registered, no relation to list 10
)

func newMemberFixture() (*ListHandler, *fakeListStore) {
	lists := &fakeListStore{
		lists: map[uint64]*model.List{
			10: {ID: 10, OwnerID: ownerID, Name: "Groceries"},
		},
		members: map[uint64]map[uint64]string{
			10: {viewerID: "viewer", editorID: "editor"},
		},
		nextID: 10,
	}
	users := &fakeUserStore{users: map[uint64]model.User{
		ownerID:    {ID: ownerID, Email: "owner@example.com"},
		viewerID:   {ID: viewerID, Email: "viewer@example.com"},
		editorID:   {ID: editorID, Email: "editor@example.com"},
		outsiderID: {ID: outsiderID, Email: "outsider@example.com"},
	}}
	h := NewListHandler(lists, users, access.NewEvaluator(lists, fakeTodoSource{}))
	// No broker in tests.
	h.Publish = func(context.Context, queue.MemberInvitedEvent) error { return nil }
	return h, lists
}

// call invokes a handler with a JSON body, an authenticated user and
// path parameters, and returns the recorded response.
func call(t *testing.T, fn echo.HandlerFunc, uid uint64, body string, names, values []string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	c.Set("email", "actor@example.com")
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := fn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestInviteTwiceKeepsOneRowWithLatestRole(t *testing.T) {
	h, lists := newMemberFixture()

	rec := call(t, h.InviteMember, ownerID,
		`{"email":"outsider@example.com","role":"editor"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first invite status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = call(t, h.InviteMember, ownerID,
		`{"email":"outsider@example.com","role":"viewer"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second invite status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rows := 0
	for range lists.members[10] {
		rows++
	}
	if rows != 3 { // viewer, editor, outsider
		t.Errorf("membership rows = %d, want 3", rows)
	}
	if got := lists.members[10][outsiderID]; got != "viewer" {
		t.Errorf("role after re-invite = %q, want %q", got, "viewer")
	}
}

func TestInviteCoercesUnknownRoleToEditor(t *testing.T) {
	h, lists := newMemberFixture()

	rec := call(t, h.InviteMember, ownerID,
		`{"email":"outsider@example.com","role":"admin"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := lists.members[10][outsiderID]; got != "editor" {
		t.Errorf("coerced role = %q, want %q", got, "editor")
	}
}

func TestInviteRejectsSelfAndOwner(t *testing.T) {
	h, _ := newMemberFixture()

	rec := call(t, h.InviteMember, editorID,
		`{"email":"editor@example.com"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self invite status = %d, want 400", rec.Code)
	}
	rec = call(t, h.InviteMember, editorID,
		`{"email":"owner@example.com"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("owner invite status = %d, want 400", rec.Code)
	}
}

func TestInviteUnknownEmail(t *testing.T) {
	h, _ := newMemberFixture()

	rec := call(t, h.InviteMember, ownerID,
		`{"email":"nobody@example.com"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestInviteDeniedByRole(t *testing.T) {
	h, _ := newMemberFixture()

	// A viewer can see the list, so the denial is an explicit 403.
	rec := call(t, h.InviteMember, viewerID,
		`{"email":"outsider@example.com"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer invite status = %d, want 403", rec.Code)
	}
	// A stranger cannot even learn the list exists.
	rec = call(t, h.InviteMember, outsiderID,
		`{"email":"viewer@example.com"}`, []string{"id"}, []string{"10"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger invite status = %d, want 404", rec.Code)
	}
}

func TestRemoveOwnerAlwaysRejected(t *testing.T) {
	h, lists := newMemberFixture()

	for _, actor := range []uint64{ownerID, editorID, viewerID} {
		rec := call(t, h.RemoveMember, actor, "",
			[]string{"id", "user_id"}, []string{"10", "1"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("actor %d removing owner: status = %d, want 400", actor, rec.Code)
		}
	}
	if lists.lists[10].OwnerID != ownerID {
		t.Error("owner changed by rejected removal")
	}
}

func TestViewerCanLeaveButNotRemoveOthers(t *testing.T) {
	h, lists := newMemberFixture()

	rec := call(t, h.RemoveMember, viewerID, "",
		[]string{"id", "user_id"}, []string{"10", "3"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer removing editor: status = %d, want 403", rec.Code)
	}
	rec = call(t, h.RemoveMember, viewerID, "",
		[]string{"id", "user_id"}, []string{"10", "2"})
	if rec.Code != http.StatusOK {
		t.Errorf("viewer leaving: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, still := lists.members[10][viewerID]; still {
		t.Error("membership row survived self-removal")
	}
}

func TestEditorCanRemoveMember(t *testing.T) {
	h, lists := newMemberFixture()

	rec := call(t, h.RemoveMember, editorID, "",
		[]string{"id", "user_id"}, []string{"10", "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, still := lists.members[10][viewerID]; still {
		t.Error("membership row survived removal")
	}
}
