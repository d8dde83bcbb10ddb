package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/access"
	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/queue"
	"github.com/iliyamo/todo-share/internal/repository"
	queue_publisher "github.com/iliyamo/todo-share/internal/service"
)

const defaultListName = "Untitled list"

// ListStore is the slice of the list repository the handlers need.
// *repository.ListRepo satisfies it; tests substitute in-memory
// fakes the same way the access package does with its sources.
type ListStore interface {
	Create(ctx context.Context, l *model.List) error
	GetByID(ctx context.Context, id uint64) (*model.List, error)
	ListForUser(ctx context.Context, userID uint64) ([]*repository.ListWithRole, error)
	GetMemberRole(ctx context.Context, listID, userID uint64) (string, error)
	ListMembers(ctx context.Context, listID uint64) ([]*model.Member, error)
	UpsertMember(ctx context.Context, listID, userID uint64, role string) error
	RemoveMember(ctx context.Context, listID, userID uint64) error
	UpdateName(ctx context.Context, id, ownerID uint64, name string) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// ListHandler bundles the dependencies for list and membership
// endpoints. Every operation goes through the access evaluator
// before any state is touched; denied access and missing lists are
// reported identically (404) everywhere except membership
// management, where the caller has already proven view access.
// Publish sends the member-invited event; it is called off the
// request path and a failure never fails the invite.
type ListHandler struct {
	Lists   ListStore
	Users   UserStore
	Access  *access.Evaluator
	Publish func(ctx context.Context, ev queue.MemberInvitedEvent) error
}

// NewListHandler constructs a ListHandler and panics on nil
// dependencies, mirroring how the rest of the wiring fails fast.
func NewListHandler(lists ListStore, users UserStore, ev *access.Evaluator) *ListHandler {
	if lists == nil || users == nil || ev == nil {
		panic("nil dependency passed to NewListHandler")
	}
	return &ListHandler{
		Lists:   lists,
		Users:   users,
		Access:  ev,
		Publish: queue_publisher.PublishMemberInvited,
	}
}

type listResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uint64    `json:"owner_id"`
	MyRole    string    `json:"my_role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type memberResp struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type listDetailResp struct {
	listResp
	OwnerEmail string       `json:"owner_email"`
	Members    []memberResp `json:"members"`
}

func toListResp(l *model.List, role string) listResp {
	return listResp{
		ID:        l.ID,
		Name:      l.Name,
		OwnerID:   l.OwnerID,
		MyRole:    role,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// CreateList handles POST /v1/lists. The creator becomes the owner;
// a blank name falls back to a default rather than failing.
func (h *ListHandler) CreateList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = defaultListName
	}
	l := &model.List{OwnerID: uid, Name: name}
	if err := h.Lists.Create(c.Request().Context(), l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create list"})
	}
	return c.JSON(http.StatusCreated, toListResp(l, string(access.RoleOwner)))
}

// GetLists handles GET /v1/lists and returns the union of owned and
// member lists, each annotated with the caller's role.
func (h *ListHandler) GetLists(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Lists.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]listResp, 0, len(items))
	for _, it := range items {
		out = append(out, toListResp(&it.List, it.MyRole))
	}
	return c.JSON(http.StatusOK, out)
}

// GetList handles GET /v1/lists/:id and returns the list together
// with the owner's email and the full membership set. Missing list
// and denied access are the same 404.
func (h *ListHandler) GetList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	acc, err := h.Access.ForList(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !acc.CanView {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		// The list can vanish between the access check and this read.
		if errors.Is(err, repository.ErrListNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	owner, err := h.Users.GetByID(ctx, l.OwnerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	members, err := h.Lists.ListMembers(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	resp := listDetailResp{
		listResp:   toListResp(l, string(acc.Role)),
		OwnerEmail: owner.Email,
		Members:    make([]memberResp, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberResp{UserID: m.UserID, Email: m.Email, Role: m.Role})
	}
	return c.JSON(http.StatusOK, resp)
}

// RenameList handles PATCH /v1/lists/:id. Renaming is owner-only;
// any non-owner, including editors, gets the same 404 as a stranger
// so the endpoint leaks nothing. A name that trims to empty keeps
// the existing one.
func (h *ListHandler) RenameList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	acc, err := h.Access.ForList(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if acc.Role != access.RoleOwner {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	name := strings.TrimSpace(body.Name)
	if name != "" {
		if err := h.Lists.UpdateName(ctx, id, uid, name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename failed"})
		}
	}
	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toListResp(l, string(access.RoleOwner)))
}

// DeleteList handles DELETE /v1/lists/:id. Owner-only; the cascade
// (membership rows removed, todos unlinked) runs in one transaction
// inside the repository. Non-owners get 404 regardless of their
// role, keeping the response indistinguishable from a missing list.
func (h *ListHandler) DeleteList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Lists.DeleteByIDAndOwner(c.Request().Context(), id, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "list deleted"})
}
