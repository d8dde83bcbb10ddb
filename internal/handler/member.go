package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/access"
	"github.com/iliyamo/todo-share/internal/queue"
	"github.com/iliyamo/todo-share/internal/repository"
)

// Membership management is the one place 403 is allowed: whoever
// reaches these endpoints has already proven at least view access,
// so distinguishing "not enough role" from "no such list" leaks
// nothing new.

// InviteMember handles POST /v1/lists/:id/members. Owners and
// editors may invite; the target is addressed by email and must be a
// registered user. Repeating an invite updates the role in place
// via the repository upsert.
func (h *ListHandler) InviteMember(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	acc, err := h.Access.ForList(ctx, uid, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !acc.CanView {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}
	if !acc.CanEdit {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only owners and editors can invite members"})
	}

	email := repository.NormalizeEmail(body.Email)
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	// Anything but an explicit "viewer" invites as editor.
	role := string(access.RoleEditor)
	if body.Role == string(access.RoleViewer) {
		role = string(access.RoleViewer)
	}

	target, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user found with that email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if target.ID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot add yourself"})
	}
	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if target.ID == l.OwnerID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner is already in the list"})
	}

	if err := h.Lists.UpsertMember(ctx, id, target.ID, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite failed"})
	}

	// Notify out of band; a failed publish never fails the invite.
	actorEmail, _ := c.Get("email").(string)
	go func(ev queue.MemberInvitedEvent) {
		if h.Publish == nil {
			return
		}
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Publish(pubCtx, ev); err != nil {
			log.Printf("invite event publish failed: %v", err)
		}
	}(queue.MemberInvitedEvent{
		ListID:      l.ID,
		ListName:    l.Name,
		ActorID:     uid,
		ActorEmail:  actorEmail,
		MemberID:    target.ID,
		MemberEmail: target.Email,
		Role:        role,
		InvitedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, memberResp{UserID: target.ID, Email: target.Email, Role: role})
}

// RemoveMember handles DELETE /v1/lists/:id/members/:user_id.
// Leaving a list (removing yourself) is always allowed while a
// membership exists, even for viewers. Removing someone else needs
// edit rights. The owner can never be removed through this endpoint,
// not even by themselves.
func (h *ListHandler) RemoveMember(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	target, err := pathID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
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
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if target == l.OwnerID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot remove the list owner"})
	}

	if target == uid {
		// Self-removal: no role check beyond the membership existing.
		if err := h.Lists.RemoveMember(ctx, id, uid); err != nil {
			if errors.Is(err, repository.ErrMemberNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "left the list"})
	}

	if !acc.CanEdit {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only owners and editors can remove members"})
	}
	if err := h.Lists.RemoveMember(ctx, id, target); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}
