package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/access"
	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/repository"
	"github.com/iliyamo/todo-share/internal/storage"
)

const defaultTodoTitle = "Untitled"

// TodoHandler bundles the dependencies for todo and document
// endpoints. Every read or write of a specific todo is gated by the
// access evaluator first; the informational is_owner/can_edit flags
// on listings never substitute for that gate.
type TodoHandler struct {
	Todos  *repository.TodoRepo
	Docs   *repository.DocumentRepo
	Access *access.Evaluator
	Store  *storage.Store
}

// NewTodoHandler constructs a TodoHandler and panics on nil
// dependencies.
func NewTodoHandler(todos *repository.TodoRepo, docs *repository.DocumentRepo, ev *access.Evaluator, store *storage.Store) *TodoHandler {
	if todos == nil || docs == nil || ev == nil || store == nil {
		panic("nil dependency passed to NewTodoHandler")
	}
	return &TodoHandler{Todos: todos, Docs: docs, Access: ev, Store: store}
}

type todoResp struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	ListID      *uint64   `json:"list_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type todoItemResp struct {
	todoResp
	ListName      *string `json:"list_name"`
	DocumentCount int     `json:"document_count"`
	IsOwner       bool    `json:"is_owner"`
	CanEdit       bool    `json:"can_edit"`
}

type documentResp struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type todoDetailResp struct {
	todoResp
	Documents []documentResp `json:"documents"`
}

func toTodoResp(t *model.Todo) todoResp {
	return todoResp{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		ListID:      t.ListID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ListTodos handles GET /v1/todos: every todo the caller owns plus
// every todo in a list they can view, annotated with per-row hints.
func (h *TodoHandler) ListTodos(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Todos.ListVisible(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]todoItemResp, 0, len(items))
	for _, it := range items {
		isOwner, canEdit := access.RowFlags(it.UserID, it.ListOwnerID, it.MemberRole, uid)
		out = append(out, todoItemResp{
			todoResp:      toTodoResp(&it.Todo),
			ListName:      it.ListName,
			DocumentCount: it.DocumentCount,
			IsOwner:       isOwner,
			CanEdit:       canEdit,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateTodo handles POST /v1/todos. Creating into a list requires
// edit rights on that list; a denied or unknown list is the same
// 404. The creator owns the todo no matter which list it lands in.
func (h *TodoHandler) CreateTodo(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		ListID      *uint64 `json:"list_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	if body.ListID != nil {
		acc, err := h.Access.ForList(ctx, uid, *body.ListID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !acc.CanEdit {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
		}
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		title = defaultTodoTitle
	}
	t := &model.Todo{
		UserID:      uid,
		ListID:      body.ListID,
		Title:       title,
		Description: body.Description,
	}
	if err := h.Todos.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create todo"})
	}
	return c.JSON(http.StatusCreated, toTodoResp(t))
}

// GetTodo handles GET /v1/todos/:id and returns the todo with its
// documents.
func (h *TodoHandler) GetTodo(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForView(c, uid)
	if t == nil {
		return status
	}
	docs, err := h.Docs.ListByTodo(c.Request().Context(), t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	resp := todoDetailResp{todoResp: toTodoResp(t), Documents: make([]documentResp, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, documentResp{ID: d.ID, OriginalName: d.OriginalName, CreatedAt: d.CreatedAt})
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateTodo handles PUT /v1/todos/:id. The patch is partial:
// omitted fields keep their stored values, including the completed
// flag.
func (h *TodoHandler) UpdateTodo(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForEdit(c, uid)
	if t == nil {
		return status
	}
	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Completed   *bool   `json:"completed"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title != nil {
		trimmed := strings.TrimSpace(*body.Title)
		if trimmed == "" {
			trimmed = defaultTodoTitle
		}
		body.Title = &trimmed
	}
	ctx := c.Request().Context()
	if err := h.Todos.Update(ctx, t.ID, body.Title, body.Description, body.Completed); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Todos.GetByID(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toTodoResp(updated))
}

// DeleteTodo handles DELETE /v1/todos/:id. Document rows go down
// with the todo inside one transaction; blob removal happens after
// commit and is best effort.
func (h *TodoHandler) DeleteTodo(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForEdit(c, uid)
	if t == nil {
		return status
	}
	keys, err := h.Todos.DeleteCascade(c.Request().Context(), t.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	for _, key := range keys {
		if err := h.Store.Delete(key); err != nil {
			log.Printf("blob delete failed for key %s: %v", key, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "todo deleted"})
}

// loadTodoForView resolves the :id parameter and gates it on view
// access. On failure it returns nil and the already-written error
// response; absence and denial are the same 404.
func (h *TodoHandler) loadTodoForView(c echo.Context, uid uint64) (*model.Todo, error) {
	return h.loadTodo(c, uid, false)
}

// loadTodoForEdit is loadTodoForView with the edit gate.
func (h *TodoHandler) loadTodoForEdit(c echo.Context, uid uint64) (*model.Todo, error) {
	return h.loadTodo(c, uid, true)
}

func (h *TodoHandler) loadTodo(c echo.Context, uid uint64, needEdit bool) (*model.Todo, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	t, err := h.Todos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	canView, canEdit, err := h.Access.ForTodo(ctx, uid, t)
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !canView || (needEdit && !canEdit) {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "todo not found"})
	}
	return t, nil
}
