package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/model"
	"github.com/iliyamo/todo-share/internal/repository"
	"github.com/iliyamo/todo-share/internal/storage"
)

// UploadDocument handles POST /v1/todos/:id/documents. The multipart
// "file" part is streamed into the attachment store under a
// generated key, then the metadata row is inserted. Uploading
// requires edit rights on the todo.
func (h *TodoHandler) UploadDocument(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForEdit(c, uid)
	if t == nil {
		return status
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file uploaded"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	// Clients may send a full path as the filename; only the base
	// name is ever stored.
	originalName := filepath.Base(fh.Filename)
	key := storage.NewKey(originalName)
	if err := h.Store.Save(key, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store file"})
	}

	d := &model.Document{TodoID: t.ID, OriginalName: originalName, StorageKey: key}
	if err := h.Docs.Create(c.Request().Context(), d); err != nil {
		// The row failed, so the blob is an orphan; clean it up.
		if delErr := h.Store.Delete(key); delErr != nil {
			log.Printf("orphan blob cleanup failed for key %s: %v", key, delErr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save document"})
	}
	return c.JSON(http.StatusCreated, documentResp{ID: d.ID, OriginalName: d.OriginalName, CreatedAt: d.CreatedAt})
}

// DownloadDocument handles GET /v1/todos/:id/documents/:doc_id.
// Viewers may download, not just editors, so the gate is todoView.
// The response carries the original filename.
func (h *TodoHandler) DownloadDocument(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForView(c, uid)
	if t == nil {
		return status
	}
	docID, err := pathID(c, "doc_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}
	ctx := c.Request().Context()
	d, err := h.Docs.GetByIDAndTodo(ctx, docID, t.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// Probe the blob first so a missing file is a clean 404 instead
	// of a broken download.
	rc, err := h.Store.Open(d.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read file"})
	}
	rc.Close()
	return c.Attachment(h.Store.Path(d.StorageKey), d.OriginalName)
}

// DeleteDocument handles DELETE /v1/todos/:id/documents/:doc_id.
// The registry row is removed first; blob removal is best effort so
// a flaky disk never strands the metadata.
func (h *TodoHandler) DeleteDocument(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, status := h.loadTodoForEdit(c, uid)
	if t == nil {
		return status
	}
	docID, err := pathID(c, "doc_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document id"})
	}
	ctx := c.Request().Context()
	d, err := h.Docs.GetByIDAndTodo(ctx, docID, t.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Docs.Delete(ctx, d.ID, t.ID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Store.Delete(d.StorageKey); err != nil {
		log.Printf("blob delete failed for key %s: %v", d.StorageKey, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "document deleted"})
}
