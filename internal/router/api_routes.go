package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/handler"
	"github.com/iliyamo/todo-share/internal/middleware"
)

// RegisterAPI registers the list, membership, todo and document
// endpoints under /v1. All routes require a valid JWT; per-list
// roles are evaluated inside the handlers on every request, so no
// role middleware appears here.
func RegisterAPI(e *echo.Echo, lists *handler.ListHandler, todos *handler.TodoHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.Use(middleware.JWTAuth(jwtSecret))

	// ---- Lists ----
	g.GET("/lists", lists.GetLists)
	g.POST("/lists", lists.CreateList)
	g.GET("/lists/:id", lists.GetList)
	g.PATCH("/lists/:id", lists.RenameList)
	g.DELETE("/lists/:id", lists.DeleteList)

	// ---- Membership ----
	g.POST("/lists/:id/members", lists.InviteMember)
	g.DELETE("/lists/:id/members/:user_id", lists.RemoveMember)

	// ---- Todos ----
	g.GET("/todos", todos.ListTodos)
	g.POST("/todos", todos.CreateTodo)
	g.GET("/todos/:id", todos.GetTodo)
	g.PUT("/todos/:id", todos.UpdateTodo)
	g.DELETE("/todos/:id", todos.DeleteTodo)

	// ---- Documents ----
	g.POST("/todos/:id/documents", todos.UploadDocument)
	g.GET("/todos/:id/documents/:doc_id", todos.DownloadDocument)
	g.DELETE("/todos/:id/documents/:doc_id", todos.DeleteDocument)
}
