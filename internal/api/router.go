package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter mounts all API routes. authEnabled controls Bearer token
// enforcement; sseHandler, if non-nil, is mounted at GET /events inside
// the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.WriteNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search and links.
	r.Get("/search", h.Search)
	r.Get("/backlinks", h.Backlinks)

	// Kanban.
	r.Route("/kanban", func(r chi.Router) {
		r.Get("/boards", h.ListBoards)
		r.Post("/boards", h.CreateBoard)
		r.Get("/boards/{id}", h.GetBoard)
		r.Delete("/boards/{id}", h.DeleteBoard)
		r.Post("/boards/{id}/columns", h.AddColumn)
		r.Get("/boards/{id}/cards", h.ListCards)
		r.Post("/boards/{id}/cards", h.CreateCard)
		r.Get("/cards", h.ListAllCards)
		r.Put("/cards/{id}", h.UpdateCard)
		r.Post("/cards/{id}/move", h.MoveCard)
		r.Delete("/cards/{id}", h.DeleteCard)
	})

	// SSE stream.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
