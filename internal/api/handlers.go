package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/models"
)

// Handler holds the API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after
// /api/notes/). Encoded slashes are supported.
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func writeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	default:
		slog.Error(what+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(limit, offset, q.Get("tag"))
	if err != nil {
		writeError(w, err, "list notes")
		return
	}
	if items == nil {
		items = []models.NoteMetadata{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(path)
	if err != nil {
		writeError(w, err, "get note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// WriteNote handles PUT /api/notes/*. The body carries the content and
// whether a missing note may be created.
func (h *Handler) WriteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req WriteNoteRequest
	if !readBody(w, r, &req) {
		return
	}
	meta, err := h.svc.WriteNote(path, []byte(req.Content), req.CreateIfMissing)
	if err != nil {
		writeError(w, err, "write note")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// DeleteNote handles DELETE /api/notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteNote(path); err != nil {
		writeError(w, err, "delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		writeError(w, err, "search")
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Backlinks handles GET /api/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}
	links, err := h.svc.Backlinks(target)
	if err != nil {
		writeError(w, err, "backlinks")
		return
	}
	if links == nil {
		links = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": links})
}

// ListBoards handles GET /api/kanban/boards.
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListBoards()
	if err != nil {
		writeError(w, err, "list boards")
		return
	}
	if boards == nil {
		boards = []models.Board{}
	}
	writeJSON(w, http.StatusOK, BoardListResponse{Boards: boards})
}

// CreateBoard handles POST /api/kanban/boards.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if !readBody(w, r, &req) {
		return
	}
	board, err := h.svc.CreateBoard(req.Name, req.Kind, req.Member, req.Columns)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, err, "create board")
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusCreated, board)
}

// GetBoard handles GET /api/kanban/boards/{id}.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.GetBoard(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get board")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// DeleteBoard handles DELETE /api/kanban/boards/{id}.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBoard(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "delete board")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddColumn handles POST /api/kanban/boards/{id}/columns.
func (h *Handler) AddColumn(w http.ResponseWriter, r *http.Request) {
	var req AddColumnRequest
	if !readBody(w, r, &req) {
		return
	}
	board, err := h.svc.AddColumn(chi.URLParam(r, "id"), models.Column{
		Name:   req.Name,
		Color:  req.Color,
		IsDone: req.IsDone,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, err, "add column")
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// ListCards handles GET /api/kanban/boards/{id}/cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "list cards")
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards})
}

// ListAllCards handles GET /api/kanban/cards.
func (h *Handler) ListAllCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListAllCards()
	if err != nil {
		writeError(w, err, "list all cards")
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: cards})
}

// CreateCard handles POST /api/kanban/boards/{id}/cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !readBody(w, r, &req) {
		return
	}
	card, err := h.svc.AddCard(models.Card{
		BoardID:     chi.URLParam(r, "id"),
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		NotePath:    req.NotePath,
		Assignees:   req.Assignees,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, err, "create card")
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PUT /api/kanban/cards/{id}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req UpdateCardRequest
	if !readBody(w, r, &req) {
		return
	}
	card, err := h.svc.UpdateCard(models.Card{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		NotePath:    req.NotePath,
		Assignees:   req.Assignees,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, err, "update card")
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// MoveCard handles POST /api/kanban/cards/{id}/move.
func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	var req MoveCardRequest
	if !readBody(w, r, &req) {
		return
	}
	card, err := h.svc.MoveCard(chi.URLParam(r, "id"), req.ColumnID, req.Position)
	if err != nil {
		writeError(w, err, "move card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/kanban/cards/{id}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCard(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "delete card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
