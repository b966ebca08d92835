package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/models"
)

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the backend at baseURL. token may be
// empty when the backend runs with auth disabled.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiError is the backend's error body.
type apiError struct {
	Status int
	Msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Msg, e.Status)
}

// Unwrap maps HTTP statuses onto the shared sentinels so callers can
// use errors.Is.
func (e *apiError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	if body.Error == "" {
		body.Error = resp.Status
	}
	return &apiError{Status: resp.StatusCode, Msg: body.Error}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func notesPath(path string) string {
	return "/api/notes/" + url.PathEscape(path)
}

// ReadNote fetches the full note.
func (c *Client) ReadNote(ctx context.Context, path string) (*models.Note, error) {
	var note models.Note
	if err := c.doJSON(ctx, http.MethodGet, notesPath(path), nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// WriteNote saves content, optionally creating the note.
func (c *Client) WriteNote(ctx context.Context, path, content string, createIfMissing bool) (*models.NoteMetadata, error) {
	req := struct {
		Content         string `json:"content"`
		CreateIfMissing bool   `json:"createIfMissing,omitempty"`
	}{Content: content, CreateIfMissing: createIfMissing}
	var meta models.NoteMetadata
	if err := c.doJSON(ctx, http.MethodPut, notesPath(path), req, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, notesPath(path), nil, nil)
}

// ListNotes returns paginated note metadata.
func (c *Client) ListNotes(ctx context.Context, limit, offset int, tag string) ([]models.NoteMetadata, int, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
		q.Set("offset", fmt.Sprint(offset))
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	path := "/api/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Notes []models.NoteMetadata `json:"notes"`
		Total int                   `json:"total"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Notes, resp.Total, nil
}

// Search runs a full-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	var resp struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListBoards returns all kanban boards.
func (c *Client) ListBoards(ctx context.Context) ([]models.Board, error) {
	var resp struct {
		Boards []models.Board `json:"boards"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/kanban/boards", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Boards, nil
}

// GetBoard returns one board.
func (c *Client) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board
	if err := c.doJSON(ctx, http.MethodGet, "/api/kanban/boards/"+url.PathEscape(id), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateBoard creates a board with default columns.
func (c *Client) CreateBoard(ctx context.Context, name string, kind models.BoardKind, member string) (*models.Board, error) {
	req := struct {
		Name   string           `json:"name"`
		Kind   models.BoardKind `json:"kind,omitempty"`
		Member string           `json:"member,omitempty"`
	}{Name: name, Kind: kind, Member: member}
	var board models.Board
	if err := c.doJSON(ctx, http.MethodPost, "/api/kanban/boards", req, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard removes a board.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/kanban/boards/"+url.PathEscape(id), nil, nil)
}

// AddColumn appends a column to a board.
func (c *Client) AddColumn(ctx context.Context, boardID string, col models.Column) (*models.Board, error) {
	var board models.Board
	path := "/api/kanban/boards/" + url.PathEscape(boardID) + "/columns"
	if err := c.doJSON(ctx, http.MethodPost, path, col, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// ListAllCards returns every card across all boards.
func (c *Client) ListAllCards(ctx context.Context) ([]models.Card, error) {
	var resp struct {
		Cards []models.Card `json:"cards"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/kanban/cards", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cards, nil
}

// AddCard creates a card on card.BoardID.
func (c *Client) AddCard(ctx context.Context, card models.Card) (*models.Card, error) {
	var out models.Card
	path := "/api/kanban/boards/" + url.PathEscape(card.BoardID) + "/cards"
	if err := c.doJSON(ctx, http.MethodPost, path, card, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCard replaces a card's mutable fields.
func (c *Client) UpdateCard(ctx context.Context, card models.Card) (*models.Card, error) {
	var out models.Card
	if err := c.doJSON(ctx, http.MethodPut, "/api/kanban/cards/"+url.PathEscape(card.ID), card, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveCard relocates a card. Position -1 appends at the column tail.
func (c *Client) MoveCard(ctx context.Context, cardID, toColumnID string, position int) (*models.Card, error) {
	req := struct {
		ColumnID string `json:"columnId"`
		Position int    `json:"position"`
	}{ColumnID: toColumnID, Position: position}
	var out models.Card
	if err := c.doJSON(ctx, http.MethodPost, "/api/kanban/cards/"+url.PathEscape(cardID)+"/move", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/kanban/cards/"+url.PathEscape(cardID), nil, nil)
}
