package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/models"
)

func TestReadNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/notes/sub/a.md" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.Note{Path: "sub/a.md", Title: "A", Content: "body"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	note, err := c.ReadNote(context.Background(), "sub/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Title != "A" || note.Content != "body" {
		t.Fatalf("note = %+v", note)
	}
}

func TestReadNoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ReadNote(context.Background(), "ghost.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWriteNoteSendsBodyAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Errorf("auth header = %q", got)
		}
		var req struct {
			Content         string `json:"content"`
			CreateIfMissing bool   `json:"createIfMissing"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Content != "hello" || !req.CreateIfMissing {
			t.Errorf("req = %+v", req)
		}
		json.NewEncoder(w).Encode(models.NoteMetadata{Path: "a.md", Title: "a"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tkn")
	meta, err := c.WriteNote(context.Background(), "a.md", "hello", true)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Path != "a.md" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestListNotesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "10" || q.Get("offset") != "5" || q.Get("tag") != "work" {
			t.Errorf("query = %v", q)
		}
		fmt.Fprint(w, `{"notes":[{"path":"a.md"}],"total":7}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	notes, total, err := c.ListNotes(context.Background(), 10, 5, "work")
	if err != nil {
		t.Fatal(err)
	}
	if total != 7 || len(notes) != 1 {
		t.Fatalf("notes=%v total=%d", notes, total)
	}
}

func TestMoveCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kanban/cards/c1/move" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			ColumnID string `json:"columnId"`
			Position int    `json:"position"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.ColumnID != "done" || req.Position != -1 {
			t.Errorf("req = %+v", req)
		}
		json.NewEncoder(w).Encode(models.Card{ID: "c1", ColumnID: "done", ClosedAt: 42})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	card, err := c.MoveCard(context.Background(), "c1", "done", -1)
	if err != nil {
		t.Fatal(err)
	}
	if card.ColumnID != "done" || card.ClosedAt != 42 {
		t.Fatalf("card = %+v", card)
	}
}

func TestSubscribeParsesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: note.updated\ndata: {\"path\":\"a.md\"}\n\n")
		fmt.Fprint(w, "event: kanban.updated\ndata: {\"boardId\":\"b1\"}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the connection open so the client does not reconnect
		// mid-test.
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewClient(srv.URL, "")
	ch := c.Subscribe(ctx)

	want := []struct{ typ, key, val string }{
		{"note.updated", "path", "a.md"},
		{"kanban.updated", "boardId", "b1"},
	}
	for _, w := range want {
		select {
		case ev := <-ch:
			if ev.Type != w.typ {
				t.Fatalf("type = %q, want %q", ev.Type, w.typ)
			}
			switch w.key {
			case "path":
				if ev.NotePath() != w.val {
					t.Fatalf("path = %q", ev.NotePath())
				}
			case "boardId":
				if ev.BoardID() != w.val {
					t.Fatalf("boardId = %q", ev.BoardID())
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", w.typ)
		}
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after cancel")
		}
	}
}
