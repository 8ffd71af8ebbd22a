package projects

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestComments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/projects/4/comments" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":1,"author_name":"Bo","content":"nice","created_at":"2025-02-01T10:00:00"}]`))
	}, nil)
	got, err := c.Comments(context.Background(), 4)
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if len(got) != 1 || got[0].AuthorName != "Bo" || got[0].Content != "nice" {
		t.Errorf("Comments = %+v", got)
	}
}

func TestAddComment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/projects/4/comments" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != `{"author_name":"Bo","content":"nice"}` {
			t.Errorf("body = %s", b)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":2,"author_name":"Bo","content":"nice","created_at":"2025-02-01T10:00:00"}`))
	}, nil)
	got, err := c.AddComment(context.Background(), 4, " Bo ", "nice")
	if err != nil || got.ID != 2 {
		t.Errorf("AddComment = %+v, %v", got, err)
	}
}

func TestAddComment_Validation(t *testing.T) {
	if _, err := NewClient(nil).AddComment(context.Background(), 4, "Bo", "  "); !errors.Is(err, ErrInvalidComment) {
		t.Errorf("err = %v, want ErrInvalidComment", err)
	}
}
