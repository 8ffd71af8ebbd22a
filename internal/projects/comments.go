package projects

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidComment is returned when a comment has no author or content.
var ErrInvalidComment = errors.New("comment author and content are required")

// Comment is a visitor comment on a project.
type Comment struct {
	ID         int64  `json:"id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// Comments lists the comments on project id.
func (c *Client) Comments(ctx context.Context, id int64) ([]Comment, error) {
	var out []Comment
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/comments", id), nil, &out); err != nil {
		return nil, fmt.Errorf("list comments for project %d: %w", id, err)
	}
	return out, nil
}

// AddComment posts a comment on project id.
func (c *Client) AddComment(ctx context.Context, id int64, author, content string) (*Comment, error) {
	author, content = strings.TrimSpace(author), strings.TrimSpace(content)
	if author == "" || content == "" {
		return nil, ErrInvalidComment
	}
	in := struct {
		AuthorName string `json:"author_name"`
		Content    string `json:"content"`
	}{author, content}
	var out Comment
	if err := c.api.Do(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/comments", id), in, &out); err != nil {
		return nil, fmt.Errorf("add comment to project %d: %w", id, err)
	}
	return &out, nil
}
