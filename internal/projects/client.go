// Package projects consumes the backend's projects endpoints through the
// authenticated request pipeline.
package projects

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidProject is returned when a create payload is missing required fields.
var ErrInvalidProject = errors.New("project title and short description are required")

// Doer sends JSON requests; *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

// Client is the projects API.
type Client struct {
	api Doer
}

// NewClient returns a projects client over api.
func NewClient(api Doer) *Client {
	return &Client{api: api}
}

// List returns all projects.
func (c *Client) List(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.api.Do(ctx, http.MethodGet, "/projects/", nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// Get returns project id.
func (c *Client) Get(ctx context.Context, id int64) (*Project, error) {
	var out Project
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &out); err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &out, nil
}

// Create adds a project.
func (c *Client) Create(ctx context.Context, p Create) (*Project, error) {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.ShortDesc) == "" {
		return nil, ErrInvalidProject
	}
	if p.TechTags == nil {
		p.TechTags = []string{}
	}
	var out Project
	if err := c.api.Do(ctx, http.MethodPost, "/projects/", p, &out); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &out, nil
}

// Update changes project id.
func (c *Client) Update(ctx context.Context, id int64, u Update) (*Project, error) {
	var out Project
	if err := c.api.Do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", id), u, &out); err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	return &out, nil
}

// Delete removes project id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return nil
}
