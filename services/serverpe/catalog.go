package serverpe

import (
	"context"
	"fmt"
	"net/http"

	"serverpe-gateway/models"
)

func (c *Client) States(ctx context.Context) ([]models.State, error) {
	var states []models.State
	if err := c.do(ctx, request{method: http.MethodGet, path: "/states"}, &states); err != nil {
		return nil, err
	}
	return states, nil
}

func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects"}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) Project(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/projects/%d", id)}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) ContactCategories(ctx context.Context) ([]models.ContactCategory, error) {
	var categories []models.ContactCategory
	if err := c.do(ctx, request{method: http.MethodGet, path: "/contact-categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
