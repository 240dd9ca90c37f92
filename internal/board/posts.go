package board

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/google/uuid"
)

const (
	postsPath = "/api/posts"
	tagsPath  = "/api/posts/tags/all"

	maxPageLimit = 100
	dateLayout   = "2006-01-02"
)

// PostFilter selects a page of the feed. Zero values are left to the backend defaults.
type PostFilter struct {
	UserID *uuid.UUID
	// Date restricts the feed to posts created on this calendar day
	Date  *time.Time
	Page  int
	Limit int
}

func (f PostFilter) query() (url.Values, error) {
	query := url.Values{}
	if f.Page < 0 {
		return nil, fmt.Errorf("%w: page %d", gwerrors.ErrInvalidParameter, f.Page)
	}
	if f.Limit < 0 || f.Limit > maxPageLimit {
		return nil, fmt.Errorf("%w: limit %d is not between 1 and %d", gwerrors.ErrInvalidParameter, f.Limit, maxPageLimit)
	}
	if f.UserID != nil {
		query.Set("user_id", f.UserID.String())
	}
	if f.Date != nil {
		query.Set("date", f.Date.Format(dateLayout))
	}
	if f.Page > 0 {
		query.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}
	return query, nil
}

func postPath(id uuid.UUID) string {
	return postsPath + "/" + id.String()
}

// Posts returns one page of the feed, newest first.
func (c *Client) Posts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	query, err := filter.query()
	if err != nil {
		return nil, err
	}
	return call[[]models.Post](ctx, c, c.get(postsPath, query))
}

func (c *Client) Post(ctx context.Context, id uuid.UUID) (models.Post, error) {
	return call[models.Post](ctx, c, c.get(postPath(id), nil))
}

func (c *Client) CreatePost(ctx context.Context, post models.PostCreate) (models.Post, error) {
	return call[models.Post](ctx, c, dispatcher.Request{Method: http.MethodPost, Path: postsPath, Body: post})
}

func (c *Client) UpdatePost(ctx context.Context, id uuid.UUID, update models.PostUpdate) (models.Post, error) {
	return call[models.Post](ctx, c, dispatcher.Request{Method: http.MethodPut, Path: postPath(id), Body: update})
}

func (c *Client) DeletePost(ctx context.Context, id uuid.UUID) error {
	return c.delete(ctx, postPath(id))
}

// Tags lists every tag known to the board.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, c, c.get(tagsPath, nil))
}
