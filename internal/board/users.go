package board

import (
	"context"
	"net/http"

	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/google/uuid"
)

const usersPath = "/api/users"

func userPath(id uuid.UUID) string {
	return usersPath + "/" + id.String()
}

// Users lists every user ordered by name.
func (c *Client) Users(ctx context.Context) ([]models.Identity, error) {
	return call[[]models.Identity](ctx, c, c.get(usersPath, nil))
}

func (c *Client) User(ctx context.Context, id uuid.UUID) (models.Identity, error) {
	return call[models.Identity](ctx, c, c.get(userPath(id), nil))
}

// UpdateUser changes the profile of the current user, the backend refuses other users with a 403.
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, update models.UserUpdate) (models.Identity, error) {
	return call[models.Identity](ctx, c, dispatcher.Request{Method: http.MethodPut, Path: userPath(id), Body: update})
}

func (c *Client) UserPosts(ctx context.Context, id uuid.UUID) ([]models.Post, error) {
	return call[[]models.Post](ctx, c, c.get(userPath(id)+"/posts", nil))
}
