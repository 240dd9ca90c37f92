package board

import (
	"context"
	"net/http"

	"github.com/bulletinboard/board-gateway/internal/dispatcher"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/google/uuid"
)

const commentsPath = "/api/comments"

func (c *Client) CreateComment(ctx context.Context, postID uuid.UUID, comment models.CommentCreate) (models.Comment, error) {
	return call[models.Comment](ctx, c, dispatcher.Request{
		Method: http.MethodPost,
		Path:   postPath(postID) + "/comments",
		Body:   comment,
	})
}

func (c *Client) UpdateComment(ctx context.Context, id uuid.UUID, update models.CommentUpdate) (models.Comment, error) {
	return call[models.Comment](ctx, c, dispatcher.Request{
		Method: http.MethodPut,
		Path:   commentsPath + "/" + id.String(),
		Body:   update,
	})
}

func (c *Client) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return c.delete(ctx, commentsPath+"/"+id.String())
}

// ToggleLike likes the post for the current user, or removes the like if it already exists.
func (c *Client) ToggleLike(ctx context.Context, postID uuid.UUID) (models.LikeResult, error) {
	return call[models.LikeResult](ctx, c, dispatcher.Request{Method: http.MethodPost, Path: postPath(postID) + "/like"})
}

func (c *Client) Likes(ctx context.Context, postID uuid.UUID) (models.PostLikes, error) {
	return call[models.PostLikes](ctx, c, c.get(postPath(postID)+"/likes", nil))
}
