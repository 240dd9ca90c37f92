package board

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
)

const searchPath = "/api/search"

type SearchType string

const (
	SearchPosts SearchType = "posts"
	SearchUsers SearchType = "users"
	SearchAll   SearchType = "all"
)

func (t SearchType) Validate() error {
	switch t {
	case SearchPosts, SearchUsers, SearchAll:
		return nil
	default:
		return fmt.Errorf("%w: unknown search type %q", gwerrors.ErrInvalidParameter, string(t))
	}
}

// Search looks for posts by content and users by name or email. An empty type searches both.
func (c *Client) Search(ctx context.Context, term string, searchType SearchType) (models.SearchResults, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return models.SearchResults{}, fmt.Errorf("%w: empty search term", gwerrors.ErrInvalidParameter)
	}
	if searchType == "" {
		searchType = SearchAll
	}
	if err := searchType.Validate(); err != nil {
		return models.SearchResults{}, err
	}
	query := url.Values{"q": []string{term}, "type": []string{string(searchType)}}
	return call[models.SearchResults](ctx, c, c.get(searchPath, query))
}
