package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bulletinboard/board-gateway/internal/board"
	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func idParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %q is not a valid ID", gwerrors.ErrInvalidParameter, c.Param("id"))
	}
	return id, nil
}

func intQueryParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", gwerrors.ErrInvalidParameter, name, raw)
	}
	return value, nil
}

func bindBody(c echo.Context, body any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
		return fmt.Errorf("%w: malformed request body", gwerrors.ErrInvalidParameter)
	}
	return nil
}

func postFilter(c echo.Context) (board.PostFilter, error) {
	filter := board.PostFilter{}
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: user_id %q is not a valid ID", gwerrors.ErrInvalidParameter, raw)
		}
		filter.UserID = &userID
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("%w: date %q is not formatted as YYYY-MM-DD", gwerrors.ErrInvalidParameter, raw)
		}
		filter.Date = &date
	}
	var err error
	if filter.Page, err = intQueryParam(c, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intQueryParam(c, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *Server) GetPosts(c echo.Context) error {
	filter, err := postFilter(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	posts, err := client.Posts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// GetFeed returns a page of posts grouped by calendar day, newest day first. The optional
// tz query parameter is an IANA time zone name used to decide the day of each post.
func (s *Server) GetFeed(c echo.Context) error {
	filter, err := postFilter(c)
	if err != nil {
		return err
	}
	loc := time.UTC
	if tz := c.QueryParam("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("%w: unknown time zone %q", gwerrors.ErrInvalidParameter, tz)
		}
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	posts, err := client.Posts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, board.GroupPostsByDay(posts, loc))
}

func (s *Server) PostPost(c echo.Context) error {
	var body models.PostCreate
	if err := bindBody(c, &body); err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	post, err := client.CreatePost(c.Request().Context(), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (s *Server) GetTags(c echo.Context) error {
	client, err := s.client(c)
	if err != nil {
		return err
	}
	tags, err := client.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) GetPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	post, err := client.Post(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (s *Server) PutPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body models.PostUpdate
	if err := bindBody(c, &body); err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	post, err := client.UpdatePost(c.Request().Context(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (s *Server) DeletePost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	if err := client.DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) PostComment(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}
	var body models.CommentCreate
	if err := bindBody(c, &body); err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	comment, err := client.CreateComment(c.Request().Context(), postID, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (s *Server) PutComment(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body models.CommentUpdate
	if err := bindBody(c, &body); err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	comment, err := client.UpdateComment(c.Request().Context(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

func (s *Server) DeleteComment(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	if err := client.DeleteComment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) PostLike(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	result, err := client.ToggleLike(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) GetLikes(c echo.Context) error {
	postID, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	likes, err := client.Likes(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, likes)
}

func (s *Server) GetUsers(c echo.Context) error {
	client, err := s.client(c)
	if err != nil {
		return err
	}
	users, err := client.Users(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) GetUser(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	user, err := client.User(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) PutUser(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body models.UserUpdate
	if err := bindBody(c, &body); err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	user, err := client.UpdateUser(c.Request().Context(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) GetUserPosts(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	posts, err := client.UserPosts(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) GetWeeklySummary(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	summary, err := client.WeeklySummary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) GetWeeklyReports(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	weeks, err := intQueryParam(c, "weeks")
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	reports, err := client.WeeklyReports(c.Request().Context(), id, weeks)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// GetAllWeeklyReports returns the weekly reports of every user in one response.
func (s *Server) GetAllWeeklyReports(c echo.Context) error {
	weeks, err := intQueryParam(c, "weeks")
	if err != nil {
		return err
	}
	client, err := s.client(c)
	if err != nil {
		return err
	}
	reports, err := client.AllUsersWeeklyReports(c.Request().Context(), weeks)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *Server) GetSearch(c echo.Context) error {
	client, err := s.client(c)
	if err != nil {
		return err
	}
	results, err := client.Search(c.Request().Context(), c.QueryParam("q"), board.SearchType(c.QueryParam("type")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}
