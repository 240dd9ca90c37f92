package board

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	minReportWeeks = 1
	maxReportWeeks = 12
)

// WeeklySummary groups the posts of the user's current week by tag.
func (c *Client) WeeklySummary(ctx context.Context, userID uuid.UUID) ([]models.WeeklySummaryItem, error) {
	return call[[]models.WeeklySummaryItem](ctx, c, c.get(userPath(userID)+"/weekly-summary", nil))
}

// WeeklyReports returns the last weeks of reports of a user, most recent first. Zero weeks
// leaves the count to the backend.
func (c *Client) WeeklyReports(ctx context.Context, userID uuid.UUID, weeks int) ([]models.WeeklyReport, error) {
	query, err := weeksQuery(weeks)
	if err != nil {
		return nil, err
	}
	return call[[]models.WeeklyReport](ctx, c, c.get(userPath(userID)+"/weekly-reports", query))
}

func weeksQuery(weeks int) (url.Values, error) {
	if weeks == 0 {
		return nil, nil
	}
	if weeks < minReportWeeks || weeks > maxReportWeeks {
		return nil, fmt.Errorf("%w: weeks %d is not between %d and %d", gwerrors.ErrInvalidParameter, weeks, minReportWeeks, maxReportWeeks)
	}
	return url.Values{"weeks": []string{strconv.Itoa(weeks)}}, nil
}

// AllUsersWeeklyReports fetches the weekly reports of every user, a bounded number at a time.
// The result keeps the order of Users. The first failure cancels the remaining fetches.
func (c *Client) AllUsersWeeklyReports(ctx context.Context, weeks int) ([]models.UserWeeklyReports, error) {
	if _, err := weeksQuery(weeks); err != nil {
		return nil, err
	}
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]models.UserWeeklyReports, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.reportConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			reports, err := c.WeeklyReports(gctx, user.ID, weeks)
			if err != nil {
				return fmt.Errorf("weekly reports of user %s: %w", user.ID, err)
			}
			results[i] = models.UserWeeklyReports{User: user, Reports: reports}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Info("BOARD CLIENT", "message", "all users weekly report failed", "users", len(users), "error", err)
		return nil, err
	}
	return results, nil
}
