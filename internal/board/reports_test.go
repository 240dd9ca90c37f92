package board

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportJSON = `[{"week_start": "2024-03-04", "week_end": "2024-03-10", "categories": [{"tag": "news", "count": 1, "posts": []}]}]`

func TestWeeklySummary(t *testing.T) {
	sender := newFakeSender(map[string]string{
		"GET /api/users/" + userA.String() + "/weekly-summary": `[{"tag": "news", "count": 2, "posts": []}]`,
	})
	client := newTestClient(t, sender)

	summary, err := client.WeeklySummary(context.Background(), userA)

	require.NoError(t, err)
	assert.Equal(t, []models.WeeklySummaryItem{{Tag: "news", Count: 2, Posts: []models.Post{}}}, summary)
}

func TestWeeklyReportsWeeks(t *testing.T) {
	sender := newFakeSender(map[string]string{"GET /api/users/" + userA.String() + "/weekly-reports": reportJSON})
	client := newTestClient(t, sender)
	ctx := context.Background()

	reports, err := client.WeeklyReports(ctx, userA, 12)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-03-04", reports[0].WeekStart)
	assert.Equal(t, "12", sender.last().Query.Get("weeks"))

	_, err = client.WeeklyReports(ctx, userA, 0)
	require.NoError(t, err)
	assert.Empty(t, sender.last().Query)

	for _, weeks := range []int{-1, 13} {
		_, err = client.WeeklyReports(ctx, userA, weeks)
		assert.ErrorIs(t, err, gwerrors.ErrInvalidParameter)
	}
	assert.Equal(t, 2, sender.count())
}

func TestAllUsersWeeklyReports(t *testing.T) {
	sender := newFakeSender(map[string]string{
		"GET /api/users": "[" + userJSON(userA, "Ada") + "," + userJSON(userB, "Grace") + "]",
		"GET /api/users/" + userA.String() + "/weekly-reports": reportJSON,
		"GET /api/users/" + userB.String() + "/weekly-reports": "[]",
	})
	client, err := NewClient(WithSender(sender), WithReportConcurrency(1))
	require.NoError(t, err)

	reports, err := client.AllUsersWeeklyReports(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, userA, reports[0].User.ID)
	assert.Len(t, reports[0].Reports, 1)
	assert.Equal(t, userB, reports[1].User.ID)
	assert.Empty(t, reports[1].Reports)
	assert.Equal(t, 3, sender.count())
}

func TestAllUsersWeeklyReportsFailure(t *testing.T) {
	sender := newFakeSender(map[string]string{
		"GET /api/users": "[" + userJSON(userA, "Ada") + "," + userJSON(userB, "Grace") + "]",
		"GET /api/users/" + userA.String() + "/weekly-reports": reportJSON,
	})
	sender.errs["GET /api/users/"+userB.String()+"/weekly-reports"] = gwerrors.NewAPIError(http.StatusInternalServerError, "")
	client := newTestClient(t, sender)

	reports, err := client.AllUsersWeeklyReports(context.Background(), 4)

	assert.Nil(t, reports)
	assert.Equal(t, http.StatusInternalServerError, gwerrors.StatusOf(err))
	assert.ErrorContains(t, err, userB.String())
}

func TestGroupPostsByDay(t *testing.T) {
	at := func(value string) models.Post {
		ts, err := time.Parse(time.RFC3339, value)
		require.NoError(t, err)
		return models.Post{Content: value, CreatedAt: models.Timestamp{Time: ts}}
	}
	posts := []models.Post{
		at("2024-03-03T09:00:00Z"),
		at("2024-03-04T23:30:00Z"),
		at("2024-03-04T08:00:00Z"),
		at("2024-03-02T12:00:00Z"),
	}

	days := GroupPostsByDay(posts, time.UTC)

	keys := []string{}
	for pair := days.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"2024-03-04", "2024-03-03", "2024-03-02"}, keys)
	march4, found := days.Get("2024-03-04")
	require.True(t, found)
	assert.Equal(t, "2024-03-04T23:30:00Z", march4[0].Content)
	assert.Equal(t, "2024-03-04T08:00:00Z", march4[1].Content)
	assert.Equal(t, "2024-03-03T09:00:00Z", posts[0].Content)
}

func TestGroupPostsByDayInLocation(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	ts := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)

	days := GroupPostsByDay([]models.Post{{CreatedAt: models.Timestamp{Time: ts}}}, zurich)

	_, found := days.Get("2024-03-05")
	assert.True(t, found)
	assert.Equal(t, 1, days.Len())
}
