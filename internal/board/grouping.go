package board

import (
	"sort"
	"time"

	"github.com/bulletinboard/board-gateway/internal/models"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// GroupPostsByDay buckets posts by their calendar day in loc, keyed "2006-01-02". Days are
// ordered newest first and so are the posts of each day. The input slice is not modified.
func GroupPostsByDay(posts []models.Post, loc *time.Location) *orderedmap.OrderedMap[string, []models.Post] {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]models.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})
	days := orderedmap.New[string, []models.Post]()
	for _, post := range sorted {
		day := post.CreatedAt.In(loc).Format(dateLayout)
		grouped, _ := days.Get(day)
		days.Set(day, append(grouped, post))
	}
	return days
}
