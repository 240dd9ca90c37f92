package models

import "github.com/google/uuid"

// Author is the short user record embedded in posts, comments and likes.
type Author struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url"`
}

type Comment struct {
	ID            uuid.UUID  `json:"id"`
	PostID        uuid.UUID  `json:"post_id"`
	UserID        *uuid.UUID `json:"user_id"`
	AnonymousName *string    `json:"anonymous_name"`
	Content       string     `json:"content"`
	CreatedAt     Timestamp  `json:"created_at"`
	UpdatedAt     *Timestamp `json:"updated_at"`
	IsEdited      bool       `json:"is_edited"`
	User          *Author    `json:"user"`
}

type Post struct {
	ID            uuid.UUID  `json:"id"`
	UserID        *uuid.UUID `json:"user_id"`
	AnonymousName *string    `json:"anonymous_name"`
	Content       string     `json:"content"`
	Tags          []string   `json:"tags"`
	CreatedAt     Timestamp  `json:"created_at"`
	UpdatedAt     *Timestamp `json:"updated_at"`
	IsEdited      bool       `json:"is_edited"`
	User          *Author    `json:"user"`
	Comments      []Comment  `json:"comments"`
	LikeCount     int        `json:"like_count"`
	IsLiked       bool       `json:"is_liked"`
}

type PostCreate struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

type PostUpdate struct {
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type CommentCreate struct {
	Content       string `json:"content"`
	AnonymousName string `json:"anonymous_name,omitempty"`
}

type CommentUpdate struct {
	Content string `json:"content"`
}

// LikeResult is the state of a post after toggling the current user's like.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type PostLikes struct {
	LikeCount int      `json:"like_count"`
	Users     []Author `json:"users"`
}

// WeeklySummaryItem groups a user's posts of one week under a tag.
type WeeklySummaryItem struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Posts []Post `json:"posts"`
}

type WeeklyReport struct {
	WeekStart  string              `json:"week_start"`
	WeekEnd    string              `json:"week_end"`
	Categories []WeeklySummaryItem `json:"categories"`
}

// UserWeeklyReports pairs a user with its weekly reports.
type UserWeeklyReports struct {
	User    Identity       `json:"user"`
	Reports []WeeklyReport `json:"reports"`
}

type SearchResults struct {
	Posts []Post     `json:"posts"`
	Users []Identity `json:"users"`
}
