package model

import "time"

// MaxCommentLength bounds the comment body.
const MaxCommentLength = 200

// Comment belongs to a post and an author; deleting either removes it.
// There is no edit or delete path once created.
type Comment struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PostID    string `gorm:"type:varchar(36);index:idx_comment_post;not null"`
	Post      Post   `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  string `gorm:"type:varchar(36);index:idx_comment_author;not null"`
	Author    User   `gorm:"constraint:OnDelete:CASCADE"`
	Text      string `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time
}

func (Comment) TableName() string { return "comments" }
