package model

import "time"

// Post is the content unit. Author is required and cascades on delete;
// Group is optional and nulls out when the group is deleted.
type Post struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)"`
	Text     string  `gorm:"type:text;not null"`
	AuthorID string  `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Author   User    `gorm:"constraint:OnDelete:CASCADE"`
	GroupID  *string `gorm:"type:varchar(36);index:idx_post_group"`
	Group    *Group  `gorm:"constraint:OnDelete:SET NULL"`
	// relative path under the media root, empty when no image was uploaded
	Image     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"index:idx_post_created"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }
