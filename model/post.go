package model

import "time"

// Post 的 AuthorID 在创建后不可变更。
type Post struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	AuthorID  uint64    `gorm:"not null;index" json:"author_id"`
	Title     string    `gorm:"not null;size:100" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
