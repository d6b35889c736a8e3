package response

import (
	"time"

	"blogapi/model"
	"blogapi/service"
)

// Author 只暴露 username 和 email
type Author struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Post is a post with its author joined for read endpoints.
type Post struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPost(p model.Post, author model.User) Post {
	return Post{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Author: Author{
			ID:       author.ID,
			Username: author.Username,
			Email:    author.Email,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewPostList(joined []service.PostWithAuthor) []Post {
	out := make([]Post, 0, len(joined))
	for _, j := range joined {
		out = append(out, NewPost(j.Post, j.Author))
	}
	return out
}
