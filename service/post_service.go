package service

import (
	"errors"

	"blogapi/model"

	"gorm.io/gorm"
)

var (
	ErrPostNotFound = errors.New("post not found")
	// ErrNotOwner means the requester is authenticated but is not the author.
	ErrNotOwner = errors.New("not the post author")
)

// PostStore is the persistence surface for posts. *dao.PostDAO satisfies it.
type PostStore interface {
	Create(post *model.Post) error
	FindByID(id uint64) (*model.Post, error)
	List() ([]model.Post, error)
	Update(post *model.Post) error
	Delete(id uint64) error
}

// PostWithAuthor pairs a post with its author record for read responses.
// The author is joined at read time from the user store; the password hash
// never leaves the service because responses pick only public fields.
type PostWithAuthor struct {
	Post   model.Post
	Author model.User
}

// PostService implements post CRUD with author-only mutation.
type PostService struct {
	posts PostStore
	users UserStore
}

func NewPostService(posts PostStore, users UserStore) *PostService {
	return &PostService{posts: posts, users: users}
}

// Create persists a post owned by the authenticated author.
func (s *PostService) Create(authorID uint64, title, content string) (*model.Post, error) {
	post := &model.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns all posts with their authors joined in a single batch lookup.
func (s *PostService) List() ([]PostWithAuthor, error) {
	posts, err := s.posts.List()
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(posts))
	seen := make(map[uint64]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}
	users, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	joined := make([]PostWithAuthor, 0, len(posts))
	for _, p := range posts {
		joined = append(joined, PostWithAuthor{Post: p, Author: byID[p.AuthorID]})
	}
	return joined, nil
}

// Get returns one post with its author joined.
func (s *PostService) Get(id uint64) (*PostWithAuthor, error) {
	post, err := s.posts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	author, err := s.users.FindByID(post.AuthorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	joined := PostWithAuthor{Post: *post}
	if author != nil {
		joined.Author = *author
	}
	return &joined, nil
}

// Update applies the supplied fields after the ownership check and returns
// the post with its author joined. The author reference never changes.
func (s *PostService) Update(id, requesterID uint64, title, content string) (*PostWithAuthor, error) {
	post, err := s.fetchOwned(id, requesterID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		post.Title = title
	}
	if content != "" {
		post.Content = content
	}
	if err := s.posts.Update(post); err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(post.AuthorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	joined := PostWithAuthor{Post: *post}
	if author != nil {
		joined.Author = *author
	}
	return &joined, nil
}

// Delete removes the post after the ownership check.
func (s *PostService) Delete(id, requesterID uint64) error {
	post, err := s.fetchOwned(id, requesterID)
	if err != nil {
		return err
	}
	return s.posts.Delete(post.ID)
}

// fetchOwned loads the post and enforces that the requester is its author.
func (s *PostService) fetchOwned(id, requesterID uint64) (*model.Post, error) {
	post, err := s.posts.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.AuthorID != requesterID {
		return nil, ErrNotOwner
	}
	return post, nil
}
