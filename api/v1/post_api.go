package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"blogapi/api/v1/request"
	"blogapi/api/v1/response"
	"blogapi/internal/cache"
	"blogapi/internal/metrics"
	myvalidator "blogapi/internal/validator"
	"blogapi/middleware"
	"blogapi/service"

	"github.com/gin-gonic/gin"
)

// PostAPI exposes HTTP handlers for post CRUD. Read endpoints go through the
// Redis cache when one is configured; write endpoints invalidate it.
type PostAPI struct {
	service *service.PostService
	cache   *cache.PostCache // nil disables caching
}

func NewPostAPI(s *service.PostService, c *cache.PostCache) *PostAPI {
	return &PostAPI{service: s, cache: c}
}

// Create persists a new post owned by the authenticated user.
func (p *PostAPI) Create(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	var req request.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncPost("create", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  myvalidator.Messages(err),
		})
		return
	}

	post, err := p.service.Create(userID, req.Title, req.Content)
	if err != nil {
		metrics.IncPost("create", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if p.cache != nil {
		p.cache.InvalidateList()
	}
	metrics.IncPost("create", "success")
	c.JSON(http.StatusCreated, post)
}

// List returns every post with its author joined.
func (p *PostAPI) List(c *gin.Context) {
	if p.cache != nil {
		if body, ok := p.cache.GetList(); ok {
			metrics.IncPost("list", "cache_hit")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	joined, err := p.service.List()
	if err != nil {
		metrics.IncPost("list", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	body, err := json.Marshal(response.NewPostList(joined))
	if err != nil {
		metrics.IncPost("list", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if p.cache != nil {
		p.cache.SetList(body)
	}
	metrics.IncPost("list", "success")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Get returns a single post with its author joined.
func (p *PostAPI) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		metrics.IncPost("get", "not_found")
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	if p.cache != nil {
		if body, ok := p.cache.GetPost(id); ok {
			metrics.IncPost("get", "cache_hit")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	joined, err := p.service.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			metrics.IncPost("get", "not_found")
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		metrics.IncPost("get", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	body, err := json.Marshal(response.NewPost(joined.Post, joined.Author))
	if err != nil {
		metrics.IncPost("get", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if p.cache != nil {
		p.cache.SetPost(id, body)
	}
	metrics.IncPost("get", "success")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Update modifies title/content after the ownership check.
func (p *PostAPI) Update(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		metrics.IncPost("update", "not_found")
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	var req request.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncPost("update", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  myvalidator.Messages(err),
		})
		return
	}

	joined, err := p.service.Update(id, userID, req.Title, req.Content)
	if err != nil {
		p.writePostError(c, "update", err)
		return
	}
	if p.cache != nil {
		p.cache.Invalidate(id)
	}
	metrics.IncPost("update", "success")
	c.JSON(http.StatusOK, response.NewPost(joined.Post, joined.Author))
}

// Delete removes a post after the ownership check.
func (p *PostAPI) Delete(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		metrics.IncPost("delete", "not_found")
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}

	if err := p.service.Delete(id, userID); err != nil {
		p.writePostError(c, "delete", err)
		return
	}
	if p.cache != nil {
		p.cache.Invalidate(id)
	}
	metrics.IncPost("delete", "success")
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (p *PostAPI) writePostError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		metrics.IncPost(op, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
	case errors.Is(err, service.ErrNotOwner):
		metrics.IncPost(op, "forbidden")
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized"})
	default:
		metrics.IncPost(op, "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
