package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"blogapi/internal/auth"
	myvalidator "blogapi/internal/validator"
	"blogapi/middleware"
	"blogapi/model"
	"blogapi/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type memUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func (m *memUserStore) Create(u *model.User) error {
	for _, e := range m.users {
		if e.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) FindByEmail(email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserStore) FindByID(id uint64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) FindByIDs(ids []uint64) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUserStore) Update(u *model.User) error {
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

type memPostStore struct {
	posts  map[uint64]*model.Post
	nextID uint64
}

func (m *memPostStore) Create(p *model.Post) error {
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memPostStore) FindByID(id uint64) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPostStore) List() ([]model.Post, error) {
	var out []model.Post
	for _, p := range m.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPostStore) Update(p *model.Post) error {
	cp := *p
	m.posts[p.ID] = &cp
	return nil
}

func (m *memPostStore) Delete(id uint64) error {
	delete(m.posts, id)
	return nil
}

// countingFlusher records post-cache flushes triggered by profile updates.
type countingFlusher struct {
	calls int
}

func (f *countingFlusher) InvalidateAll() { f.calls++ }

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWithFlusher(t, nil)
}

func newTestRouterWithFlusher(t *testing.T, flusher postCacheFlusher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("phone", myvalidator.IsPhone); err != nil {
			t.Fatalf("register validator: %v", err)
		}
	}

	users := &memUserStore{users: map[uint64]*model.User{}, nextID: 1}
	posts := &memPostStore{posts: map[uint64]*model.Post{}, nextID: 1}
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	userAPI := NewUserAPI(service.NewUserService(users, tokens), flusher)
	postAPI := NewPostAPI(service.NewPostService(posts, users), nil)
	requireAuth := middleware.AuthMiddleware(tokens)

	r := gin.New()
	authGroup := r.Group("/api/auth")
	authGroup.POST("/register", userAPI.Register)
	authGroup.POST("/login", userAPI.Login)
	authGroup.PUT("/update", requireAuth, userAPI.UpdateProfile)

	pg := r.Group("/api/posts")
	pg.GET("", postAPI.List)
	pg.GET("/:id", postAPI.Get)
	pg.POST("", requireAuth, postAPI.Create)
	pg.PUT("/:id", requireAuth, postAPI.Update)
	pg.DELETE("/:id", requireAuth, postAPI.Delete)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"username":    "alice",
		"email":       email,
		"password":    "password1",
		"dateOfBirth": "1990-05-01",
		"gender":      "Female",
		"phoneNumber": "1234567890",
	}
}

func loginToken(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", registerBody("a@example.com"), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}

	// duplicate email, other fields differ
	dup := registerBody("a@example.com")
	dup["username"] = "someone"
	dup["phoneNumber"] = "9998887776"
	w = doJSON(r, http.MethodPost, "/api/auth/register", dup, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "User already exists") {
		t.Fatalf("unexpected duplicate body: %s", w.Body.String())
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	r := newTestRouter(t)

	bad := registerBody("b@example.com")
	bad["gender"] = "Unknown"
	bad["phoneNumber"] = "123"
	w := doJSON(r, http.MethodPost, "/api/auth/register", bad, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Validation error" || len(resp.Errors) != 2 {
		t.Fatalf("unexpected validation body: %s", w.Body.String())
	}
}

func TestLoginFailureBodiesAreIdentical(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, http.MethodPost, "/api/auth/register", registerBody("c@example.com"), "")

	wrongPass := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "c@example.com", "password": "wrong-pass",
	}, "")
	noUser := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "password1",
	}, "")

	if wrongPass.Code != http.StatusBadRequest || noUser.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPass.Code, noUser.Code)
	}
	if !bytes.Equal(wrongPass.Body.Bytes(), noUser.Body.Bytes()) {
		t.Fatalf("bodies differ: %s vs %s", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, http.MethodPost, "/api/auth/register", registerBody("d@example.com"), "")
	token := loginToken(t, r, "d@example.com", "password1")

	w := doJSON(r, http.MethodPut, "/api/auth/update", map[string]string{
		"username": "renamed",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			Username    string `json:"username"`
			Email       string `json:"email"`
			PhoneNumber string `json:"phoneNumber"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "renamed" {
		t.Fatalf("username not updated: %+v", resp.User)
	}
	if resp.User.Email != "d@example.com" || resp.User.PhoneNumber != "1234567890" {
		t.Fatalf("absent fields must stay: %+v", resp.User)
	}

	if w := doJSON(r, http.MethodPut, "/api/auth/update", map[string]string{"username": "x3"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
}

func TestUpdateProfileFlushesPostCache(t *testing.T) {
	flusher := &countingFlusher{}
	r := newTestRouterWithFlusher(t, flusher)
	doJSON(r, http.MethodPost, "/api/auth/register", registerBody("flush@example.com"), "")
	token := loginToken(t, r, "flush@example.com", "password1")

	// cached post bodies embed username/email, so a rename must flush them
	w := doJSON(r, http.MethodPut, "/api/auth/update", map[string]string{"username": "renamed"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", w.Code, w.Body.String())
	}
	if flusher.calls != 1 {
		t.Fatalf("expected 1 cache flush after a successful update, got %d", flusher.calls)
	}

	// a rejected update must not flush
	w = doJSON(r, http.MethodPut, "/api/auth/update", map[string]string{"gender": "Unknown"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if flusher.calls != 1 {
		t.Fatalf("failed update must not flush, got %d calls", flusher.calls)
	}
}

func TestPostLifecycleAndOwnership(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, http.MethodPost, "/api/auth/register", registerBody("owner@example.com"), "")
	other := registerBody("other@example.com")
	other["username"] = "mallory"
	doJSON(r, http.MethodPost, "/api/auth/register", other, "")
	ownerToken := loginToken(t, r, "owner@example.com", "password1")
	otherToken := loginToken(t, r, "other@example.com", "password1")

	// create requires a token
	body := map[string]string{"title": "Hello world", "content": "long enough content"}
	if w := doJSON(r, http.MethodPost, "/api/posts", body, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: expected 401, got %d", w.Code)
	}
	w := doJSON(r, http.MethodPost, "/api/posts", body, ownerToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", w.Code, w.Body.String())
	}
	var created model.Post
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	id := strconv.FormatUint(created.ID, 10)

	// read joins the author without leaking the hash
	w = doJSON(r, http.MethodGet, "/api/posts/"+id, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	got := w.Body.String()
	if !strings.Contains(got, `"username":"alice"`) || !strings.Contains(got, `"email":"owner@example.com"`) {
		t.Fatalf("author not joined: %s", got)
	}
	if strings.Contains(got, "$2a$") || strings.Contains(got, "password") {
		t.Fatalf("response leaks credential material: %s", got)
	}

	// mutation matrix
	upd := map[string]string{"title": "Stolen title"}
	if w := doJSON(r, http.MethodPut, "/api/posts/"+id, upd, otherToken); w.Code != http.StatusForbidden {
		t.Fatalf("stranger update: expected 403, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/api/posts/"+id, nil, otherToken); w.Code != http.StatusForbidden {
		t.Fatalf("stranger delete: expected 403, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/api/posts/"+id, upd, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous update: expected 401, got %d", w.Code)
	}
	w = doJSON(r, http.MethodPut, "/api/posts/"+id, map[string]string{"title": "Owner title"}, ownerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: expected 200, got %d %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, `"title":"Owner title"`) || !strings.Contains(body, `"username":"alice"`) {
		t.Fatalf("update must return the joined post: %s", body)
	}
	if w := doJSON(r, http.MethodDelete, "/api/posts/"+id, nil, ownerToken); w.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/posts/"+id, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestGetUnknownPost(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/posts/9999", "/api/posts/not-a-number"} {
		if w := doJSON(r, http.MethodGet, path, nil, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestListPosts(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, http.MethodPost, "/api/auth/register", registerBody("lister@example.com"), "")
	token := loginToken(t, r, "lister@example.com", "password1")
	doJSON(r, http.MethodPost, "/api/posts", map[string]string{
		"title": "First post", "content": "long enough content",
	}, token)

	w := doJSON(r, http.MethodGet, "/api/posts", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var posts []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
}
