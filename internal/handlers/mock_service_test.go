package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"golang.org/x/crypto/bcrypt"

	"webauth/internal/models"
	"webauth/internal/repository"
	"webauth/internal/service"
)

// ---- Service mocks ----

type mockAuth struct {
	RegisterFn     func(username, password string) (*models.User, error)
	AuthenticateFn func(username, password string) (*models.User, error)

	lastRegisterUsername string
	lastAuthUsername     string
}

func (m *mockAuth) Register(_ context.Context, username, password string) (*models.User, error) {
	m.lastRegisterUsername = username
	return m.RegisterFn(username, password)
}

func (m *mockAuth) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	m.lastAuthUsername = username
	return m.AuthenticateFn(username, password)
}

type mockIdentity struct {
	DeserializeFn func(userID int) (*models.User, error)
}

func (m *mockIdentity) Serialize(u *models.User) int { return u.ID }

func (m *mockIdentity) Deserialize(_ context.Context, userID int) (*models.User, error) {
	return m.DeserializeFn(userID)
}

type mockEvents struct {
	ListFn func(f service.EventFilter) ([]models.AuthEvent, error)

	mu       sync.Mutex
	recorded []models.AuthEvent
}

func (m *mockEvents) Record(_ context.Context, eventType, username string, meta any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, models.AuthEvent{Type: eventType, Username: username, Metadata: meta})
	return nil
}

func (m *mockEvents) List(_ context.Context, f service.EventFilter) ([]models.AuthEvent, error) {
	if m.ListFn != nil {
		return m.ListFn(f)
	}
	return nil, nil
}

func (m *mockEvents) recordedTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.recorded))
	for _, e := range m.recorded {
		out = append(out, e.Type)
	}
	return out
}

// ---- In-memory stores for end-to-end flows through the real services ----

type memUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) Create(_ context.Context, username, hash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return 0, repository.ErrDuplicateUsername
	}
	s.nextID++
	s.users[username] = &models.User{ID: s.nextID, Username: username, PasswordHash: hash}
	return s.nextID, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByID(_ context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) delete(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type memEventStore struct {
	mu     sync.Mutex
	events []models.AuthEvent
}

func (s *memEventStore) Append(_ context.Context, e models.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	s.events = append(s.events, e)
	return nil
}

func (s *memEventStore) List(_ context.Context, from, to time.Time, typ string) ([]models.AuthEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuthEvent, 0, len(s.events))
	for _, e := range s.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ---- Router and cookie-jar helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	store := cookie.NewStore([]byte("test-secret"))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400, HttpOnly: true})
	return h.InitRoutes(store)
}

// newRealServiceRouter wires the full stack over in-memory stores.
func newRealServiceRouter() (*gin.Engine, *memUserStore, *memEventStore) {
	users := newMemUserStore()
	events := &memEventStore{}
	svc := service.NewService(&repository.Repository{Users: users, Events: events}, bcrypt.DefaultCost)
	return newTestRouter(svc), users, events
}

// cookieJar is just enough of a browser jar for these flows: it keeps
// the latest cookie per name and drops expired ones.
type cookieJar map[string]*http.Cookie

func (j cookieJar) update(res *http.Response) {
	for _, c := range res.Cookies() {
		if c.MaxAge < 0 {
			delete(j, c.Name)
			continue
		}
		j[c.Name] = c
	}
}

func (j cookieJar) apply(req *http.Request) {
	for _, c := range j {
		req.AddCookie(c)
	}
}

func doFormPost(t *testing.T, r *gin.Engine, jar cookieJar, path, form string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	jar.apply(req)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	jar.update(w.Result())
	return w
}

func doGet(t *testing.T, r *gin.Engine, jar cookieJar, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	jar.apply(req)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	jar.update(w.Result())
	return w
}
