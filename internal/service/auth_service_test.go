package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"webauth/internal/models"
	"webauth/internal/repository"
)

// mockUserStore is a lightweight in-test mock for repository.UserStore.
type mockUserStore struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)
	GetByIDFn       func(id int) (*models.User, error)

	createCalls []struct {
		username string
		hash     string
	}
	getCalls []string
}

func (m *mockUserStore) Create(_ context.Context, username, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func (m *mockUserStore) GetByID(_ context.Context, id int) (*models.User, error) {
	return m.GetByIDFn(id)
}

const testCost = bcrypt.DefaultCost

func TestNewAuthService_FloorsWeakCost(t *testing.T) {
	var storedHash string
	mock := &mockUserStore{
		CreateFn: func(username, hash string) (int, error) {
			storedHash = hash
			return 1, nil
		},
		GetByUsernameFn: func(username string) (*models.User, error) {
			return &models.User{ID: 1, Username: username, PasswordHash: storedHash}, nil
		},
	}
	svc := NewAuthService(mock, bcrypt.MinCost) // 4, below the enforced floor

	if _, err := svc.Register(context.Background(), "frank", "pass123"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(storedHash))
	if err != nil {
		t.Fatalf("cannot read cost from stored hash: %v", err)
	}
	if cost < bcrypt.DefaultCost {
		t.Fatalf("hash cost %d is below the enforced minimum %d", cost, bcrypt.DefaultCost)
	}
}

// --- Register tests ---

func TestAuthService_Register_HashesPasswordAndReturnsIdentity(t *testing.T) {
	var storedHash string
	mock := &mockUserStore{
		CreateFn: func(username, hash string) (int, error) {
			storedHash = hash
			return 42, nil
		},
		GetByUsernameFn: func(username string) (*models.User, error) {
			return &models.User{ID: 42, Username: username, PasswordHash: storedHash}, nil
		},
	}
	svc := NewAuthService(mock, testCost)

	u, err := svc.Register(context.Background(), "alice", "s3cr3t")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if u == nil || u.ID != 42 || u.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", u)
	}

	if len(mock.createCalls) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.createCalls))
	}
	call := mock.createCalls[0]
	if call.hash == "s3cr3t" {
		t.Errorf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(call.hash), []byte("s3cr3t")); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}

	// Registration re-authenticates the supplied credentials.
	if len(mock.getCalls) != 1 || mock.getCalls[0] != "alice" {
		t.Fatalf("expected one re-authentication lookup for alice, got %v", mock.getCalls)
	}
}

func TestAuthService_Register_EmptyCredentials(t *testing.T) {
	mock := &mockUserStore{
		CreateFn: func(username, hash string) (int, error) {
			t.Fatal("Create should not be called for empty credentials")
			return 0, nil
		},
	}
	svc := NewAuthService(mock, testCost)

	for _, in := range []struct{ username, password string }{
		{"bob", "   "},
		{"  ", "pass123"},
	} {
		if _, err := svc.Register(context.Background(), in.username, in.password); !errors.Is(err, ErrEmptyCredentials) {
			t.Fatalf("expected ErrEmptyCredentials for %+v, got %v", in, err)
		}
	}
	if len(mock.createCalls) != 0 {
		t.Fatalf("expected no Create calls, got %d", len(mock.createCalls))
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	mock := &mockUserStore{
		CreateFn: func(username, hash string) (int, error) {
			return 0, repository.ErrDuplicateUsername
		},
	}
	svc := NewAuthService(mock, testCost)

	_, err := svc.Register(context.Background(), "alice", "pass123")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Register_RepoError(t *testing.T) {
	mock := &mockUserStore{
		CreateFn: func(username, hash string) (int, error) {
			return 0, errors.New("db down")
		},
	}
	svc := NewAuthService(mock, testCost)

	_, err := svc.Register(context.Background(), "carl", "pass123")
	if err == nil {
		t.Fatalf("expected repo error, got nil")
	}
	if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("store failure must not masquerade as a domain rejection: %v", err)
	}
}

// --- Authenticate tests ---

func TestAuthService_Authenticate_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), testCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	mock := &mockUserStore{
		GetByUsernameFn: func(username string) (*models.User, error) {
			if username != "diana" {
				t.Fatalf("expected username 'diana', got %q", username)
			}
			return &models.User{ID: 7, Username: "diana", PasswordHash: string(hash)}, nil
		},
	}
	svc := NewAuthService(mock, testCost)

	u, err := svc.Authenticate(context.Background(), "diana", "letmein")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if u.ID != 7 || u.Username != "diana" {
		t.Fatalf("unexpected identity: %+v", u)
	}
}

func TestAuthService_Authenticate_RejectionsAreIndistinguishable(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), testCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	mock := &mockUserStore{
		GetByUsernameFn: func(username string) (*models.User, error) {
			if username == "eve" {
				return &models.User{ID: 1, Username: "eve", PasswordHash: string(hash)}, nil
			}
			return nil, nil
		},
	}
	svc := NewAuthService(mock, testCost)

	_, badPassErr := svc.Authenticate(context.Background(), "eve", "wrong")
	_, noUserErr := svc.Authenticate(context.Background(), "ghost", "anything")

	// Both paths must collapse to the same sentinel: a caller cannot
	// tell "no such user" apart from "bad password".
	if !errors.Is(badPassErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", badPassErr)
	}
	if !errors.Is(noUserErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", noUserErr)
	}
	if badPassErr.Error() != noUserErr.Error() {
		t.Fatalf("rejections differ observably: %q vs %q", badPassErr, noUserErr)
	}
}

func TestAuthService_Authenticate_RepoError(t *testing.T) {
	mock := &mockUserStore{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return nil, errors.New("query failed")
		},
	}
	svc := NewAuthService(mock, testCost)

	_, err := svc.Authenticate(context.Background(), "john", "pw")
	if err == nil {
		t.Fatalf("expected repo error, got nil")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("store failure must not look like a credential rejection: %v", err)
	}
}

// --- concurrent registration ---

// uniqueUserStore enforces username uniqueness atomically, like the
// UNIQUE constraint in the real schema.
type uniqueUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User
}

func newUniqueUserStore() *uniqueUserStore {
	return &uniqueUserStore{users: make(map[string]*models.User)}
}

func (s *uniqueUserStore) Create(_ context.Context, username, hash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return 0, repository.ErrDuplicateUsername
	}
	s.nextID++
	s.users[username] = &models.User{ID: s.nextID, Username: username, PasswordHash: hash}
	return s.nextID, nil
}

func (s *uniqueUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *uniqueUserStore) GetByID(_ context.Context, id int) (*models.User, error) {
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

func TestAuthService_Register_ConcurrentSameUsername(t *testing.T) {
	store := newUniqueUserStore()
	svc := NewAuthService(store, testCost)

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "highlander", "there-can-be-only-one")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrUsernameTaken):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", successes)
	}
	if duplicates != workers-1 {
		t.Fatalf("expected %d duplicate rejections, got %d", workers-1, duplicates)
	}
	if len(store.users) != 1 {
		t.Fatalf("store should contain exactly one record, got %d", len(store.users))
	}
}
