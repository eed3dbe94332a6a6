package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/http/handlers"
	mw "github.com/shelfwise/bookstore/internal/http/middleware"
	"github.com/shelfwise/bookstore/internal/otp"
	"github.com/shelfwise/bookstore/internal/service"
	"github.com/shelfwise/bookstore/pkg/config"
	"github.com/shelfwise/bookstore/pkg/events"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, byEmail: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, name, email, passwordHash, role string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[email]; exists {
		return nil, domain.ErrEmailExists
	}
	u := &domain.User{
		ID:           m.nextID,
		Role:         role,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.byEmail[email] = u
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type mockMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastCode string
	sendErr  error
}

func (m *mockMailer) SendPasswordResetOTP(toEmail, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.lastCode = code
	return m.sendErr
}

func (m *mockMailer) code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCode
}

type mockBookRepo struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]*domain.Book
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{nextID: 1, books: make(map[int64]*domain.Book)}
}

func (m *mockBookRepo) Create(_ context.Context, req *domain.CreateBookRequest, imagePath string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &domain.Book{
		ID:        m.nextID,
		Name:      req.Name,
		Author:    req.Author,
		Price:     req.Price,
		ImagePath: imagePath,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.nextID++
	m.books[b.ID] = b
	return b, nil
}

func (m *mockBookRepo) List(_ context.Context) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Book{}
	for id := int64(1); id < m.nextID; id++ {
		if b, ok := m.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookRepo) FindByID(_ context.Context, id int64) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookRepo) Update(_ context.Context, id int64, req *domain.UpdateBookRequest, imagePath *string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.Price != nil {
		b.Price = *req.Price
	}
	if imagePath != nil {
		b.ImagePath = *imagePath
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (m *mockBookRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

type memFileStore struct {
	mu    sync.Mutex
	seq   int
	files map[string][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string][]byte)}
}

func (s *memFileStore) Save(filename string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	name := fmt.Sprintf("file-%d", s.seq)
	s.files[name] = data
	return name, nil
}

func (s *memFileStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// ---------- Test env ----------

const testSecret = "test-secret"

type testEnv struct {
	router *chi.Mux
	mail   *mockMailer
	users  *mockUserRepo
	books  *mockBookRepo
	files  *memFileStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      testSecret,
			AccessTokenTTL: time.Hour,
			OTPTTL:         10 * time.Minute,
			ResetTicketTTL: 10 * time.Minute,
		},
	}

	users := newMockUserRepo()
	books := newMockBookRepo()
	mail := &mockMailer{}
	files := newMemFileStore()

	authService := service.NewAuthService(users, otp.NewMemoryRegistry(), otp.NewMemoryRegistry(), mail, events.NoopPublisher{}, cfg)
	bookService := service.NewBookService(books, files, events.NoopPublisher{})
	h := handlers.New(authService, bookService, cfg)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/registration", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(cfg.Auth.JWTSecret))
			r.Get("/profile", h.Profile)
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(mw.RequireAuth(cfg.Auth.JWTSecret))
			r.Get("/", h.ListBooks)
			r.Get("/{id}", h.GetBook)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Post("/add", h.AddBook)
				r.Put("/edit/{id}", h.EditBook)
				r.Delete("/delete/{id}", h.DeleteBook)
			})
		})
	})

	return &testEnv{router: r, mail: mail, users: users, books: books, files: files}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doJSON(t, http.MethodPost, path, body, token)
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (e *testEnv) registerUser(t *testing.T, email, password, role string) {
	t.Helper()
	rec := e.postJSON(t, "/api/registration", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": password,
		"role":     role,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("registration status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func (e *testEnv) loginToken(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.postJSON(t, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login response has no token: %s", rec.Body.String())
	}
	return token
}
