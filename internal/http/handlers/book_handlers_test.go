package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, imageName string, image []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("bookImage", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func adminEnv(t *testing.T) (*testEnv, string, string) {
	t.Helper()
	env := newTestEnv(t)
	env.registerUser(t, "admin@x.com", "admin-pass-1", "admin")
	env.registerUser(t, "user@x.com", "user-pass-1", "")
	admin := env.loginToken(t, "admin@x.com", "admin-pass-1")
	user := env.loginToken(t, "user@x.com", "user-pass-1")
	return env, admin, user
}

func TestCatalogRequiresAuth(t *testing.T) {
	env, _, _ := adminEnv(t)

	if rec := env.doJSON(t, http.MethodGet, "/api/books/", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d", rec.Code)
	}
	// A malformed token is rejected before any role inspection happens.
	if rec := env.doMultipart(t, http.MethodPost, "/api/books/add", map[string]string{}, "", nil, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed token status = %d", rec.Code)
	}
}

func TestCatalogAdminGate(t *testing.T) {
	env, admin, user := adminEnv(t)

	fields := map[string]string{
		"bookName":   "The Go Programming Language",
		"bookAuthor": "Donovan & Kernighan",
		"bookPrice":  "3999",
	}

	if rec := env.doMultipart(t, http.MethodPost, "/api/books/add", fields, "", nil, user); rec.Code != http.StatusForbidden {
		t.Fatalf("user add status = %d", rec.Code)
	}
	if rec := env.doMultipart(t, http.MethodPost, "/api/books/add", fields, "", nil, admin); rec.Code != http.StatusCreated {
		t.Fatalf("admin add status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestBookCRUD(t *testing.T) {
	env, admin, user := adminEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/books/add", map[string]string{
		"bookName":   "The Go Programming Language",
		"bookAuthor": "Donovan & Kernighan",
		"bookPrice":  "3999",
	}, "cover.png", []byte("png-bytes"), admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		ImagePath string `json:"image_path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created book: %v", err)
	}
	if created.ImagePath == "" {
		t.Fatal("image was not stored")
	}
	if _, ok := env.files.files[created.ImagePath]; !ok {
		t.Fatalf("file store has no %q", created.ImagePath)
	}

	// Any authenticated user can browse.
	rec = env.doJSON(t, http.MethodGet, "/api/books/", nil, user)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}

	rec = env.doMultipart(t, http.MethodPut, "/api/books/edit/1", map[string]string{
		"bookPrice": "2999",
	}, "", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var edited struct {
		Price int64  `json:"price"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &edited); err != nil {
		t.Fatalf("decode edited book: %v", err)
	}
	if edited.Price != 2999 {
		t.Fatalf("price = %d, want 2999", edited.Price)
	}
	if edited.Name != "The Go Programming Language" {
		t.Fatalf("untouched field changed: %q", edited.Name)
	}

	if rec := env.doJSON(t, http.MethodDelete, "/api/books/delete/1", nil, admin); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.doJSON(t, http.MethodGet, "/api/books/1", nil, user); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", rec.Code)
	}
	if len(env.files.files) != 0 {
		t.Fatalf("image not cleaned up: %v", env.files.files)
	}
}

func TestBookNotFound(t *testing.T) {
	env, admin, _ := adminEnv(t)

	if rec := env.doJSON(t, http.MethodGet, "/api/books/42", nil, admin); rec.Code != http.StatusNotFound {
		t.Fatalf("get status = %d", rec.Code)
	}
	if rec := env.doMultipart(t, http.MethodPut, "/api/books/edit/42", map[string]string{"bookPrice": "1"}, "", nil, admin); rec.Code != http.StatusNotFound {
		t.Fatalf("edit status = %d", rec.Code)
	}
	if rec := env.doJSON(t, http.MethodDelete, "/api/books/delete/42", nil, admin); rec.Code != http.StatusNotFound {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestAddBookValidation(t *testing.T) {
	env, admin, _ := adminEnv(t)

	if rec := env.doMultipart(t, http.MethodPost, "/api/books/add", map[string]string{
		"bookName":   "",
		"bookAuthor": "Someone",
		"bookPrice":  "100",
	}, "", nil, admin); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}

	if rec := env.doMultipart(t, http.MethodPost, "/api/books/add", map[string]string{
		"bookName":   "A Book",
		"bookAuthor": "Someone",
		"bookPrice":  "not-a-number",
	}, "", nil, admin); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad price status = %d", rec.Code)
	}
}
