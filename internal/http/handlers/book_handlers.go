package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"
	"github.com/shelfwise/bookstore/pkg/logger"
)

// Multipart form memory ceiling; larger files spill to temp disk.
const multipartMaxMemory = 4 << 20

// ListBooks handles GET /api/books.
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "book list failed", "error", err)
		response.InternalError(w, "failed to fetch books")
		return
	}
	response.WriteJSON(w, http.StatusOK, books)
}

// GetBook handles GET /api/books/{id}.
func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "book not found")
			return
		}
		logger.ErrorContext(r.Context(), "book lookup failed", "error", err)
		response.InternalError(w, "failed to fetch book")
		return
	}
	response.WriteJSON(w, http.StatusOK, book)
}

// AddBook handles POST /api/books/add (multipart, admin only).
func (h *Handlers) AddBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	price, err := strconv.ParseInt(r.FormValue("bookPrice"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid book price")
		return
	}
	req := domain.CreateBookRequest{
		Name:   r.FormValue("bookName"),
		Author: r.FormValue("bookAuthor"),
		Price:  price,
	}

	image, closeImage, ok := formImage(w, r)
	if !ok {
		return
	}
	defer closeImage()

	book, err := h.books.Add(r.Context(), &req, image)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			response.BadRequest(w, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "book create failed", "error", err)
		response.InternalError(w, "failed to add book")
		return
	}
	response.WriteJSON(w, http.StatusCreated, book)
}

// EditBook handles PUT /api/books/edit/{id} (multipart, admin only).
func (h *Handlers) EditBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	var req domain.UpdateBookRequest
	if vs := r.MultipartForm.Value["bookName"]; len(vs) > 0 {
		req.Name = &vs[0]
	}
	if vs := r.MultipartForm.Value["bookAuthor"]; len(vs) > 0 {
		req.Author = &vs[0]
	}
	if vs := r.MultipartForm.Value["bookPrice"]; len(vs) > 0 {
		price, err := strconv.ParseInt(vs[0], 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid book price")
			return
		}
		req.Price = &price
	}

	image, closeImage, ok := formImage(w, r)
	if !ok {
		return
	}
	defer closeImage()

	book, err := h.books.Edit(r.Context(), id, &req, image)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			response.BadRequest(w, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "book not found")
		default:
			logger.ErrorContext(r.Context(), "book update failed", "error", err)
			response.InternalError(w, "failed to edit book")
		}
		return
	}
	response.WriteJSON(w, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/delete/{id} (admin only).
func (h *Handlers) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	if err := h.books.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "book not found")
			return
		}
		logger.ErrorContext(r.Context(), "book delete failed", "error", err)
		response.InternalError(w, "failed to delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid book id")
		return 0, false
	}
	return id, true
}

// formImage extracts the optional bookImage upload. The cleanup func is
// always safe to call.
func formImage(w http.ResponseWriter, r *http.Request) (*service.Upload, func(), bool) {
	file, header, err := r.FormFile("bookImage")
	if err == http.ErrMissingFile {
		return nil, func() {}, true
	}
	if err != nil {
		response.BadRequest(w, "invalid book image")
		return nil, func() {}, false
	}
	return &service.Upload{
		Filename: header.Filename,
		Data:     file,
	}, func() { file.Close() }, true
}
