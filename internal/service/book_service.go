package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shelfwise/bookstore/internal/domain"
	"github.com/shelfwise/bookstore/internal/repo/postgres"
	"github.com/shelfwise/bookstore/internal/storage"
	"github.com/shelfwise/bookstore/pkg/events"
	"github.com/shelfwise/bookstore/pkg/logger"
)

// Upload is an optional cover image attached to an add or edit request.
type Upload struct {
	Filename string
	Data     io.Reader
}

type BookService interface {
	List(ctx context.Context) ([]domain.Book, error)
	Get(ctx context.Context, id int64) (*domain.Book, error)
	Add(ctx context.Context, req *domain.CreateBookRequest, image *Upload) (*domain.Book, error)
	Edit(ctx context.Context, id int64, req *domain.UpdateBookRequest, image *Upload) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
}

type bookService struct {
	books postgres.BookRepository
	files storage.FileStore
	bus   events.Publisher
}

func NewBookService(books postgres.BookRepository, files storage.FileStore, bus events.Publisher) BookService {
	return &bookService{books: books, files: files, bus: bus}
}

func (s *bookService) List(ctx context.Context) ([]domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (s *bookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		return nil, domain.ErrNotFound
	}
	return book, nil
}

func (s *bookService) Add(ctx context.Context, req *domain.CreateBookRequest, image *Upload) (*domain.Book, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	imagePath := ""
	if image != nil {
		path, err := s.files.Save(image.Filename, image.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		imagePath = path
	}

	book, err := s.books.Create(ctx, req, imagePath)
	if err != nil {
		if imagePath != "" {
			_ = s.files.Remove(imagePath)
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	if err := s.bus.Publish(ctx, events.BookCreated, events.BookEvent{
		BookID: book.ID,
		Name:   book.Name,
		Author: book.Author,
		At:     time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish book event", "error", err, "book_id", book.ID)
	}

	return book, nil
}

func (s *bookService) Edit(ctx context.Context, id int64, req *domain.UpdateBookRequest, image *Upload) (*domain.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	prev, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if prev == nil {
		return nil, domain.ErrNotFound
	}

	var imagePath *string
	if image != nil {
		path, err := s.files.Save(image.Filename, image.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		imagePath = &path
	}

	book, err := s.books.Update(ctx, id, req, imagePath)
	if err != nil {
		if imagePath != nil {
			_ = s.files.Remove(*imagePath)
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	if imagePath != nil && prev.ImagePath != "" {
		if err := s.files.Remove(prev.ImagePath); err != nil {
			logger.WarnContext(ctx, "failed to remove replaced image", "error", err, "book_id", id)
		}
	}

	if err := s.bus.Publish(ctx, events.BookUpdated, events.BookEvent{
		BookID: book.ID,
		Name:   book.Name,
		Author: book.Author,
		At:     time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish book event", "error", err, "book_id", book.ID)
	}

	return book, nil
}

func (s *bookService) Delete(ctx context.Context, id int64) error {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get book: %w", err)
	}
	if book == nil {
		return domain.ErrNotFound
	}

	if err := s.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if book.ImagePath != "" {
		if err := s.files.Remove(book.ImagePath); err != nil {
			logger.WarnContext(ctx, "failed to remove book image", "error", err, "book_id", id)
		}
	}

	if err := s.bus.Publish(ctx, events.BookDeleted, events.BookEvent{
		BookID: book.ID,
		Name:   book.Name,
		Author: book.Author,
		At:     time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish book event", "error", err, "book_id", id)
	}

	return nil
}
