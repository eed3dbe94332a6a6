package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfwise/bookstore/internal/domain"
)

type BookRepository interface {
	Create(ctx context.Context, req *domain.CreateBookRequest, imagePath string) (*domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
	// FindByID returns (nil, nil) when no book matches.
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
	// Update applies only the non-nil fields. imagePath nil keeps the
	// stored image. Returns domain.ErrNotFound for an unknown id.
	Update(ctx context.Context, id int64, req *domain.UpdateBookRequest, imagePath *string) (*domain.Book, error)
	Delete(ctx context.Context, id int64) error
}

type bookRepository struct {
	pool *pgxpool.Pool
}

func NewBookRepository(pool *pgxpool.Pool) BookRepository {
	return &bookRepository{pool: pool}
}

func (r *bookRepository) Create(ctx context.Context, req *domain.CreateBookRequest, imagePath string) (*domain.Book, error) {
	const q = `
INSERT INTO books (name, author, price, image_path)
VALUES ($1, $2, $3, $4)
RETURNING id, name, author, price, image_path, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Book
	err := r.pool.QueryRow(ctx, q, req.Name, req.Author, req.Price, imagePath).Scan(
		&b.ID, &b.Name, &b.Author, &b.Price, &b.ImagePath, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) List(ctx context.Context) ([]domain.Book, error) {
	const q = `
SELECT id, name, author, price, image_path, created_at, updated_at
FROM books ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Author, &b.Price, &b.ImagePath, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *bookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	const q = `
SELECT id, name, author, price, image_path, created_at, updated_at
FROM books WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Book
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.Name, &b.Author, &b.Price, &b.ImagePath, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Update(ctx context.Context, id int64, req *domain.UpdateBookRequest, imagePath *string) (*domain.Book, error) {
	const q = `
UPDATE books SET
    name = COALESCE($2, name),
    author = COALESCE($3, author),
    price = COALESCE($4, price),
    image_path = COALESCE($5, image_path),
    updated_at = now()
WHERE id = $1
RETURNING id, name, author, price, image_path, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Book
	err := r.pool.QueryRow(ctx, q, id, req.Name, req.Author, req.Price, imagePath).Scan(
		&b.ID, &b.Name, &b.Author, &b.Price, &b.ImagePath, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM books WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
