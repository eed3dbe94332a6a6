package domain

import (
	"fmt"
	"strings"
	"time"
)

type Book struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Price     int64     `json:"price"` // smallest currency unit
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateBookRequest struct {
	Name   string
	Author string
	Price  int64
}

// UpdateBookRequest carries only the fields present in the form; nil means
// leave the column as is.
type UpdateBookRequest struct {
	Name   *string
	Author *string
	Price  *int64
}

func (r *CreateBookRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Author = strings.TrimSpace(r.Author)
}

func (r *CreateBookRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("book name is required")
	}
	if r.Author == "" {
		return fmt.Errorf("book author is required")
	}
	if r.Price < 0 {
		return fmt.Errorf("book price must not be negative")
	}
	return nil
}

func (r *UpdateBookRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("book name must not be empty")
	}
	if r.Author != nil && strings.TrimSpace(*r.Author) == "" {
		return fmt.Errorf("book author must not be empty")
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("book price must not be negative")
	}
	return nil
}
