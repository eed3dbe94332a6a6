package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"
	"github.com/shelfwise/bookstore/pkg/config"
)

type Handlers struct {
	auth   service.AuthService
	books  service.BookService
	config *config.Config
}

func New(auth service.AuthService, books service.BookService, config *config.Config) *Handlers {
	return &Handlers{
		auth:   auth,
		books:  books,
		config: config,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
