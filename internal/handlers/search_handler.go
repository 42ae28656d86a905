package handlers

import (
	"net/http"

	"github.com/connecthub/connecthub/internal/services"
)

type SearchHandler struct {
	Users *services.UserService
	Posts *services.PostService
}

func NewSearchHandler(users *services.UserService, posts *services.PostService) *SearchHandler {
	return &SearchHandler{Users: users, Posts: posts}
}

// SearchHandler serves GET /api/search?q= with the first page of users and
// posts together.
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	users, err := h.Users.SearchUsers(r.Context(), q, 1, 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	posts, err := h.Posts.SearchPosts(r.Context(), q, 1, 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"users": users.Items, "posts": posts.Items})
}

// SearchUsersHandler serves GET /api/search/users?q=&page=&limit=.
func (h *SearchHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Users.SearchUsers(r.Context(), r.URL.Query().Get("q"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"users": page.Items, "pagination": page.Pagination})
}

// SearchPostsHandler serves GET /api/search/posts?q=&page=&limit=.
func (h *SearchHandler) SearchPostsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Posts.SearchPosts(r.Context(), r.URL.Query().Get("q"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"posts": page.Items, "pagination": page.Pagination})
}
