package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connecthub/connecthub/internal/services"
	"github.com/connecthub/connecthub/pkg/logger"
)

type PostHandler struct {
	Service *services.PostService
	Uploads *Uploads
}

func NewPostHandler(service *services.PostService, uploads *Uploads) *PostHandler {
	return &PostHandler{Service: service, Uploads: uploads}
}

// ListPostsHandler serves GET /api/posts?page=&limit=.
func (h *PostHandler) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListPosts(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"posts": page.Items, "pagination": page.Pagination})
}

// CreatePostHandler accepts JSON {text} or a multipart form with text and image.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var text, image string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+(1<<20))
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "File too big or invalid format")
			return
		}
		text = r.FormValue("text")

		var err error
		image, err = h.Uploads.formImage(r, "image")
		if errors.Is(err, errBadImage) {
			writeError(w, http.StatusBadRequest, errBadImage.Error())
			return
		}
		if err != nil {
			logger.Log.WithError(err).Error("Failed to store post image")
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
	} else {
		var body struct {
			Text string `json:"text"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		text = body.Text
	}

	post, err := h.Service.CreatePost(r.Context(), userID, text, image)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"post": post})
}

// GetPostHandler returns a post with its newest comments inlined.
func (h *PostHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	post, err := h.Service.GetPost(r.Context(), postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"post": post})
}

func (h *PostHandler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	if err := h.Service.DeletePost(r.Context(), postID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"msg": "Post deleted"})
}

func (h *PostHandler) LikePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	post, err := h.Service.LikePost(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"post": post})
}

func (h *PostHandler) UnlikePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	post, err := h.Service.UnlikePost(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"post": post})
}

func (h *PostHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	page, err := h.Service.ListComments(r.Context(), postID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"comments": page.Items, "pagination": page.Pagination})
}

func (h *PostHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	comment, err := h.Service.AddComment(r.Context(), postID, userID, body.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"comment": comment})
}

func (h *PostHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id", "post")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.Service.DeleteComment(r.Context(), postID, commentID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"msg": "Comment deleted"})
}
