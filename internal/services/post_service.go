package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pagination bounds.
const (
	DefaultPostLimit    = 10
	MaxPostLimit        = 50
	DefaultCommentLimit = 5
)

// ClampPage normalizes a 1-based page number and a page size.
func ClampPage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

type PostService struct {
	repo      PostStore
	directory *Directory
	notifier  *NotificationService
}

func NewPostService(repo PostStore, directory *Directory, notifier *NotificationService) *PostService {
	return &PostService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
	}
}

// ListPosts returns one page of the global feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, page, limit int) (*models.Page[models.PostView], error) {
	page, limit = ClampPage(page, limit, DefaultPostLimit, MaxPostLimit)

	posts, total, err := s.repo.ListPosts(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.PostView]{
		Items:      views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// CreatePost stores a post with text, an image path, or both.
func (s *PostService) CreatePost(ctx context.Context, authorID primitive.ObjectID, text, image string) (*models.PostView, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return nil, invalid("Post must have text or an image")
	}

	post, err := s.repo.CreatePost(ctx, &models.Post{
		AuthorID: authorID,
		Text:     text,
		Image:    image,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"postID": post.ID.Hex(),
		"author": authorID.Hex(),
	}).Info("Post created")
	return s.view(ctx, post)
}

// GetPost returns a post with its newest DefaultCommentLimit comments.
func (s *PostService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.PostDetail, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, post)
	if err != nil {
		return nil, err
	}

	comments, _, err := s.repo.ListComments(ctx, id, 0, DefaultCommentLimit)
	if err != nil {
		return nil, err
	}
	commentViews, err := s.commentViews(ctx, comments)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{PostView: *view, Comments: commentViews}, nil
}

// DeletePost removes a post owned by actorID along with its comments.
func (s *PostService) DeletePost(ctx context.Context, id, actorID primitive.ObjectID) error {
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return unauthorized("Not authorized to delete this post")
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Post not found")
		}
		return err
	}
	logrus.WithField("postID", id.Hex()).Info("Post deleted")
	return nil
}

// LikePost adds actorID to the post's likes. Liking twice is a no-op.
func (s *PostService) LikePost(ctx context.Context, id, actorID primitive.ObjectID) (*models.PostView, error) {
	before, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	post, err := s.repo.AddLike(ctx, id, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}

	alreadyLiked := false
	for _, uid := range before.Likes {
		if uid == actorID {
			alreadyLiked = true
			break
		}
	}
	if !alreadyLiked && post.AuthorID != actorID {
		s.notifyActor(ctx, post.AuthorID, actorID, post.ID, models.NotificationPostLiked,
			"New like", "%s liked your post")
	}
	return s.view(ctx, post)
}

func (s *PostService) UnlikePost(ctx context.Context, id, actorID primitive.ObjectID) (*models.PostView, error) {
	post, err := s.repo.RemoveLike(ctx, id, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, post)
}

// ListComments returns a page of a post's comments, newest first.
func (s *PostService) ListComments(ctx context.Context, postID primitive.ObjectID, page, limit int) (*models.Page[models.CommentView], error) {
	if _, err := s.find(ctx, postID); err != nil {
		return nil, err
	}
	page, limit = ClampPage(page, limit, DefaultCommentLimit, MaxPostLimit)

	comments, total, err := s.repo.ListComments(ctx, postID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	views, err := s.commentViews(ctx, comments)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.CommentView]{
		Items:      views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

func (s *PostService) commentViews(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]primitive.ObjectID, len(comments))
	for i := range comments {
		ids[i] = comments[i].AuthorID
	}
	authors, err := s.directory.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve comment authors: %w", err)
	}

	views := make([]models.CommentView, len(comments))
	for i, c := range comments {
		author, ok := authors[c.AuthorID]
		if !ok {
			author = placeholder(c.AuthorID)
		}
		views[i] = models.CommentView{Comment: c, Author: author}
	}
	return views, nil
}

func (s *PostService) AddComment(ctx context.Context, postID, authorID primitive.ObjectID, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Comment text is required")
	}
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.CreateComment(ctx, &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}

	if post.AuthorID != authorID {
		s.notifyActor(ctx, post.AuthorID, authorID, post.ID, models.NotificationPostCommented,
			"New comment", "%s commented on your post")
	}

	authors, err := s.directory.Summaries(ctx, []primitive.ObjectID{authorID})
	if err != nil {
		return nil, err
	}
	author, ok := authors[authorID]
	if !ok {
		author = placeholder(authorID)
	}
	return &models.CommentView{Comment: *comment, Author: author}, nil
}

// DeleteComment removes a comment. The comment's author and the post's author
// may both delete it.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID, actorID primitive.ObjectID) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && comment.PostID != postID) {
		return notFound("Comment not found")
	}
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID && post.AuthorID != actorID {
		return unauthorized("Not authorized to delete this comment")
	}
	if err := s.repo.DeleteComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Comment not found")
		}
		return err
	}
	return nil
}

// SearchPosts returns one page of posts whose text contains query.
func (s *PostService) SearchPosts(ctx context.Context, query string, page, limit int) (*models.Page[models.PostView], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Search query is required")
	}
	page, limit = ClampPage(page, limit, DefaultSearchLimit, MaxSearchLimit)

	posts, total, err := s.repo.SearchPosts(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.PostView]{
		Items:      views,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

func (s *PostService) find(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) view(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := s.views(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	ids := make([]primitive.ObjectID, len(posts))
	for i := range posts {
		ids[i] = posts[i].AuthorID
	}
	authors, err := s.directory.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authors: %w", err)
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			author = placeholder(p.AuthorID)
		}
		if p.Likes == nil {
			p.Likes = []primitive.ObjectID{}
		}
		views[i] = models.PostView{
			Post:     p,
			Author:   author,
			ImageURL: s.directory.ImageURL(p.Image),
		}
	}
	return views, nil
}

// notifyActor tells recipient that actor did something to postID. format
// receives the actor's username.
func (s *PostService) notifyActor(ctx context.Context, recipient, actor, postID primitive.ObjectID, notifType, title, format string) {
	if s.notifier == nil {
		return
	}
	name := "Someone"
	if users, err := s.directory.Summaries(ctx, []primitive.ObjectID{actor}); err == nil {
		if u, ok := users[actor]; ok {
			name = u.Username
		}
	}
	if err := s.notifier.Notify(ctx, recipient, notifType, title, fmt.Sprintf(format, name), &actor, &postID); err != nil {
		logrus.WithError(err).WithField("userID", recipient.Hex()).Warn("Failed to store notification")
	}
}
