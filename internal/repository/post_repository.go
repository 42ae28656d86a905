package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository stores posts and their comments.
type PostRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
	}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}

	result, err := r.posts.InsertOne(ctx, post)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert post")
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	post.ID = result.InsertedID.(primitive.ObjectID)
	return post, nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, fmt.Errorf("failed to find post: %w", translate(err))
	}
	return &post, nil
}

// ListPosts returns one page of posts, newest first, and the total count.
func (r *PostRepository) ListPosts(ctx context.Context, skip, limit int) ([]models.Post, int64, error) {
	total, err := r.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	posts, err := r.findPosts(ctx, bson.M{}, opts)
	return posts, total, err
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	return r.posts.CountDocuments(ctx, bson.M{"author": authorID})
}

// SearchPosts returns one page of posts whose text contains query, newest
// first, and the total match count.
func (r *PostRepository) SearchPosts(ctx context.Context, query string, skip, limit int) ([]models.Post, int64, error) {
	filter := bson.M{"text": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	total, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	posts, err := r.findPosts(ctx, filter, opts)
	return posts, total, err
}

// DeletePost removes the post and all of its comments.
func (r *PostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := r.comments.DeleteMany(ctx, bson.M{"post": id}); err != nil {
		return fmt.Errorf("failed to delete comments of post %s: %w", id.Hex(), err)
	}
	return nil
}

// AddLike adds userID to the post's likes; liking twice is a no-op.
func (r *PostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return r.updatePost(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return r.updatePost(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *PostRepository) updatePost(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	if err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", translate(err))
	}
	return &post, nil
}

func (r *PostRepository) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.CreatedAt = time.Now()

	result, err := r.comments.InsertOne(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)

	if _, err := r.posts.UpdateOne(ctx, bson.M{"_id": comment.PostID}, bson.M{"$inc": bson.M{"commentCount": 1}}); err != nil {
		logrus.WithError(err).WithField("postID", comment.PostID.Hex()).Warn("Failed to bump comment count")
	}
	return comment, nil
}

func (r *PostRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", translate(err))
	}
	return &comment, nil
}

// ListComments returns a page of a post's comments, newest first.
func (r *PostRepository) ListComments(ctx context.Context, postID primitive.ObjectID, skip, limit int) ([]models.Comment, int64, error) {
	filter := bson.M{"post": postID}
	total, err := r.comments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cursor, err := r.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, total, nil
}

func (r *PostRepository) DeleteComment(ctx context.Context, comment *models.Comment) error {
	result, err := r.comments.DeleteOne(ctx, bson.M{"_id": comment.ID})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := r.posts.UpdateOne(ctx, bson.M{"_id": comment.PostID}, bson.M{"$inc": bson.M{"commentCount": -1}}); err != nil {
		logrus.WithError(err).WithField("postID", comment.PostID.Hex()).Warn("Failed to decrement comment count")
	}
	return nil
}
