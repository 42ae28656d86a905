package services

import (
	"context"

	"github.com/connecthub/connecthub/internal/models"
	"github.com/connecthub/connecthub/pkg/imageurl"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory resolves user ids to public summaries.
type Directory struct {
	users   UserStore
	baseURL string
}

func NewDirectory(users UserStore, baseURL string) *Directory {
	return &Directory{users: users, baseURL: baseURL}
}

// Summary projects u and resolves its picture URL.
func (d *Directory) Summary(u *models.User) models.UserSummary {
	s := u.Summary()
	s.ProfilePictureURL = imageurl.Resolve(d.baseURL, u.ProfilePicture)
	return s
}

// ImageURL resolves an uploaded file path.
func (d *Directory) ImageURL(path string) string {
	return imageurl.Resolve(d.baseURL, path)
}

// ValidImage reports whether path would resolve to a usable URL.
func (d *Directory) ValidImage(path string) bool {
	return imageurl.Valid(d.baseURL, path)
}

// Summaries loads ids and returns their summaries keyed by id. Unknown ids are
// absent from the map.
func (d *Directory) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	users, err := d.users.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for i := range users {
		out[users[i].ID] = d.Summary(&users[i])
	}
	return out, nil
}

// placeholder stands in for a deleted user.
func placeholder(id primitive.ObjectID) models.UserSummary {
	return models.UserSummary{ID: id, Username: "[deleted]", Interests: []string{}}
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
