package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LastActiveTracker records that a user just made a request.
type LastActiveTracker interface {
	UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error
}

// UpdateLastActiveMiddleware stamps the authenticated user's activity time.
// Must run after AuthMiddleware.
func UpdateLastActiveMiddleware(tracker LastActiveTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				userID, err := primitive.ObjectIDFromHex(claims.UserID)
				if err == nil {
					if err := tracker.UpdateLastActive(r.Context(), userID); err != nil {
						logrus.WithError(err).Debug("Failed to update last active")
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
