package handlers

import (
	"net/http"

	"github.com/connecthub/connecthub/internal/services"
	"github.com/connecthub/connecthub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to suggestions and friend requests.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// GetSuggestionsHandler returns ranked friend suggestions for the current user.
func (h *FriendHandler) GetSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	suggestions, err := h.Service.GetSuggestions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respond(w, http.StatusOK, envelope{
		"suggestions":      suggestions,
		"totalSuggestions": len(suggestions),
	})
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var body struct {
		ToUserID string `json:"toUserId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ToUserID == "" {
		writeError(w, http.StatusBadRequest, "Recipient user ID is required")
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(body.ToUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	request, err := h.Service.SendFriendRequest(r.Context(), senderID, receiverID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", senderID.Hex(), receiverID.Hex())
	respond(w, http.StatusOK, envelope{"friendRequest": request})
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"requests": requests})
}

// RespondToFriendRequestHandler accepts or rejects a friend request.
func (h *FriendHandler) RespondToFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	var body struct {
		Action string `json:"action"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	request, err := h.Service.RespondToRequest(r.Context(), requestID, userID, body.Action)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.Log.Infof("User %s responded to friend request %s (%s)", userID.Hex(), requestID.Hex(), body.Action)
	respond(w, http.StatusOK, envelope{"friendRequest": request})
}

// CancelFriendRequestHandler withdraws a pending request the user sent.
func (h *FriendHandler) CancelFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := h.Service.CancelRequest(r.Context(), requestID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"msg": "Friend request cancelled"})
}

// GetFriendsHandler returns a list of the user's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"friends": friends})
}

// RemoveFriendHandler ends a friendship.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "userId", "user")
	if !ok {
		return
	}

	if err := h.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.Log.Infof("User %s removed friend %s", userID.Hex(), friendID.Hex())
	respond(w, http.StatusOK, envelope{"msg": "Friend removed"})
}
