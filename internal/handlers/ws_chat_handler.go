package handlers

import (
	"net/http"
	"time"

	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/services"
	jwtutil "github.com/connecthub/connecthub/pkg/jwt"
	"github.com/connecthub/connecthub/pkg/logger"
	"github.com/connecthub/connecthub/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatHandler struct {
	Service   *services.ChatService
	Hub       *realtime.Hub
	JWTSecret string
}

func NewChatHandler(service *services.ChatService, hub *realtime.Hub, jwtSecret string) *ChatHandler {
	return &ChatHandler{Service: service, Hub: hub, JWTSecret: jwtSecret}
}

// ListChatsHandler serves GET /api/chat.
func (h *ChatHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	chats, err := h.Service.ListChats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"chats": chats})
}

// OpenChatHandler serves POST /api/chat {userId}.
func (h *ChatHandler) OpenChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	otherID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	chat, err := h.Service.OpenChat(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"chat": chat})
}

// GetMessagesHandler serves GET /api/chat/{id}/messages?before=&limit=.
// before is an RFC 3339 timestamp.
func (h *ChatHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id", "chat")
	if !ok {
		return
	}

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid before timestamp")
			return
		}
		before = t
	}

	msgs, err := h.Service.GetMessages(r.Context(), chatID, userID, before, queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusOK, envelope{"messages": msgs})
}

// SendMessageHandler serves POST /api/chat/{id}/message {text}.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id", "chat")
	if !ok {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), chatID, userID, body.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, envelope{"message": msg})
}

// ChatWebSocketHandler authenticates the socket from ?token= (or the usual
// header and cookie) and hands it to the hub.
func (h *ChatHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing token")
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	middleware.LogWebSocketConnect(logger.Log, claims.UserID, r.RemoteAddr)
	err = h.Hub.ServeWS(w, r, userID)
	middleware.LogWebSocketDisconnect(logger.Log, claims.UserID, r.RemoteAddr, err)
}
