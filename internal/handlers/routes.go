package handlers

import (
	"net/http"

	"github.com/connecthub/connecthub/pkg/middleware"
	"github.com/gorilla/mux"
)

// Routes groups everything the router needs.
type Routes struct {
	JWTSecret     string
	UploadDir     string
	LastActive    middleware.LastActiveTracker
	Health        Pinger
	Users         *UserHandler
	Friends       *FriendHandler
	Posts         *PostHandler
	Search        *SearchHandler
	Chats         *ChatHandler
	Notifications *NotificationHandler
}

// NewRouter registers every route. Everything under /api except register and
// login requires a token.
func NewRouter(rt Routes) *mux.Router {
	router := mux.NewRouter()
	auth := middleware.AuthMiddleware(rt.JWTSecret)

	// Public routes
	router.HandleFunc("/api/auth/register", rt.Users.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/api/auth/login", rt.Users.LoginUserHandler).Methods("POST")
	if rt.Health != nil {
		router.HandleFunc("/healthz", HealthHandler(rt.Health)).Methods("GET")
	}
	if rt.UploadDir != "" {
		router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.UploadDir))))
	}
	if rt.Chats != nil && rt.Chats.Hub != nil {
		router.HandleFunc("/ws", rt.Chats.ChatWebSocketHandler)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth)
	if rt.LastActive != nil {
		api.Use(middleware.UpdateLastActiveMiddleware(rt.LastActive))
	}

	api.HandleFunc("/auth/me", rt.Users.MeHandler).Methods("GET")

	// Profile routes
	api.HandleFunc("/profile", rt.Users.UpdateProfileHandler).Methods("PATCH")
	api.HandleFunc("/profile/picture", rt.Users.UploadProfilePictureHandler).Methods("POST")
	api.HandleFunc("/profile/{username}", rt.Users.GetProfileHandler).Methods("GET")

	// Friend routes
	api.HandleFunc("/friends/suggestions", rt.Friends.GetSuggestionsHandler).Methods("GET")
	api.HandleFunc("/friends/request", rt.Friends.SendFriendRequestHandler).Methods("POST")
	api.HandleFunc("/friends/requests", rt.Friends.GetPendingRequestsHandler).Methods("GET")
	api.HandleFunc("/friends/requests/{id}", rt.Friends.RespondToFriendRequestHandler).Methods("PATCH")
	api.HandleFunc("/friends/requests/{id}", rt.Friends.CancelFriendRequestHandler).Methods("DELETE")
	api.HandleFunc("/friends", rt.Friends.GetFriendsHandler).Methods("GET")
	api.HandleFunc("/friends/{userId}", rt.Friends.RemoveFriendHandler).Methods("DELETE")

	// Post routes
	if rt.Posts != nil {
		api.HandleFunc("/posts", rt.Posts.ListPostsHandler).Methods("GET")
		api.HandleFunc("/posts", rt.Posts.CreatePostHandler).Methods("POST")
		api.HandleFunc("/posts/{id}", rt.Posts.GetPostHandler).Methods("GET")
		api.HandleFunc("/posts/{id}", rt.Posts.DeletePostHandler).Methods("DELETE")
		api.HandleFunc("/posts/{id}/like", rt.Posts.LikePostHandler).Methods("POST")
		api.HandleFunc("/posts/{id}/like", rt.Posts.UnlikePostHandler).Methods("DELETE")
		api.HandleFunc("/posts/{id}/comments", rt.Posts.ListCommentsHandler).Methods("GET")
		api.HandleFunc("/posts/{id}/comments", rt.Posts.AddCommentHandler).Methods("POST")
		api.HandleFunc("/posts/{id}/comments/{commentId}", rt.Posts.DeleteCommentHandler).Methods("DELETE")
	}

	// Search routes
	if rt.Search != nil {
		api.HandleFunc("/search", rt.Search.SearchHandler).Methods("GET")
		api.HandleFunc("/search/users", rt.Search.SearchUsersHandler).Methods("GET")
		api.HandleFunc("/search/posts", rt.Search.SearchPostsHandler).Methods("GET")
	}

	// Chat routes
	if rt.Chats != nil {
		api.HandleFunc("/chat", rt.Chats.ListChatsHandler).Methods("GET")
		api.HandleFunc("/chat", rt.Chats.OpenChatHandler).Methods("POST")
		api.HandleFunc("/chat/{id}/messages", rt.Chats.GetMessagesHandler).Methods("GET")
		api.HandleFunc("/chat/{id}/message", rt.Chats.SendMessageHandler).Methods("POST")
	}

	// Notification routes
	if rt.Notifications != nil {
		api.HandleFunc("/notifications", rt.Notifications.GetUserNotificationsHandler).Methods("GET")
		api.HandleFunc("/notifications/{id}/read", rt.Notifications.MarkAsReadHandler).Methods("POST")
		api.HandleFunc("/notifications/{id}", rt.Notifications.DeleteNotificationHandler).Methods("DELETE")

		// Admin routes
		admin := api.PathPrefix("/admin").Subrouter()
		admin.Use(middleware.RequireRole("admin"))
		admin.HandleFunc("/notifications/cleanup", rt.Notifications.RunCleanupHandler).Methods("POST")
		admin.HandleFunc("/notifications/inactivity", rt.Notifications.RunInactivityCheckHandler).Methods("POST")
	}

	return router
}
