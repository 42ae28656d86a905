package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/connecthub/connecthub/internal/config"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository/memstore"
	"github.com/connecthub/connecthub/internal/services"
	jwtutil "github.com/connecthub/connecthub/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

type nopEmitter struct{}

func (nopEmitter) Emit(primitive.ObjectID, string, interface{}) {}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	store  *memstore.Store
	upload string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	cfg := config.Default()
	cfg.JWTSecret = testSecret
	cfg.TokenExpiry = time.Hour
	cfg.UploadDir = t.TempDir()

	dir := services.NewDirectory(store.Users(), cfg.PublicBaseURL)
	notify := services.NewNotificationService(store.Notifications(), store.Users(), nopEmitter{})
	friendSvc := services.NewFriendService(store.Friends(), store.Users(), dir, notify, nopEmitter{}, realtime.NewMemoryPresence(), 0)
	userSvc := services.NewUserService(store.Users(), store.Posts(), store.Friends(), dir)
	postSvc := services.NewPostService(store.Posts(), dir, notify)
	chatSvc := services.NewChatService(store.Chats(), store.Friends(), dir, nopEmitter{})
	uploads := &Uploads{Dir: cfg.UploadDir}

	router := NewRouter(Routes{
		JWTSecret:     cfg.JWTSecret,
		UploadDir:     cfg.UploadDir,
		LastActive:    userSvc,
		Health:        PingFunc(func(context.Context) error { return nil }),
		Users:         NewUserHandler(userSvc, cfg, uploads),
		Friends:       NewFriendHandler(friendSvc),
		Posts:         NewPostHandler(postSvc, uploads),
		Search:        NewSearchHandler(userSvc, postSvc),
		Chats:         NewChatHandler(chatSvc, nil, cfg.JWTSecret),
		Notifications: NewNotificationHandler(notify),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, store: store, upload: cfg.UploadDir}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Msg     string          `json:"msg"`
}

func (s *testServer) do(method, path, token string, body interface{}) (int, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req)
}

func (s *testServer) send(req *http.Request) (int, apiResponse) {
	s.t.Helper()
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

type account struct {
	ID    string
	Token string
}

func (s *testServer) register(username string, interests ...string) account {
	s.t.Helper()
	status, resp := s.do("POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@connecthub.test",
		"password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, status, resp.Msg)

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"_id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &data))

	if len(interests) > 0 {
		status, resp = s.do("PATCH", "/api/profile", data.Token, map[string]interface{}{"interests": interests})
		require.Equal(s.t, http.StatusOK, status, resp.Msg)
	}
	return account{ID: data.User.ID, Token: data.Token}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	status, resp := s.do("GET", "/api/friends", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Msg)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	status, resp := s.do("POST", "/api/auth/login", "", map[string]string{"email": "alice@connecthub.test", "password": "secret1"})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"token"`)
	assert.NotContains(t, string(resp.Data), "password")

	status, resp = s.do("POST", "/api/auth/login", "", map[string]string{"email": "alice@connecthub.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", resp.Msg)
}

func TestFriendFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice", "Tech", "Music")
	bob := s.register("bob", "Tech", "Art")
	carol := s.register("carol")

	// Suggestions
	status, resp := s.do("GET", "/api/friends/suggestions", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var sugg struct {
		Suggestions []struct {
			Username        string   `json:"username"`
			CommonInterests []string `json:"commonInterests"`
			SimilarityScore int      `json:"similarityScore"`
		} `json:"suggestions"`
		Total int `json:"totalSuggestions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sugg))
	require.Equal(t, 1, sugg.Total)
	assert.Equal(t, "bob", sugg.Suggestions[0].Username)
	assert.Equal(t, 50, sugg.Suggestions[0].SimilarityScore)

	status, resp = s.do("GET", "/api/friends/suggestions", carol.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"suggestions":[],"totalSuggestions":0}`, string(resp.Data))

	// Send
	status, resp = s.do("POST", "/api/friends/request", alice.Token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do("POST", "/api/friends/request", alice.Token, map[string]string{"toUserId": bob.ID})
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var sent struct {
		FriendRequest struct {
			ID     string `json:"_id"`
			Status string `json:"status"`
			To     struct {
				Username string `json:"username"`
			} `json:"to"`
		} `json:"friendRequest"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sent))
	assert.Equal(t, "pending", sent.FriendRequest.Status)
	assert.Equal(t, "bob", sent.FriendRequest.To.Username)

	status, resp = s.do("POST", "/api/friends/request", bob.Token, map[string]string{"toUserId": alice.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Friend request already exists", resp.Msg)

	// Pending
	status, resp = s.do("GET", "/api/friends/requests", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var pending struct {
		Requests []struct {
			ID   string `json:"_id"`
			From struct {
				ID        string   `json:"_id"`
				Username  string   `json:"username"`
				Interests []string `json:"interests"`
			} `json:"from"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pending))
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, sent.FriendRequest.ID, pending.Requests[0].ID)
	assert.Equal(t, alice.ID, pending.Requests[0].From.ID)
	assert.Equal(t, "alice", pending.Requests[0].From.Username)
	assert.Equal(t, []string{"Tech", "Music"}, pending.Requests[0].From.Interests)

	// Respond
	path := "/api/friends/requests/" + sent.FriendRequest.ID
	status, _ = s.do("PATCH", path, alice.Token, map[string]string{"action": "accept"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do("PATCH", path, bob.Token, map[string]string{"action": "ignore"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do("PATCH", "/api/friends/requests/"+primitive.NewObjectID().Hex(), bob.Token, map[string]string{"action": "accept"})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = s.do("PATCH", path, bob.Token, map[string]string{"action": "accept"})
	require.Equal(t, http.StatusOK, status, resp.Msg)
	assert.Contains(t, string(resp.Data), `"status":"accepted"`)

	status, resp = s.do("PATCH", path, bob.Token, map[string]string{"action": "reject"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Request has already been processed", resp.Msg)

	// Friends
	for _, acct := range []account{alice, bob} {
		status, resp = s.do("GET", "/api/friends", acct.Token, nil)
		require.Equal(t, http.StatusOK, status)
		var list struct {
			Friends []struct {
				ID     string `json:"_id"`
				Online *bool  `json:"online"`
			} `json:"friends"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		require.Len(t, list.Friends, 1)
		require.NotNil(t, list.Friends[0].Online)
		assert.False(t, *list.Friends[0].Online)
	}

	// Unfriend
	status, _ = s.do("DELETE", "/api/friends/"+alice.ID, bob.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, resp = s.do("GET", "/api/friends", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"friends":[]}`, string(resp.Data))
}

func TestCancelRequestRoute(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register("alice"), s.register("bob")

	_, resp := s.do("POST", "/api/friends/request", alice.Token, map[string]string{"toUserId": bob.ID})
	var sent struct {
		FriendRequest struct {
			ID string `json:"_id"`
		} `json:"friendRequest"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sent))

	path := "/api/friends/requests/" + sent.FriendRequest.ID
	status, _ := s.do("DELETE", path, bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do("DELETE", path, alice.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do("DELETE", path, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice", "Go")

	status, resp := s.do("GET", "/api/profile/alice", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"postCount":0`)
	assert.NotContains(t, string(resp.Data), "email")

	status, _ = s.do("GET", "/api/profile/ghost", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = s.do("GET", "/api/auth/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"interests":["Go"]`)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, url, token, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if content != nil {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadProfilePicture(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	req := multipartRequest(t, s.srv.URL+"/api/profile/picture", alice.Token, "profilePicture", "me.png", pngBytes(t), nil)
	status, resp := s.send(req)
	require.Equal(t, http.StatusOK, status, resp.Msg)

	var user struct {
		ProfilePicture string `json:"profilePicture"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	require.Regexp(t, `^uploads/[0-9a-f-]{36}\.png$`, user.ProfilePicture)

	_, err := os.Stat(filepath.Join(s.upload, filepath.Base(user.ProfilePicture)))
	assert.NoError(t, err)

	req = multipartRequest(t, s.srv.URL+"/api/profile/picture", alice.Token, "profilePicture", "notes.txt", []byte("plain text"), nil)
	status, _ = s.send(req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostRoutes(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register("alice"), s.register("bob")

	req := multipartRequest(t, s.srv.URL+"/api/posts", alice.Token, "image", "p.png", pngBytes(t), map[string]string{"text": "with picture"})
	status, resp := s.send(req)
	require.Equal(t, http.StatusCreated, status, resp.Msg)
	assert.Contains(t, string(resp.Data), `"imageUrl":"http://localhost:5000/uploads/`)

	status, resp = s.do("POST", "/api/posts", alice.Token, map[string]string{"text": "hello world"})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		Post struct {
			ID string `json:"_id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	post := created.Post
	require.NotEmpty(t, post.ID)

	status, _ = s.do("POST", "/api/posts", alice.Token, map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do("GET", "/api/posts?page=1&limit=500", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var feed struct {
		Posts      []interface{} `json:"posts"`
		Pagination struct {
			Limit       int   `json:"limit"`
			TotalItems  int64 `json:"totalItems"`
			HasNextPage bool  `json:"hasNextPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &feed))
	assert.Len(t, feed.Posts, 2)
	assert.Equal(t, 50, feed.Pagination.Limit)
	assert.Equal(t, int64(2), feed.Pagination.TotalItems)
	assert.False(t, feed.Pagination.HasNextPage)

	status, resp = s.do("POST", "/api/posts/"+post.ID+"/like", bob.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"post":{`)
	status, _ = s.do("POST", "/api/posts/"+post.ID+"/comments", bob.Token, map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusCreated, status)

	status, resp = s.do("GET", "/api/notifications", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var inbox struct {
		Notifications []struct {
			ID   string `json:"_id"`
			Type string `json:"type"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &inbox))
	notifs := inbox.Notifications
	require.Len(t, notifs, 2)

	status, _ = s.do("POST", "/api/notifications/"+notifs[0].ID+"/read", bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do("DELETE", "/api/notifications/"+notifs[0].ID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do("DELETE", "/api/posts/"+post.ID, bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do("DELETE", "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do("GET", "/api/posts/"+post.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do("GET", "/api/posts/not-an-id", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.do("POST", "/api/posts", alice.Token, map[string]string{"text": "alice in wonderland"})

	status, resp := s.do("GET", "/api/search?q=ALICE", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var both struct {
		Users []interface{} `json:"users"`
		Posts []interface{} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &both))
	assert.Len(t, both.Users, 1)
	assert.Len(t, both.Posts, 1)

	status, _ = s.do("GET", "/api/search/users?q=", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchPagination(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	for _, name := range []string{"alice2", "alice3"} {
		s.register(name)
	}
	for i := 0; i < 3; i++ {
		s.do("POST", "/api/posts", alice.Token, map[string]string{"text": "paged post"})
	}

	type page struct {
		Users      []struct{ Username string } `json:"users"`
		Posts      []interface{}              `json:"posts"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalItems  int64 `json:"totalItems"`
			TotalPages  int   `json:"totalPages"`
			HasNextPage bool  `json:"hasNextPage"`
			HasPrevPage bool  `json:"hasPrevPage"`
		} `json:"pagination"`
	}

	status, resp := s.do("GET", "/api/search/users?q=alice&page=1&limit=2", alice.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var users page
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	assert.Len(t, users.Users, 2)
	assert.True(t, users.Pagination.HasNextPage)
	assert.Equal(t, int64(3), users.Pagination.TotalItems)

	status, resp = s.do("GET", "/api/search/users?q=alice&page=2&limit=2", alice.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Msg)
	users = page{}
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "alice3", users.Users[0].Username)
	assert.Equal(t, 2, users.Pagination.CurrentPage)
	assert.False(t, users.Pagination.HasNextPage)
	assert.True(t, users.Pagination.HasPrevPage)

	status, resp = s.do("GET", "/api/search/posts?q=paged&page=2&limit=2", alice.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var posts page
	require.NoError(t, json.Unmarshal(resp.Data, &posts))
	assert.Len(t, posts.Posts, 1)
	assert.Equal(t, 2, posts.Pagination.TotalPages)
	assert.False(t, posts.Pagination.HasNextPage)
}

func TestGetPostInlinesComments(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register("alice"), s.register("bob")

	_, resp := s.do("POST", "/api/posts", alice.Token, map[string]string{"text": "discuss"})
	var created struct {
		Post struct {
			ID string `json:"_id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	postID := created.Post.ID

	for i := 0; i < 7; i++ {
		status, resp := s.do("POST", "/api/posts/"+postID+"/comments", bob.Token, map[string]string{"text": fmt.Sprintf("c%d", i)})
		require.Equal(t, http.StatusCreated, status, resp.Msg)
		assert.Contains(t, string(resp.Data), `"comment":{`)
	}

	status, resp := s.do("GET", "/api/posts/"+postID, alice.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var got struct {
		Post struct {
			ID           string `json:"_id"`
			CommentCount int    `json:"commentCount"`
			Comments     []struct {
				Text   string `json:"text"`
				Author struct {
					Username string `json:"username"`
				} `json:"author"`
			} `json:"comments"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, postID, got.Post.ID)
	assert.Equal(t, 7, got.Post.CommentCount)
	require.Len(t, got.Post.Comments, 5)
	assert.Equal(t, "c6", got.Post.Comments[0].Text)
	assert.Equal(t, "bob", got.Post.Comments[0].Author.Username)

	status, resp = s.do("GET", "/api/posts/"+postID+"/comments?page=2&limit=5", alice.Token, nil)
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var more struct {
		Comments   []interface{} `json:"comments"`
		Pagination struct {
			HasNextPage bool `json:"hasNextPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &more))
	assert.Len(t, more.Comments, 2)
	assert.False(t, more.Pagination.HasNextPage)
}

func TestChatRoutes(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.register("alice"), s.register("bob")

	status, _ := s.do("POST", "/api/chat", alice.Token, map[string]string{"userId": bob.ID})
	assert.Equal(t, http.StatusUnauthorized, status)

	_, resp := s.do("POST", "/api/friends/request", alice.Token, map[string]string{"toUserId": bob.ID})
	var sent struct {
		FriendRequest struct {
			ID string `json:"_id"`
		} `json:"friendRequest"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sent))
	s.do("PATCH", "/api/friends/requests/"+sent.FriendRequest.ID, bob.Token, map[string]string{"action": "accept"})

	status, resp = s.do("POST", "/api/chat", alice.Token, map[string]string{"userId": bob.ID})
	require.Equal(t, http.StatusOK, status, resp.Msg)
	var opened struct {
		Chat struct {
			ID string `json:"_id"`
		} `json:"chat"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &opened))
	chat := opened.Chat
	require.NotEmpty(t, chat.ID)

	status, resp = s.do("POST", "/api/chat/"+chat.ID+"/message", bob.Token, map[string]string{"text": "hey"})
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(resp.Data), `"message":{`)

	status, resp = s.do("GET", "/api/chat/"+chat.ID+"/messages", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var history struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hey", history.Messages[0].Text)

	status, _ = s.do("GET", "/api/chat/"+chat.ID+"/messages?before=yesterday", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do("GET", "/api/chat", bob.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Chats []struct {
			ID string `json:"_id"`
		} `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.Chats, 1)
	assert.Equal(t, chat.ID, list.Chats[0].ID)
	assert.Contains(t, string(resp.Data), `"lastMessage"`)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	status, resp := s.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")

	status, resp := s.do("POST", "/api/admin/notifications/cleanup", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", resp.Msg)

	adminToken, err := jwtutil.GenerateToken(alice.ID, "alice@connecthub.test", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	status, _ = s.do("POST", "/api/admin/notifications/cleanup", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do("POST", "/api/admin/notifications/inactivity", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}
