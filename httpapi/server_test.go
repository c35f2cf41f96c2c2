package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"direct-chat/domain"
	"direct-chat/moderation"
	"direct-chat/repositories"
	"direct-chat/runtime"
	"direct-chat/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type apiStack struct {
	server   *httptest.Server
	auth     services.IAuthService
	messages services.IMessageService
}

func newAPIStack(t *testing.T) *apiStack {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	userRepository := repositories.NewUserRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, nil)

	moderator, err := moderation.NewModerator([]string{"moron"}, '*', log)
	req.NoError(err)

	registry := runtime.NewRegistry()
	authService := services.NewAuthService(userRepository, time.Hour)
	messageService := services.NewMessageService(messageRepository, userRepository, registry, &moderator, log)

	mux := http.NewServeMux()
	NewServer(authService, messageService, userRepository, log).Register(mux)

	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	return &apiStack{server: httpServer, auth: authService, messages: messageService}
}

func (s *apiStack) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *apiStack) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	request, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAPI_Register_Then_Login(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	resp := stack.post(t, "/api/register", credentialsRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "Str0ng&Secret!Pass",
	})
	req.Equal(http.StatusOK, resp.StatusCode)

	registered := decodeBody[authResponse](t, resp)
	req.NotEmpty(registered.Token)
	req.Equal("Alice", registered.User.DisplayName)

	resp = stack.post(t, "/api/login", credentialsRequest{
		Email:    "alice@example.com",
		Password: "Str0ng&Secret!Pass",
	})
	req.Equal(http.StatusOK, resp.StatusCode)

	logged := decodeBody[authResponse](t, resp)
	req.Equal(registered.User.ID, logged.User.ID)

	// The issued token carries a verifiable identity
	identity, err := stack.auth.Verify(logged.Token)
	req.NoError(err)
	req.Equal(registered.User.ID, identity.UserID)
}

func TestAPI_Register_Rejects_Duplicates_And_Weak_Passwords(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	resp := stack.post(t, "/api/register", credentialsRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "Str0ng&Secret!Pass",
	})
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = stack.post(t, "/api/register", credentialsRequest{
		Email:       "alice@example.com",
		DisplayName: "Imposter",
		Password:    "Str0ng&Secret!Pass",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp = stack.post(t, "/api/register", credentialsRequest{
		Email:       "bob@example.com",
		DisplayName: "Bob",
		Password:    "weak",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Login_Rejects_Bad_Credentials(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	stack.post(t, "/api/register", credentialsRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "Str0ng&Secret!Pass",
	})

	resp := stack.post(t, "/api/login", credentialsRequest{
		Email:    "alice@example.com",
		Password: "Wrong&Password123",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListUsers_Excludes_The_Caller(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	aliceResp := decodeBody[authResponse](t, stack.post(t, "/api/register", credentialsRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "Str0ng&Secret!Pass",
	}))
	bobResp := decodeBody[authResponse](t, stack.post(t, "/api/register", credentialsRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "Str0ng&Secret!Pass",
	}))

	resp := stack.get(t, "/api/users", aliceResp.Token)
	req.Equal(http.StatusOK, resp.StatusCode)

	users := decodeBody[[]userResponse](t, resp)
	req.Len(users, 1)
	req.Equal(bobResp.User.ID, users[0].ID)
	req.Equal("Bob", users[0].DisplayName)
}

func TestAPI_History_Requires_A_Valid_Token(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	resp := stack.get(t, "/api/users", "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = stack.get(t, "/api/messages/some-user", "garbage-token")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_History_Returns_The_Conversation(t *testing.T) {
	req := require.New(t)
	stack := newAPIStack(t)

	aliceResp := decodeBody[authResponse](t, stack.post(t, "/api/register", credentialsRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "Str0ng&Secret!Pass",
	}))
	bobResp := decodeBody[authResponse](t, stack.post(t, "/api/register", credentialsRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "Str0ng&Secret!Pass",
	}))

	// Seed two messages through the service, recipients offline
	_, err := stack.messages.Send(context.Background(), services.SendCommand{
		Sender:      domain.Identity{UserID: aliceResp.User.ID, DisplayName: "Alice"},
		RecipientID: bobResp.User.ID,
		Content:     "hello bob",
	}, nil)
	req.NoError(err)
	_, err = stack.messages.Send(context.Background(), services.SendCommand{
		Sender:      domain.Identity{UserID: bobResp.User.ID, DisplayName: "Bob"},
		RecipientID: aliceResp.User.ID,
		Content:     "hello alice",
	}, nil)
	req.NoError(err)

	resp := stack.get(t, "/api/messages/"+bobResp.User.ID, aliceResp.Token)
	req.Equal(http.StatusOK, resp.StatusCode)

	history := decodeBody[[]historyMessageResponse](t, resp)
	req.Len(history, 2)
	req.Equal("hello bob", history[0].Content)
	req.Equal("Alice", history[0].SenderName)
	req.Equal("hello alice", history[1].Content)
	req.Equal("Bob", history[1].SenderName)
	req.False(history[0].IsDelivered)
}
