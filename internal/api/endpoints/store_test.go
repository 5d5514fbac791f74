package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/dto"
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/model"
	"quickchat-backend/internal/queue"
	messagesvc "quickchat-backend/internal/service/message"
	usersvc "quickchat-backend/internal/service/user"

	"github.com/go-chi/chi/v5"
)

type testStore struct {
	mu       sync.Mutex
	users    map[string]model.UserItem
	messages map[string]model.MessageItem
}

func newTestStore() *testStore {
	return &testStore{
		users:    make(map[string]model.UserItem),
		messages: make(map[string]model.MessageItem),
	}
}

type userRepo struct{ *testStore }

func (s userRepo) CreateUser(ctx context.Context, user model.UserItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.UserID]; ok {
		return usersvc.ErrExists
	}
	s.users[user.UserID] = user
	return nil
}

func (s userRepo) SaveUser(ctx context.Context, user model.UserItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.UserID]; !ok {
		return usersvc.ErrNotFound
	}
	s.users[user.UserID] = user
	return nil
}

func (s userRepo) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.UserItem{}, usersvc.ErrNotFound
	}
	return user, nil
}

func (s userRepo) FindUserByEmail(ctx context.Context, email string) (model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.UserItem{}, usersvc.ErrNotFound
}

func (s userRepo) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s userRepo) DeleteUserMessages(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, msg := range s.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			delete(s.messages, id)
			n++
		}
	}
	return n, nil
}

type messageRepo struct{ *testStore }

func (s messageRepo) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.UserItem{}, messagesvc.ErrNotFound
	}
	return user, nil
}

func (s messageRepo) ListUsersExcept(ctx context.Context, userID string) ([]model.UserItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []model.UserItem
	for id, u := range s.users {
		if id != userID {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s messageRepo) CreateMessage(ctx context.Context, msg model.MessageItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.MessageID] = msg
	return nil
}

func (s messageRepo) GetMessage(ctx context.Context, messageID string) (model.MessageItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return model.MessageItem{}, messagesvc.ErrNotFound
	}
	return msg, nil
}

func (s messageRepo) ListConversation(ctx context.Context, a, b string) ([]model.MessageItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MessageItem
	for _, msg := range s.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s messageRepo) ListUnseen(ctx context.Context, receiverID string) ([]model.MessageItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MessageItem
	for _, msg := range s.messages {
		if msg.ReceiverID == receiverID && !msg.Seen {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s messageRepo) MarkSeen(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return messagesvc.ErrNotFound
	}
	msg.Seen = true
	s.messages[messageID] = msg
	return nil
}

func (s messageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, messageID)
	return nil
}

func tickingTime() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func setupTestJWT(t *testing.T) {
	t.Helper()
	internaljwt.RoleSecrets[internaljwt.RoleUser] = "test-secret"
	usersvc.SetTokenIssuer(func(user internaljwt.User, role internaljwt.Role, validUntil int64) (internaljwt.TokenResponse, error) {
		token, err := internaljwt.CreateToken(user, role, validUntil)
		if err != nil {
			return internaljwt.TokenResponse{}, err
		}
		return internaljwt.TokenResponse{AccessToken: token}, nil
	})
	t.Cleanup(func() {
		usersvc.SetTokenIssuer(nil)
	})
}

// newTestServer returns a server whose router mounts routes via mount.
func newTestServer(t *testing.T, mount func(r chi.Router, s *api.APIServer)) http.Handler {
	t.Helper()

	queueManager := queue.NewRequestQueueManager(10, 2)
	t.Cleanup(queueManager.Shutdown)

	server := api.NewAPIServer(":0", []string{"http://localhost:5173"}, queueManager, api.Dependencies{}, mount)
	return server.Router()
}

func doJSONRequest[T any](t *testing.T, handler http.Handler, method, target string, body interface{}, headers map[string]string, expectedStatus int) T {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Fatalf("expected status %d, got %d: %s", expectedStatus, rec.Code, rec.Body.String())
	}

	var result T
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func signupUser(t *testing.T, handler http.Handler, name, email string) dto.AuthResponse {
	t.Helper()
	return doJSONRequest[dto.AuthResponse](t, handler, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": name,
		"email":    email,
		"password": "Sup3rS3cret!",
		"bio":      "hi there",
	}, nil, http.StatusCreated)
}
