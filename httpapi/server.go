// Package httpapi serves the request/response surface: account creation,
// login, the user directory, and conversation history. Real-time traffic
// lives on the websocket endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"direct-chat/domain"
	apperrors "direct-chat/errors"
	"direct-chat/repositories"
	"direct-chat/services"

	"github.com/samber/lo"
)

type Server struct {
	auth     services.IAuthService
	messages services.IMessageService
	users    repositories.IUserRepository
	log      *slog.Logger
}

func NewServer(
	auth services.IAuthService,
	messages services.IMessageService,
	users repositories.IUserRepository,
	log *slog.Logger,
) *Server {
	return &Server{auth: auth, messages: messages, users: users, log: log}
}

// Register mounts all API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/users", s.withIdentity(s.handleListUsers))
	mux.HandleFunc("GET /api/messages/{userId}", s.withIdentity(s.handleHistory))
}

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	token, user, err := s.auth.Register(req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			s.writeError(w, http.StatusBadRequest, "user already exists")
		case errors.Is(err, apperrors.ErrInvalidPassword):
			s.writeError(w, http.StatusBadRequest, "invalid registration details")
		default:
			s.log.Error("Registration failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{
		Token: string(token),
		User:  toUserResponse(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	token, user, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{
		Token: string(token),
		User:  toUserResponse(user),
	})
}

// handleListUsers returns every account except the caller's own.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	users, err := s.users.ListUsers()
	if err != nil {
		s.log.Error("User listing failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	others := lo.Filter(users, func(user repositories.User, _ int) bool {
		return user.ID != identity.UserID
	})
	s.writeJSON(w, http.StatusOK, lo.Map(others, func(user repositories.User, _ int) userResponse {
		return toUserResponse(user)
	}))
}

type historyMessageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	SenderName  string     `json:"senderName"`
	RecipientID string     `json:"recipientId"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	Timestamp   time.Time  `json:"timestamp"`
	IsRead      bool       `json:"isRead"`
	IsDelivered bool       `json:"isDelivered"`
	IsEdited    bool       `json:"isEdited"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
}

// handleHistory returns the caller's conversation with the given user,
// oldest first. A store failure surfaces as an error, never partial data.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, identity domain.Identity) {
	otherID := r.PathValue("userId")

	views, err := s.messages.History(identity.UserID, otherID)
	if err != nil {
		s.log.Error("History query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	s.writeJSON(w, http.StatusOK, lo.Map(views, func(view domain.MessageView, _ int) historyMessageResponse {
		return historyMessageResponse{
			ID:          view.ID.String(),
			SenderID:    view.SenderID,
			SenderName:  view.SenderName,
			RecipientID: view.RecipientID,
			Content:     view.Content,
			MessageType: string(view.Type),
			Timestamp:   view.CreatedAt,
			IsRead:      view.IsRead,
			IsDelivered: view.IsDelivered,
			IsEdited:    view.IsEdited,
			EditedAt:    view.EditedAt,
		}
	}))
}

type identityHandler func(w http.ResponseWriter, r *http.Request, identity domain.Identity)

// withIdentity validates the bearer token and passes the verified identity
// to the wrapped handler.
func (s *Server) withIdentity(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "authorization token is missing")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		identity, err := s.auth.Verify(token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, identity)
	}
}

func toUserResponse(user repositories.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug("Response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, reason string) {
	s.writeJSON(w, status, map[string]string{"error": reason})
}
