package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"quickchat-backend/internal/api"
	"quickchat-backend/internal/api/middleware"
	"quickchat-backend/internal/dto"
	internaljwt "quickchat-backend/internal/jwt"
	"quickchat-backend/internal/model"
)

const maxBodySize = 8 << 20

type ApiMessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}

// decodeJSON reads the body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func requestIdentity(r *http.Request) (internaljwt.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return internaljwt.Identity{}, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Not Authorized. Login Again",
			ErrorLog:   errors.New("request reached handler without identity"),
		}
	}
	return identity, nil
}

func toUserResponse(user model.UserItem) dto.UserResponse {
	return dto.UserResponse{
		UserID:            user.UserID,
		Email:             user.Email,
		FullName:          user.FullName,
		Bio:               user.Bio,
		ProfilePic:        user.ProfilePic,
		IsAccountVerified: user.IsAccountVerified,
		CreatedAt:         user.CreatedAt,
	}
}

func toMessageResponse(msg model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		MessageID:  msg.MessageID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		Seen:       msg.Seen,
		CreatedAt:  msg.CreatedAt,
	}
}
