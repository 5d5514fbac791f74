package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickchat-backend/utils"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

func CreateToken(user User, role Role, validUntil int64) (string, error) {
	secret, ok := RoleSecrets[role]
	if !ok || secret == "" {
		return "", fmt.Errorf("invalid role specified")
	}

	if validUntil == 0 {
		validUntil = time.Now().Add(AccessTokenTTL).Unix()
	}

	claims := jwt.MapClaims{
		"id":    user.Id,
		"email": user.Email,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateTokenWithRefresh issues an access token and, when a refresh store is
// configured, a refresh token. Without a store only the access token is set.
func CreateTokenWithRefresh(user User, role Role, validUntil int64) (TokenResponse, error) {
	accessToken, err := CreateToken(user, role, validUntil)
	if err != nil {
		return TokenResponse{}, err
	}
	if RedisClient == nil {
		return TokenResponse{AccessToken: accessToken}, nil
	}

	refreshToken := utils.CreateToken()
	userDataJSON, err := json.Marshal(map[string]string{
		"id":    user.Id,
		"email": user.Email,
	})
	if err != nil {
		return TokenResponse{}, err
	}

	ctx := context.Background()
	_, err = RedisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshKeyPrefix+refreshToken, userDataJSON, RefreshTokenTTL)
		pipe.SAdd(ctx, userRefreshKeyPrefix+user.Id, refreshToken)
		pipe.Expire(ctx, userRefreshKeyPrefix+user.Id, RefreshTokenTTL)
		return nil
	})
	if err != nil {
		return TokenResponse{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("token string is empty")
	}

	secret, ok := RoleSecrets[role]
	if !ok || secret == "" {
		return nil, fmt.Errorf("invalid role specified")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	return claims, nil
}

// ParseIdentity validates an access token and returns the identity it carries.
func ParseIdentity(tokenString string) (Identity, error) {
	claims, err := ParseToken(tokenString, RoleUser)
	if err != nil {
		return Identity{}, err
	}

	userID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return Identity{}, fmt.Errorf("token missing user id")
	}
	return Identity{UserID: userID, Email: email}, nil
}

// UserIDFromToken is the websocket handshake authenticator.
func UserIDFromToken(tokenString string) (string, error) {
	identity, err := ParseIdentity(tokenString)
	if err != nil {
		return "", err
	}
	return identity.UserID, nil
}

// BearerToken extracts the token from an Authorization header value, with or
// without the Bearer prefix.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func RefreshToken(refreshToken string, role Role) (string, error) {
	if len(refreshToken) == 0 {
		return "", ErrInvalidRefreshToken
	}
	if RedisClient == nil {
		return "", ErrInvalidRefreshToken
	}

	ctx := context.Background()
	val, err := RedisClient.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if err == redis.Nil {
		return "", ErrInvalidRefreshToken
	} else if err != nil {
		return "", err
	}

	var userData map[string]string
	if err := json.Unmarshal([]byte(val), &userData); err != nil {
		return "", fmt.Errorf("invalid token data")
	}

	user := User{
		Id:    userData["id"],
		Email: userData["email"],
	}

	if err := RedisClient.Expire(ctx, refreshKeyPrefix+refreshToken, RefreshTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to update refresh token expiration: %v", err)
	}

	return CreateToken(user, role, 0)
}

func RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" || RedisClient == nil {
		return nil
	}

	val, err := RedisClient.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if err == redis.Nil {
		return nil
	} else if err != nil {
		return err
	}

	var userData map[string]string
	_ = json.Unmarshal([]byte(val), &userData)

	_, err = RedisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, refreshKeyPrefix+refreshToken)
		if id := userData["id"]; id != "" {
			pipe.SRem(ctx, userRefreshKeyPrefix+id, refreshToken)
		}
		return nil
	})
	return err
}

// RevokeUserTokens drops every refresh token issued to userID.
func RevokeUserTokens(ctx context.Context, userID string) error {
	if userID == "" || RedisClient == nil {
		return nil
	}

	tokens, err := RedisClient.SMembers(ctx, userRefreshKeyPrefix+userID).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, refreshKeyPrefix+token)
	}
	keys = append(keys, userRefreshKeyPrefix+userID)
	return RedisClient.Del(ctx, keys...).Err()
}
