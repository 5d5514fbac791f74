package jwt

import (
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	RedisClient    *redis.Client
	AccessTokenTTL = 15 * time.Minute
)

const RefreshTokenTTL = 24 * 30 * time.Hour

const (
	refreshKeyPrefix     = "refresh:"
	userRefreshKeyPrefix = "refresh:user:"
)

const (
	RoleUser Role = iota
)

var RoleSecrets = map[Role]string{
	RoleUser: "",
}

// Configure installs the signing secret and the redis client used for
// refresh tokens. A zero accessTTL keeps the current value.
func Configure(secret string, accessTTL time.Duration, client *redis.Client) {
	RoleSecrets[RoleUser] = secret
	if accessTTL > 0 {
		AccessTokenTTL = accessTTL
	}
	RedisClient = client
}
