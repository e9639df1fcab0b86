package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/JobFox/internal/pkg/cache"
	"github.com/ManuelReschke/JobFox/internal/pkg/env"
)

const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
)

var sessionStore *session.Store

// NewSessionStore creates the redis-backed store used by the server and
// installs it as the package default.
func NewSessionStore() *session.Store {
	// Get Redis client configuration from existing cache setup
	cacheClient := cache.GetClient()
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnvInt("CACHE_PORT", 6379)
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		// Prefer password from the underlying client if present
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Create Redis storage for sessions using database 1 (cache uses DB 0)
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1, // Separate database for sessions
		Reset:    false,
	})

	sessionStore = NewStore(storage)
	return sessionStore
}

// NewStore creates a session store on storage. A nil storage keeps
// sessions in memory.
func NewStore(storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     time.Hour * 24,
		KeyLookup:      "cookie:session_id",
	})
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// Login binds the account to the request's session.
func Login(store *session.Store, c *fiber.Ctx, userID uint, username string) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyUserID, userID)
	sess.Set(KeyUsername, username)
	return sess.Save()
}

// Logout destroys the request's session.
func Logout(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns the account bound to the session, or 0.
func UserID(store *session.Store, c *fiber.Ctx) uint {
	if store == nil {
		return 0
	}
	sess, err := store.Get(c)
	if err != nil {
		return 0
	}
	id, _ := sess.Get(KeyUserID).(uint)
	return id
}
