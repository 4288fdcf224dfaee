package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/akarpov/passportd/internal/logger"
	"github.com/akarpov/passportd/internal/model"
)

// ErrSessionNotIssued is returned when every token candidate collided or the
// store did not retain the written payload. Callers must treat it as a hard
// failure and not retry.
var ErrSessionNotIssued = errors.New("failed to issue session token")

const sessionAttempts = 3

// Session mints opaque session tokens bound to a user id and permission set,
// persisted in a shared key-value store with a time-to-live.
type Session struct {
	store  model.SessionStore
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func NewSession(store model.SessionStore, ttl time.Duration, logger *logger.Logger) *Session {
	return &Session{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Issue claims a fresh token for the serialized payload of userID,
// permissions and extra claims. It makes at most three attempts against the
// store's atomic set-if-absent, then verifies by reading the token back.
func (s *Session) Issue(ctx context.Context, userID string, permissions []string, extra map[string]any) (string, error) {
	payload := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		payload[k] = v
	}
	payload["userId"] = userID
	payload["permissions"] = permissions

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session payload: %w", err)
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 16)
	token := ""
	for attempt := 0; attempt < sessionAttempts; attempt++ {
		if attempt > 0 {
			s.logger.Warn("generated duplicate session token, trying a new one")
		}
		candidate, err := deriveToken(userID, timestamp, attempt)
		if err != nil {
			return "", err
		}
		ok, err := s.store.SetIfAbsent(ctx, candidate, string(data), s.ttl)
		if err != nil {
			return "", fmt.Errorf("failed to claim session token: %w", err)
		}
		if ok {
			token = candidate
			break
		}
	}
	if token == "" {
		return "", ErrSessionNotIssued
	}

	// Read-back guard against a store that silently rejected the write.
	stored, err := s.store.Get(ctx, token)
	if err != nil || stored != string(data) {
		return "", ErrSessionNotIssued
	}

	return token, nil
}

// Get returns the claim payload referenced by token.
func (s *Session) Get(ctx context.Context, token string) (map[string]any, error) {
	if token == "" {
		return nil, model.ErrNotFound
	}
	data, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session payload: %w", err)
	}
	return payload, nil
}

// Invalidate removes the session referenced by token.
func (s *Session) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

// deriveToken builds a collision-resistant token candidate: a repeated
// one-way hash seeded with the user id and random material, prefixed with a
// time-ordered hex tag and suffixed with the attempt index.
func deriveToken(userID, timestamp string, attempt int) (string, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("failed to read token seed: %w", err)
	}

	h := hashHex(userID)
	h = hashHex(hex.EncodeToString(seed) + h)
	h = hashHex(h + hex.EncodeToString(seed))

	return timestamp + h[len(timestamp):len(h)-1] + strconv.Itoa(attempt), nil
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
