// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/media"
	"github.com/taibuivan/vidstream/internal/platform/sec"
	"github.com/taibuivan/vidstream/internal/users/auth"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

// # In-memory Credential Store

type memoryStore struct {
	mu     sync.Mutex
	users  map[string]*identity.User
	writes int

	// findErr, when set, is returned by every lookup.
	findErr error
	// hideCreated makes FindByID miss freshly created users.
	hideCreated bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*identity.User{}}
}

func (store *memoryStore) Create(_ context.Context, user *identity.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("User with email or username already exists")
		}
	}
	copied := *user
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	store.users[user.ID] = &copied
	store.writes++
	return nil
}

func (store *memoryStore) FindByID(_ context.Context, id string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findErr != nil {
		return nil, store.findErr
	}
	user, ok := store.users[id]
	if !ok || store.hideCreated {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (store *memoryStore) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return store.FindByUsernameOrEmail(ctx, username, "")
}

func (store *memoryStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findErr != nil {
		return nil, store.findErr
	}
	for _, user := range store.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *memoryStore) SetRefreshTokenHash(_ context.Context, id, tokenHash string) error {
	return store.mutate(id, func(user *identity.User) { user.RefreshTokenHash = tokenHash })
}

func (store *memoryStore) RotateRefreshTokenHash(_ context.Context, id, expectedHash, newHash string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok || user.RefreshTokenHash != expectedHash {
		return false, nil
	}
	user.RefreshTokenHash = newHash
	store.writes++
	return true, nil
}

func (store *memoryStore) ClearRefreshToken(_ context.Context, id string) error {
	return store.mutate(id, func(user *identity.User) { user.RefreshTokenHash = "" })
}

func (store *memoryStore) UpdatePassword(_ context.Context, id, passwordHash string, clearSession bool) error {
	return store.mutate(id, func(user *identity.User) {
		user.PasswordHash = passwordHash
		if clearSession {
			user.RefreshTokenHash = ""
		}
	})
}

func (store *memoryStore) UpdateDetails(_ context.Context, id, fullName, email string) (*identity.User, error) {
	return nil, errors.New("not used by auth")
}

func (store *memoryStore) UpdateAvatar(_ context.Context, id, url string) (*identity.User, error) {
	return nil, errors.New("not used by auth")
}

func (store *memoryStore) UpdateCoverImage(_ context.Context, id, url string) (*identity.User, error) {
	return nil, errors.New("not used by auth")
}

func (store *memoryStore) mutate(id string, apply func(*identity.User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	apply(user)
	store.writes++
	return nil
}

func (store *memoryStore) user(id string) identity.User {
	store.mu.Lock()
	defer store.mu.Unlock()
	return *store.users[id]
}

func (store *memoryStore) writeCount() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.writes
}

// # Media Uploader

type fakeUploader struct {
	mu       sync.Mutex
	failFor  map[string]error
	uploaded []string
	deleted  []string
}

func (uploader *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	defer os.Remove(localPath)

	base := filepath.Base(localPath)
	for marker, err := range uploader.failFor {
		if strings.Contains(base, marker) {
			return "", err
		}
	}
	url := "https://cdn.example.com/uploads/" + base
	uploader.uploaded = append(uploader.uploaded, url)
	return url, nil
}

func (uploader *fakeUploader) Delete(_ context.Context, url string) error {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	uploader.deleted = append(uploader.deleted, url)
	return nil
}

// # Denylist

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{revoked: map[string]time.Time{}}
}

func (denylist *memoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	denylist.mu.Lock()
	defer denylist.mu.Unlock()
	if denylist.err != nil {
		return denylist.err
	}
	denylist.revoked[tokenID] = expiresAt
	return nil
}

func (denylist *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	denylist.mu.Lock()
	defer denylist.mu.Unlock()
	if denylist.err != nil {
		return false, denylist.err
	}
	_, ok := denylist.revoked[tokenID]
	return ok, nil
}

// # Fixture

type fixture struct {
	service  *auth.Service
	guard    *auth.Guard
	store    *memoryStore
	uploader *fakeUploader
	denylist *memoryDenylist
	tokens   *sec.TokenIssuer
	hasher   *sec.Hasher
	dir      string
}

func newFixture(t *testing.T, options auth.Options) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenIssuer(sec.TokenIssuerConfig{
		AccessSecret:  "access-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-for-tests",
		RefreshTTL:    240 * time.Hour,
		Issuer:        "vidstream.test",
	})
	require.NoError(t, err)

	fx := &fixture{
		store:    newMemoryStore(),
		uploader: &fakeUploader{},
		denylist: newMemoryDenylist(),
		tokens:   tokens,
		hasher:   sec.NewHasher(bcrypt.MinCost),
		dir:      t.TempDir(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.service = auth.NewService(fx.store, fx.hasher, fx.tokens, fx.uploader, fx.denylist, options, logger)
	fx.guard = auth.NewGuard(fx.tokens, fx.store, fx.denylist)
	return fx
}

// tempFile creates a spooled upload whose name contains marker.
func (fx *fixture) tempFile(t *testing.T, marker string) *media.LocalFile {
	t.Helper()

	file, err := os.CreateTemp(fx.dir, marker+"-*.png")
	require.NoError(t, err)
	_, err = file.WriteString("\x89PNG\r\n\x1a\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	return &media.LocalFile{Path: file.Name(), Filename: marker + ".png", Size: 8}
}

// registerAlice creates the reference account used by most scenarios.
func (fx *fixture) registerAlice(t *testing.T) *identity.PublicUser {
	t.Helper()

	user, err := fx.service.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw123",
		FullName: "Alice",
		Avatar:   fx.tempFile(t, "avatar"),
	})
	require.NoError(t, err)
	return user
}
