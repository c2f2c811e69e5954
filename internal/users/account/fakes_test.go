// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/media"
	"github.com/taibuivan/vidstream/internal/users/account"
	"github.com/taibuivan/vidstream/internal/users/identity"
	"github.com/taibuivan/vidstream/pkg/pagination"
)

// # In-memory Account Store

type memoryUsers struct {
	mu      sync.Mutex
	users   map[string]*identity.User
	saveErr error
}

func newMemoryUsers(users ...identity.User) *memoryUsers {
	store := &memoryUsers{users: map[string]*identity.User{}}
	for _, user := range users {
		copied := user
		store.users[user.ID] = &copied
	}
	return store
}

func (store *memoryUsers) Create(context.Context, *identity.User) error {
	return errors.New("not used by account")
}

func (store *memoryUsers) FindByID(_ context.Context, id string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (store *memoryUsers) FindByUsername(context.Context, string) (*identity.User, error) {
	return nil, errors.New("not used by account")
}

func (store *memoryUsers) FindByUsernameOrEmail(context.Context, string, string) (*identity.User, error) {
	return nil, errors.New("not used by account")
}

func (store *memoryUsers) SetRefreshTokenHash(context.Context, string, string) error {
	return errors.New("not used by account")
}

func (store *memoryUsers) RotateRefreshTokenHash(context.Context, string, string, string) (bool, error) {
	return false, errors.New("not used by account")
}

func (store *memoryUsers) ClearRefreshToken(context.Context, string) error {
	return errors.New("not used by account")
}

func (store *memoryUsers) UpdatePassword(context.Context, string, string, bool) error {
	return errors.New("not used by account")
}

func (store *memoryUsers) UpdateDetails(_ context.Context, id, fullName, email string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for otherID, other := range store.users {
		if otherID != id && other.Email == email {
			return nil, apperr.Conflict("User with this email already exists")
		}
	}
	return store.apply(id, func(user *identity.User) {
		user.FullName = fullName
		user.Email = email
	})
}

func (store *memoryUsers) UpdateAvatar(_ context.Context, id, url string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.apply(id, func(user *identity.User) { user.AvatarURL = url })
}

func (store *memoryUsers) UpdateCoverImage(_ context.Context, id, url string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.apply(id, func(user *identity.User) { user.CoverImageURL = url })
}

// apply must be called with the lock held.
func (store *memoryUsers) apply(id string, change func(*identity.User)) (*identity.User, error) {
	if store.saveErr != nil {
		return nil, store.saveErr
	}
	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	change(user)
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

// # Profile Store

type fakeProfiles struct {
	profiles map[string]account.ChannelProfile
	// subscriptions maps a channel username to its subscriber IDs.
	subscriptions map[string][]string
	history       []account.WatchedVideo
	err           error

	lastViewer string
	lastPage   pagination.Params
}

func (store *fakeProfiles) FindChannelProfile(_ context.Context, username, viewerID string) (*account.ChannelProfile, error) {
	store.lastViewer = viewerID
	if store.err != nil {
		return nil, store.err
	}

	profile, ok := store.profiles[username]
	if !ok {
		return nil, apperr.NotFound("Channel")
	}
	for _, subscriber := range store.subscriptions[username] {
		if viewerID != "" && subscriber == viewerID {
			profile.IsSubscribed = true
		}
	}
	return &profile, nil
}

func (store *fakeProfiles) ListWatchHistory(_ context.Context, _ string, page pagination.Params) ([]account.WatchedVideo, int, error) {
	store.lastPage = page
	if store.err != nil {
		return nil, 0, store.err
	}

	start := page.Offset()
	if start >= len(store.history) {
		return nil, len(store.history), nil
	}
	end := min(start+page.Limit, len(store.history))
	return store.history[start:end], len(store.history), nil
}

// # Media Uploader

type fakeUploader struct {
	mu          sync.Mutex
	uploadErr   error
	deleteErr   error
	uploadCount int
	deleted     []string
}

func (uploader *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	defer os.Remove(localPath)
	if uploader.uploadErr != nil {
		return "", uploader.uploadErr
	}
	uploader.uploadCount++
	return "https://cdn.example.com/uploads/" + filepath.Base(localPath), nil
}

func (uploader *fakeUploader) Delete(_ context.Context, url string) error {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	uploader.deleted = append(uploader.deleted, url)
	return uploader.deleteErr
}

// # Fixture

const (
	aliceID = "0195f3c2-0000-7000-8000-000000000001"
	bobID   = "0195f3c2-0000-7000-8000-000000000002"
)

type fixture struct {
	service  *account.Service
	users    *memoryUsers
	profiles *fakeProfiles
	uploader *fakeUploader
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{
		users: newMemoryUsers(
			identity.User{
				ID:        aliceID,
				Username:  "alice",
				Email:     "alice@x.com",
				FullName:  "Alice",
				AvatarURL: "https://cdn.example.com/uploads/old-avatar.png",
			},
			identity.User{ID: bobID, Username: "bob", Email: "bob@x.com", FullName: "Bob"},
		),
		profiles: &fakeProfiles{
			profiles: map[string]account.ChannelProfile{
				"alice": {ID: aliceID, Username: "alice", FullName: "Alice", SubscribersCount: 1},
			},
			subscriptions: map[string][]string{"alice": {bobID}},
		},
		uploader: &fakeUploader{},
		dir:      t.TempDir(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.service = account.NewService(fx.users, fx.profiles, fx.uploader, logger)
	return fx
}

func (fx *fixture) tempFile(t *testing.T, name string) *media.LocalFile {
	t.Helper()

	path := filepath.Join(fx.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	return &media.LocalFile{Path: path, Filename: name, Size: 8}
}

func watched(count int) []account.WatchedVideo {
	videos := make([]account.WatchedVideo, 0, count)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range count {
		videos = append(videos, account.WatchedVideo{
			ID:        string(rune('a' + i)),
			Title:     "Video",
			WatchedAt: base.Add(-time.Duration(i) * time.Hour),
			Owner:     account.VideoOwner{ID: aliceID, Username: "alice"},
		})
	}
	return videos
}
