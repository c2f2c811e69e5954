// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/users/account"
	"github.com/taibuivan/vidstream/pkg/pagination"
)

var (
	profileColumns = []string{
		"id", "username", "fullname", "email", "avatarurl", "coverimageurl",
		"subscriberscount", "channelssubscribedtocount", "issubscribed",
	}
	historyColumns = []string{
		"id", "title", "description", "videourl", "thumbnailurl", "duration", "views", "createdat", "watchedat",
		"id", "username", "fullname", "avatarurl", "total",
	}
)

func newMockProfileStore(t *testing.T) (*account.PostgresProfileStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return account.NewPostgresProfileStore(mock, time.Second), mock
}

func TestPostgresProfileStore_FindChannelProfile(t *testing.T) {
	store, mock := newMockProfileStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(a.username) = $1")).
		WithArgs("alice", bobID).
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(
			aliceID, "alice", "Alice", "alice@x.com", "https://cdn/a.png", "",
			int64(3), int64(1), true,
		))

	profile, err := store.FindChannelProfile(context.Background(), "alice", bobID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStore_FindChannelProfile_NotFound(t *testing.T) {
	store, mock := newMockProfileStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users.account a")).
		WithArgs("ghost", "").
		WillReturnRows(pgxmock.NewRows(profileColumns))

	_, err := store.FindChannelProfile(context.Background(), "ghost", "")

	assert.True(t, apperr.IsNotFound(err))
}

func TestPostgresProfileStore_ListWatchHistory(t *testing.T) {
	store, mock := newMockProfileStore(t)
	watchedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY h.watchedat DESC")).
		WithArgs(aliceID, 2, 2).
		WillReturnRows(pgxmock.NewRows(historyColumns).
			AddRow("v3", "Third", "", "https://cdn/v3.mp4", "https://cdn/v3.png", 61.5, int64(10), watchedAt, watchedAt,
				bobID, "bob", "Bob", "", 5).
			AddRow("v4", "Fourth", "", "https://cdn/v4.mp4", "https://cdn/v4.png", 12.0, int64(0), watchedAt, watchedAt.Add(-time.Hour),
				bobID, "bob", "Bob", "", 5))

	videos, total, err := store.ListWatchHistory(context.Background(), aliceID, pagination.Params{Page: 2, Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, videos, 2)
	assert.Equal(t, "v3", videos[0].ID)
	assert.Equal(t, "bob", videos[0].Owner.Username)
	assert.InDelta(t, 61.5, videos[0].Duration, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
TestPostgresProfileStore_ListWatchHistory_PastLastPage verifies the total is still
reported when the requested page is beyond the end of the history.
*/
func TestPostgresProfileStore_ListWatchHistory_PastLastPage(t *testing.T) {
	store, mock := newMockProfileStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY h.watchedat DESC")).
		WithArgs(aliceID, 20, 1960).
		WillReturnRows(pgxmock.NewRows(historyColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM library.watchhistory")).
		WithArgs(aliceID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	videos, total, err := store.ListWatchHistory(context.Background(), aliceID, pagination.Params{Page: 99, Limit: 20})

	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.Equal(t, 5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

/*
TestPostgresProfileStore_ListWatchHistory_EmptyFirstPage verifies an empty history
needs no second count query.
*/
func TestPostgresProfileStore_ListWatchHistory_EmptyFirstPage(t *testing.T) {
	store, mock := newMockProfileStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY h.watchedat DESC")).
		WithArgs(aliceID, 20, 0).
		WillReturnRows(pgxmock.NewRows(historyColumns))

	videos, total, err := store.ListWatchHistory(context.Background(), aliceID, pagination.Params{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStore_ListWatchHistory_Timeout(t *testing.T) {
	store, mock := newMockProfileStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM library.watchhistory h")).
		WithArgs(aliceID, 20, 0).
		WillReturnError(context.DeadlineExceeded)

	_, _, err := store.ListWatchHistory(context.Background(), aliceID, pagination.Params{Page: 1, Limit: 20})

	assert.True(t, apperr.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
