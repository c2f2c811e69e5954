// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the channel and history read models.

# Schema Table Mapping
  - users.account: Channel identity.
  - users.subscription: Subscriber to channel edges.
  - media.video: Videos and their owner.
  - library.watchhistory: Per-user viewing log.
*/
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/vidstream/internal/platform/database/schema"
	"github.com/taibuivan/vidstream/internal/platform/dberr"
	"github.com/taibuivan/vidstream/internal/platform/postgres"
	"github.com/taibuivan/vidstream/pkg/pagination"
)

// # Repository Implementation

// PostgresProfileStore implements [ProfileStore] using pgx.
type PostgresProfileStore struct {
	db      postgres.DBTX
	timeout time.Duration
}

// NewPostgresProfileStore creates a new PostgreSQL implementation of [ProfileStore].
func NewPostgresProfileStore(db postgres.DBTX, timeout time.Duration) *PostgresProfileStore {
	return &PostgresProfileStore{db: db, timeout: timeout}
}

func (repository *PostgresProfileStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if repository.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, repository.timeout)
}

/*
FindChannelProfile loads a channel with its subscription counts.

Description: Both counts and the viewer's subscription flag are computed by
correlated subqueries in a single round trip.

Parameters:
  - ctx: context.Context
  - username: string (canonical)
  - viewerID: string (empty never matches a subscriber)

Returns:
  - *ChannelProfile: Aggregated profile
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresProfileStore) FindChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error) {
	account, subscription := schema.UserAccount, schema.UserSubscription

	query := fmt.Sprintf(`
		SELECT
			a.%[1]s, a.%[2]s, a.%[3]s, a.%[4]s, a.%[5]s, a.%[6]s,
			(SELECT COUNT(*) FROM %[8]s s WHERE s.%[9]s = a.%[1]s) AS subscriberscount,
			(SELECT COUNT(*) FROM %[8]s s WHERE s.%[10]s = a.%[1]s) AS channelssubscribedtocount,
			EXISTS (
				SELECT 1 FROM %[8]s s
				WHERE s.%[9]s = a.%[1]s AND $2 <> '' AND s.%[10]s::text = $2
			) AS issubscribed
		FROM %[7]s a
		WHERE LOWER(a.%[2]s) = $1`,
		account.ID, account.Username, account.FullName, account.Email,
		account.AvatarURL, account.CoverImageURL,
		account.Table,
		subscription.Table, subscription.ChannelID, subscription.SubscriberID,
	)

	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	profile := &ChannelProfile{}
	err := repository.db.QueryRow(ctx, query, username, viewerID).Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Email,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscribersCount,
		&profile.ChannelsSubscribedToCount,
		&profile.IsSubscribed,
	)
	if err != nil {
		return nil, fmt.Errorf("account_store_channel_profile: %w", dberr.Wrap(err, "Channel"))
	}

	return profile, nil
}

/*
ListWatchHistory returns a page of the user's history with each video's owner.

Description: Uses COUNT(*) OVER() to return the total alongside the page.
A page past the end carries no rows and therefore no total, so the count is
then taken separately. Entries are ordered by watch time, most recent first.

Parameters:
  - ctx: context.Context
  - userID: string
  - page: pagination.Params

Returns:
  - []WatchedVideo: Page of entries
  - int: Total entry count
  - error: Database retrieval failures
*/
func (repository *PostgresProfileStore) ListWatchHistory(ctx context.Context, userID string, page pagination.Params) ([]WatchedVideo, int, error) {
	history, video, owner := schema.LibraryWatchHistory, schema.MediaVideo, schema.UserAccount

	query := fmt.Sprintf(`
		SELECT
			v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, h.%s,
			o.%s, o.%s, o.%s, o.%s,
			COUNT(*) OVER() AS total
		FROM %s h
		JOIN %s v ON v.%s = h.%s
		JOIN %s o ON o.%s = v.%s
		WHERE h.%s = $1
		ORDER BY h.%s DESC
		LIMIT $2 OFFSET $3`,
		video.ID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Duration, video.Views, video.CreatedAt, history.WatchedAt,
		owner.ID, owner.Username, owner.FullName, owner.AvatarURL,
		history.Table,
		video.Table, video.ID, history.VideoID,
		owner.Table, owner.ID, video.OwnerID,
		history.UserID,
		history.WatchedAt,
	)

	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	rows, err := repository.db.Query(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("account_store_watch_history: %w", dberr.Wrap(err, "Watch history"))
	}
	defer rows.Close()

	var videos []WatchedVideo
	var total int
	for rows.Next() {
		var entry WatchedVideo
		err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Description, &entry.VideoURL, &entry.ThumbnailURL,
			&entry.Duration, &entry.Views, &entry.CreatedAt, &entry.WatchedAt,
			&entry.Owner.ID, &entry.Owner.Username, &entry.Owner.FullName, &entry.Owner.AvatarURL,
			&total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("account_store_watch_history_scan: %w", dberr.Wrap(err, "Watch history"))
		}
		videos = append(videos, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("account_store_watch_history_rows: %w", dberr.Wrap(err, "Watch history"))
	}

	if len(videos) == 0 && page.Offset() > 0 {
		total, err = repository.countWatchHistory(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
	}

	return videos, total, nil
}

func (repository *PostgresProfileStore) countWatchHistory(ctx context.Context, userID string) (int, error) {
	history := schema.LibraryWatchHistory
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, history.Table, history.UserID)

	var total int
	if err := repository.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("account_store_watch_history_count: %w", dberr.Wrap(err, "Watch history"))
	}
	return total, nil
}
