// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles what a signed-in user sees and edits about themselves
and other channels.

# Architecture

  - Entities: ChannelProfile and WatchedVideo (read projections).
  - Domain: Account fields live in the identity package; this package only
    updates them and never touches the password or the session.
  - Media: Avatar and cover image replacement go through the media uploader.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/vidstream/pkg/pagination"
)

// # Read Projections

// ChannelProfile is the public page of a channel with subscription counts.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatarUrl"`
	CoverImageURL             string `json:"coverImageUrl"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`

	// IsSubscribed is true when the viewer subscribes to this channel.
	// Anonymous viewers always see false.
	IsSubscribed bool `json:"isSubscribed"`
}

// VideoOwner is the nested summary of the channel that published a video.
type VideoOwner struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// WatchedVideo is one entry of a user's watch history.
type WatchedVideo struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	VideoURL     string     `json:"videoFile"`
	ThumbnailURL string     `json:"thumbnail"`
	Duration     float64    `json:"duration"`
	Views        int64      `json:"views"`
	CreatedAt    time.Time  `json:"createdAt"`
	WatchedAt    time.Time  `json:"watchedAt"`
	Owner        VideoOwner `json:"owner"`
}

// # Repository Contracts

// ProfileStore reads the aggregated channel and history projections.
type ProfileStore interface {
	/*
		FindChannelProfile loads the channel by canonical username.

		Parameters:
		  - ctx: context.Context
		  - username: string (canonical)
		  - viewerID: string (empty for anonymous viewers)

		Returns:
		  - *ChannelProfile: Aggregated profile
		  - error: apperr.NotFound when no such channel exists
	*/
	FindChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error)

	/*
		ListWatchHistory returns a page of the user's history, most recent first.

		Returns:
		  - []WatchedVideo: The requested page
		  - int: Total number of entries
		  - error: Store failures
	*/
	ListWatchHistory(ctx context.Context, userID string, page pagination.Params) ([]WatchedVideo, int, error)
}
