package schema

// MediaVideoTable represents the 'media.video' table
type MediaVideoTable struct {
	Table        string
	ID           string
	OwnerID      string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     string
	Views        string
	IsPublished  string
	CreatedAt    string
	UpdatedAt    string
}

// MediaVideo is the schema definition for media.video
var MediaVideo = MediaVideoTable{
	Table:        "media.video",
	ID:           "id",
	OwnerID:      "ownerid",
	Title:        "title",
	Description:  "description",
	VideoURL:     "videourl",
	ThumbnailURL: "thumbnailurl",
	Duration:     "duration",
	Views:        "views",
	IsPublished:  "ispublished",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}
