package models

// ApifyRunInput is the actor input for the TikTok comments scraper.
type ApifyRunInput struct {
	PostURLs        []string `json:"postURLs"`
	CommentsPerPost int      `json:"commentsPerPost"`
}

type ApifyCommentItem struct {
	Text          string      `json:"text"`
	Author        ApifyAuthor `json:"author"`
	DiggCount     int         `json:"diggCount"`
	ReplyCount    int         `json:"replyCount"`
	CreateTimeISO string      `json:"createTimeISO"`
	VideoWebURL   string      `json:"videoWebUrl"`
}

type ApifyAuthor struct {
	UniqueID string `json:"uniqueId"`
}

type ScrapeResult struct {
	Videos   []Video   `json:"videos"`
	Comments []Comment `json:"comments"`
}

// ToComment maps a dataset item to a Comment. Items without text are
// rejected.
func (item ApifyCommentItem) ToComment(videoURL string) (Comment, bool) {
	if item.Text == "" {
		return Comment{}, false
	}

	username := item.Author.UniqueID
	if username == "" {
		username = "user"
	}
	if videoURL == "" {
		videoURL = item.VideoWebURL
	}

	return Comment{
		CommentText: item.Text,
		Provenance: Provenance{
			Username:   username,
			VideoURL:   videoURL,
			LikesCount: item.DiggCount,
			ReplyCount: item.ReplyCount,
			CreatedAt:  item.CreateTimeISO,
		},
	}, true
}

// DefaultVideo is the metadata recorded for a scraped video when the comment
// scraper does not return any.
func DefaultVideo(videoURL string, commentsCount int) Video {
	return Video{
		VideoURL:      videoURL,
		VideoTitle:    "TikTok Video",
		Author:        "Unknown",
		CommentsCount: commentsCount,
	}
}
