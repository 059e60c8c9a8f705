// Package thread extracts a Threads post and its direct replies from the
// hidden JSON datasets embedded in a rendered page, normalizes each post into
// a flat record, and enriches records with sentiment from an external
// classifier worker.
package thread

import "context"

// PermalinkHost is the host used when deriving canonical post URLs.
const PermalinkHost = "www.threads.net"

// Sentiment is the classifier's verdict for one record's text.
type Sentiment struct {
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score,omitempty"`
	// Unavailable is set when the classifier failed or timed out for this
	// record. The record itself is still returned.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Media holds the resolved media URLs for one post. Images and Videos are
// mutually exclusive: a post with any video keeps only its videos, the
// static image being just a preview frame.
type Media struct {
	Images    []string `json:"images"`
	GifImages []string `json:"gif_images,omitempty"`
	Videos    []string `json:"videos"`
}

// PostRecord is the normalized, analysis-ready shape of one post.
type PostRecord struct {
	ID   string `json:"id"`
	PK   string `json:"pk"`
	Code string `json:"code"`

	Username     string `json:"username"`
	UserPic      string `json:"user_pic,omitempty"`
	UserVerified bool   `json:"user_verified"`

	Text        string `json:"text,omitempty"`
	PublishedAt int64  `json:"published_at,omitempty"`

	LikeCount  int `json:"like_count"`
	ReplyCount int `json:"reply_count"`

	Media

	IsReply       bool   `json:"is_reply,omitempty"`
	ReplyToAuthor string `json:"reply_to_author,omitempty"`

	URL       string     `json:"url"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// ThreadResult is the terminal output of one extraction: the requested post
// and its direct replies, in the order they appeared in the payload.
type ThreadResult struct {
	Thread  PostRecord   `json:"thread"`
	Replies []PostRecord `json:"replies"`
}

// Fetcher supplies the raw script-tag text contents of one fully rendered
// page. Implementations are responsible for waiting until the post's data is
// present; the engine does not retry.
type Fetcher interface {
	FetchBlobs(ctx context.Context, url, postCode string) ([]string, error)
}

// Classifier scores a non-empty text. The engine never calls it with empty
// input, and a failure only marks that one record's sentiment unavailable.
type Classifier interface {
	Classify(ctx context.Context, text string) (Sentiment, error)
}
