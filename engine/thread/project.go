package thread

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Fixed projection paths inside one raw post node. Everything here is
// optional in practice; absent paths yield zero values, never an error.
const (
	pathID           = "post.id"
	pathPK           = "post.pk"
	pathCode         = "post.code"
	pathText         = "post.caption.text"
	pathPublishedAt  = "post.taken_at"
	pathUsername     = "post.user.username"
	pathUserPic      = "post.user.profile_pic_url"
	pathUserVerified = "post.user.is_verified"
	pathLikeCount    = "post.like_count"
	pathIsReply      = "post.text_post_app_info.is_reply"
	pathReplyTo      = "post.text_post_app_info.reply_to_author.username"

	// The reply count lives outside the post object and may be a localized
	// CTA string such as "12 replies" or "View all replies".
	pathReplyCount = "view_replies_cta_string"
)

// Project normalizes one raw post node into a PostRecord. Identity fields
// are expected to be present but their absence still yields a (partial)
// record rather than aborting the collection. Sentiment is attached later by
// the extractor; Project itself is pure and deterministic.
func Project(node gjson.Result) PostRecord {
	rec := PostRecord{
		ID:            node.Get(pathID).String(),
		PK:            node.Get(pathPK).String(),
		Code:          node.Get(pathCode).Str,
		Username:      node.Get(pathUsername).Str,
		UserPic:       node.Get(pathUserPic).Str,
		UserVerified:  node.Get(pathUserVerified).Bool(),
		Text:          node.Get(pathText).Str,
		PublishedAt:   node.Get(pathPublishedAt).Int(),
		LikeCount:     int(node.Get(pathLikeCount).Int()),
		ReplyCount:    normalizeReplyCount(node.Get(pathReplyCount)),
		Media:         ResolveMedia(node),
		IsReply:       node.Get(pathIsReply).Bool(),
		ReplyToAuthor: node.Get(pathReplyTo).Str,
	}
	rec.URL = Permalink(rec.Username, rec.Code)
	return rec
}

// Permalink derives the canonical public URL for a post.
func Permalink(username, code string) string {
	return fmt.Sprintf("https://%s/@%s/post/%s", PermalinkHost, username, code)
}

// normalizeReplyCount accepts either a numeric count or a CTA string. For
// strings the leading whitespace-delimited token must be all digits
// ("12 replies" -> 12); anything else ("View all replies") counts as 0.
// Locale-specific shapes such as comma-grouped thousands also fall to 0.
func normalizeReplyCount(res gjson.Result) int {
	switch res.Type {
	case gjson.Number:
		return int(res.Int())
	case gjson.String:
		token, _, _ := strings.Cut(strings.TrimSpace(res.Str), " ")
		if token == "" || !allDigits(token) {
			return 0
		}
		n := 0
		for _, r := range token {
			n = n*10 + int(r-'0')
		}
		return n
	default:
		return 0
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
