package thread

import (
	"github.com/tidwall/gjson"

	"github.com/threadscope/threadscope/pkg/fn"
)

// Media field paths inside one raw post node. The second image candidate is
// the display-resolution rendition.
const (
	pathCarouselImages = "post.carousel_media.#.image_versions2.candidates.1.url"
	pathSingleImage    = "post.image_versions2.candidates.1.url"
	pathVideos         = "post.video_versions.#.url"
)

// gifImagePaths are the observed payload variants for the animated-GIF
// rendition, tried in order. The field moved between payload revisions.
var gifImagePaths = []string{
	"post.giphy_media_info.images.fixed_height.webp",
	"post.giphy_media_info.images.fixed_height.url",
	"post.animated_media.images.fixed_height.url",
}

// ResolveMedia projects one raw post node onto a single Media value.
//
// The images slot takes the carousel collection when present, else the single
// image URL, else nothing. A GIF rendition is carried independently. Video
// URLs are collected as a set. When any video is present the images slot is
// forced empty: the static image is a preview frame, not standalone content.
// That precedence is an invariant, not a heuristic.
func ResolveMedia(node gjson.Result) Media {
	m := Media{
		Images: stringList(node.Get(pathCarouselImages)),
		Videos: fn.Unique(stringList(node.Get(pathVideos))),
	}
	if len(m.Images) == 0 {
		if url := node.Get(pathSingleImage).Str; url != "" {
			m.Images = []string{url}
		}
	}
	if gif := firstPath(node, gifImagePaths); gif != "" {
		m.GifImages = []string{gif}
	}
	if len(m.Videos) > 0 {
		m.Images = nil
	}
	return m
}

// stringList flattens a gjson array result into its non-empty string
// elements. Text-only carousel slots come through as nulls and are dropped.
func stringList(res gjson.Result) []string {
	if !res.IsArray() {
		return nil
	}
	var out []string
	res.ForEach(func(_, v gjson.Result) bool {
		if v.Str != "" {
			out = append(out, v.Str)
		}
		return true
	})
	return out
}

// firstPath returns the first non-empty string value among candidate paths.
func firstPath(node gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := node.Get(p); v.Str != "" {
			return v.Str
		}
	}
	return ""
}
