package thread

import (
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

func TestResolveMedia_SingleImage(t *testing.T) {
	node := gjson.Parse(`{"post": {"image_versions2": {"candidates": [
		{"url": "https://cdn/full.jpg"},
		{"url": "https://cdn/display.jpg"}
	]}}}`)

	m := ResolveMedia(node)
	if !reflect.DeepEqual(m.Images, []string{"https://cdn/display.jpg"}) {
		t.Errorf("wrong images: %v", m.Images)
	}
	if len(m.Videos) != 0 || len(m.GifImages) != 0 {
		t.Errorf("unexpected videos/gifs: %v %v", m.Videos, m.GifImages)
	}
}

func TestResolveMedia_CarouselOrdered(t *testing.T) {
	node := gjson.Parse(`{"post": {
		"carousel_media": [
			{"image_versions2": {"candidates": [{"url": "a0"}, {"url": "a1"}]}},
			{"image_versions2": {"candidates": [{"url": "b0"}, {"url": "b1"}]}},
			{"image_versions2": {"candidates": [{"url": "c0"}, {"url": "c1"}]}}
		],
		"image_versions2": {"candidates": [{"url": "x0"}, {"url": "x1"}]}
	}}`)

	m := ResolveMedia(node)
	if !reflect.DeepEqual(m.Images, []string{"a1", "b1", "c1"}) {
		t.Errorf("carousel should win over single image in order: %v", m.Images)
	}
}

func TestResolveMedia_VideoPrecedence(t *testing.T) {
	// Carousel AND a video present: the video wins and images are dropped.
	node := gjson.Parse(`{"post": {
		"carousel_media": [
			{"image_versions2": {"candidates": [{"url": "a0"}, {"url": "a1"}]}}
		],
		"video_versions": [{"url": "v1"}, {"url": "v1"}, {"url": "v2"}]
	}}`)

	m := ResolveMedia(node)
	if len(m.Images) != 0 {
		t.Errorf("images must be empty when a video exists: %v", m.Images)
	}
	if len(m.Videos) != 2 {
		t.Errorf("videos should be deduplicated: %v", m.Videos)
	}
	seen := map[string]bool{}
	for _, v := range m.Videos {
		seen[v] = true
	}
	if !seen["v1"] || !seen["v2"] {
		t.Errorf("missing video urls: %v", m.Videos)
	}
}

func TestResolveMedia_FiltersNullCarouselSlots(t *testing.T) {
	// Text-only carousel slots project as nulls and must be dropped.
	node := gjson.Parse(`{"post": {"carousel_media": [
		{"image_versions2": {"candidates": [{"url": "a0"}, {"url": "a1"}]}},
		{"other": true},
		{"image_versions2": {"candidates": [{"url": "b0"}, {"url": "b1"}]}}
	]}}`)

	m := ResolveMedia(node)
	if !reflect.DeepEqual(m.Images, []string{"a1", "b1"}) {
		t.Errorf("null slots should be filtered: %v", m.Images)
	}
}

func TestResolveMedia_GifCandidatePaths(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "giphy webp",
			doc:  `{"post": {"giphy_media_info": {"images": {"fixed_height": {"webp": "g1"}}}}}`,
			want: "g1",
		},
		{
			name: "giphy url fallback",
			doc:  `{"post": {"giphy_media_info": {"images": {"fixed_height": {"url": "g2"}}}}}`,
			want: "g2",
		},
		{
			name: "animated media",
			doc:  `{"post": {"animated_media": {"images": {"fixed_height": {"url": "g3"}}}}}`,
			want: "g3",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ResolveMedia(gjson.Parse(tc.doc))
			if !reflect.DeepEqual(m.GifImages, []string{tc.want}) {
				t.Errorf("expected gif %q, got %v", tc.want, m.GifImages)
			}
		})
	}
}

func TestResolveMedia_NoMedia(t *testing.T) {
	m := ResolveMedia(gjson.Parse(`{"post": {"caption": {"text": "words only"}}}`))
	if len(m.Images) != 0 || len(m.Videos) != 0 || len(m.GifImages) != 0 {
		t.Errorf("text-only post should have no media: %+v", m)
	}
}
