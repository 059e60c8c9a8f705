package thread

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestFindAll_DepthFirstOrder(t *testing.T) {
	doc := `{
		"a": {"k": 1, "b": {"k": 2}},
		"c": [{"k": 3}, {"d": {"k": 4}}],
		"k": 5
	}`

	got := FindAll(gjson.Parse(doc), "k")
	want := []int64{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, res := range got {
		if res.Int() != want[i] {
			t.Errorf("result %d: expected %d, got %v", i, want[i], res.Value())
		}
	}
}

func TestFindAll_DescendsBelowMatches(t *testing.T) {
	// A matching key whose value itself contains the key again: both must
	// be reported, outer first.
	doc := `{"items": {"nested": {"items": [1, 2]}}}`

	got := FindAll(gjson.Parse(doc), "items")
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if !got[0].IsObject() {
		t.Error("first result should be the outer object")
	}
	if !got[1].IsArray() {
		t.Error("second result should be the inner array")
	}
}

func TestFindAll_NoMatches(t *testing.T) {
	got := FindAll(gjson.Parse(`{"a": [1, 2, {"b": 3}]}`), "missing")
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
}

func TestFindAll_ScalarRoot(t *testing.T) {
	if got := FindAll(gjson.Parse(`42`), "k"); len(got) != 0 {
		t.Fatalf("scalar root should yield nothing, got %d", len(got))
	}
}

func TestFindAll_DuplicateKeysAtDifferentDepths(t *testing.T) {
	doc := `[{"k": "x"}, {"wrap": [{"k": "y"}]}, {"k": "x"}]`

	got := FindAll(gjson.Parse(doc), "k")
	if len(got) != 3 {
		t.Fatalf("expected 3 results including duplicates, got %d", len(got))
	}
	if got[0].Str != "x" || got[1].Str != "y" || got[2].Str != "x" {
		t.Errorf("wrong order: %v %v %v", got[0].Str, got[1].Str, got[2].Str)
	}
}
