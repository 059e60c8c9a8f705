package thread

import "github.com/tidwall/gjson"

// FindAll walks a parsed JSON value depth-first, left to right, and returns
// every value stored under a member named key, at any depth. The walk keeps
// descending below a match, so collections nested inside other collections
// of the same name are found too.
func FindAll(root gjson.Result, key string) []gjson.Result {
	var found []gjson.Result
	walkJSON(root, key, &found)
	return found
}

func walkJSON(node gjson.Result, key string, found *[]gjson.Result) {
	switch {
	case node.IsObject():
		node.ForEach(func(k, v gjson.Result) bool {
			if k.Str == key {
				*found = append(*found, v)
			}
			walkJSON(v, key, found)
			return true
		})
	case node.IsArray():
		node.ForEach(func(_, v gjson.Result) bool {
			walkJSON(v, key, found)
			return true
		})
	}
}
