package thread

// Assemble partitions a flat record list into the requested post and its
// direct replies.
//
// The root is the first record whose code matches. Replies are the remaining
// records that are marked as replies to the root's author; the root itself is
// excluded by position, not by code, so duplicate codes in the payload do not
// drop records. Replies keep their encounter order: upstream ordering is
// unpredictable and any ranking belongs to a presentation layer.
func Assemble(records []PostRecord, postCode string) (ThreadResult, error) {
	rootIdx := -1
	for i, rec := range records {
		if rec.Code == postCode {
			rootIdx = i
			break
		}
	}
	if rootIdx < 0 {
		return ThreadResult{}, ErrThreadNotFound
	}

	root := records[rootIdx]
	var replies []PostRecord
	for i, rec := range records {
		if i == rootIdx {
			continue
		}
		if rec.IsReply && rec.ReplyToAuthor == root.Username {
			replies = append(replies, rec)
		}
	}
	return ThreadResult{Thread: root, Replies: replies}, nil
}
