package domain

import "time"

// Comment is one comment on a post, reduced to the fields this tool
// surfaces. Published is the zero time when the instance sent a timestamp
// in a form we do not recognize.
type Comment struct {
	ID        CommentID
	Content   string
	Creator   string
	Published time.Time
}

type CommentID int64

type PostID int64
