// Package board persists posts and replies. This is deliberately plain CRUD;
// all interesting invariants live in the captcha gate in front of it.
package board

import "github.com/microcosm-cc/bluemonday"

// Image is the metadata kept for an uploaded attachment. The file itself
// lives in the upload directory under Filename.
type Image struct {
	Filename     string
	OriginalName string
	Mime         string
	Size         int64
}

// Post is a thread-starting post as returned by thread listings.
type Post struct {
	PID               int64   `json:"pid"`
	Name              string  `json:"name"`
	Subject           string  `json:"subject"`
	Content           string  `json:"content"`
	Email             string  `json:"email"`
	ImageFilename     *string `json:"imageFilename"`
	ImageOriginalName *string `json:"imageOriginalName"`
	ImageMime         *string `json:"imageMime"`
	ImageSize         *int64  `json:"imageSize"`
	Replies           []Reply `json:"replies"`
}

// Reply is a response attached to a post.
type Reply struct {
	PID               int64   `json:"pid"`
	Name              string  `json:"name"`
	Subject           string  `json:"subject"`
	Content           string  `json:"content"`
	ParentID          int64   `json:"parentId"`
	Email             string  `json:"email"`
	ImageFilename     *string `json:"imageFilename"`
	ImageOriginalName *string `json:"imageOriginalName"`
	ImageMime         *string `json:"imageMime"`
	ImageSize         *int64  `json:"imageSize"`
}

var sanitizePolicy = bluemonday.StrictPolicy()

// sanitize strips every HTML tag and attribute from user-supplied text,
// leaving plain text only.
func sanitize(input string) string {
	return sanitizePolicy.Sanitize(input)
}
