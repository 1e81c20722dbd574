package board

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// NewPost is the user-supplied part of a post. Text fields are sanitized on
// insert; no captcha fields ever reach this layer.
type NewPost struct {
	Name    string
	Subject string
	Content string
	Email   string
	Image   *Image
}

// NewReply is the user-supplied part of a reply.
type NewReply struct {
	Name     string
	Subject  string
	Content  string
	ParentID int64
	Email    string
	Image    *Image
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func imageColumns(img *Image) (filename, originalName, mime any, size any) {
	if img == nil {
		return nil, nil, nil, nil
	}
	return img.Filename, img.OriginalName, img.Mime, img.Size
}

// CreatePost inserts a thread-starting post and returns its pid.
func (r *Repo) CreatePost(ctx context.Context, p NewPost) (int64, error) {
	filename, originalName, mime, size := imageColumns(p.Image)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO post (name, subject, content, email, imageFilename, imageOriginalName, imageMime, imageSize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sanitize(p.Name), sanitize(p.Subject), sanitize(p.Content), sanitize(p.Email), filename, originalName, mime, size)
	if err != nil {
		return 0, fmt.Errorf("board: can't insert post: %w", err)
	}

	return res.LastInsertId()
}

// CreateReply inserts a reply under ParentID and returns its pid.
func (r *Repo) CreateReply(ctx context.Context, p NewReply) (int64, error) {
	filename, originalName, mime, size := imageColumns(p.Image)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reply (name, subject, content, parentId, email, imageFilename, imageOriginalName, imageMime, imageSize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sanitize(p.Name), sanitize(p.Subject), sanitize(p.Content), p.ParentID, sanitize(p.Email), filename, originalName, mime, size)
	if err != nil {
		return 0, fmt.Errorf("board: can't insert reply: %w", err)
	}

	return res.LastInsertId()
}

// Threads returns every post, newest first, each carrying its replies in
// posting order.
func (r *Repo) Threads(ctx context.Context) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pid, name, subject, content, email, imageFilename, imageOriginalName, imageMime, imageSize
		FROM post ORDER BY pid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("board: can't fetch posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	var pids []any
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.PID, &p.Name, &p.Subject, &p.Content, &p.Email, &p.ImageFilename, &p.ImageOriginalName, &p.ImageMime, &p.ImageSize); err != nil {
			return nil, fmt.Errorf("board: can't scan post: %w", err)
		}
		p.Replies = []Reply{}
		posts = append(posts, p)
		pids = append(pids, p.PID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("board: can't fetch posts: %w", err)
	}

	if len(posts) == 0 {
		return []Post{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(pids)), ",")
	replyRows, err := r.db.QueryContext(ctx, `
		SELECT pid, name, subject, content, parentId, email, imageFilename, imageOriginalName, imageMime, imageSize
		FROM reply WHERE parentId IN (`+placeholders+`) ORDER BY pid ASC
	`, pids...)
	if err != nil {
		return nil, fmt.Errorf("board: can't fetch replies: %w", err)
	}
	defer replyRows.Close()

	byParent := map[int64][]Reply{}
	for replyRows.Next() {
		var rp Reply
		if err := replyRows.Scan(&rp.PID, &rp.Name, &rp.Subject, &rp.Content, &rp.ParentID, &rp.Email, &rp.ImageFilename, &rp.ImageOriginalName, &rp.ImageMime, &rp.ImageSize); err != nil {
			return nil, fmt.Errorf("board: can't scan reply: %w", err)
		}
		byParent[rp.ParentID] = append(byParent[rp.ParentID], rp)
	}
	if err := replyRows.Err(); err != nil {
		return nil, fmt.Errorf("board: can't fetch replies: %w", err)
	}

	for i := range posts {
		if replies, ok := byParent[posts[i].PID]; ok {
			posts[i].Replies = replies
		}
	}

	return posts, nil
}
