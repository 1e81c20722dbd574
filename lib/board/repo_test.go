package board

import (
	"path/filepath"
	"testing"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRepo(db)
}

func TestCreatePost(t *testing.T) {
	repo := testRepo(t)

	pid, err := repo.CreatePost(t.Context(), NewPost{
		Name:    "anon",
		Subject: "hi",
		Content: "hello",
		Email:   "a@b.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if pid == 0 {
		t.Error("wanted a non-zero pid")
	}

	threads, err := repo.Threads(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 1 {
		t.Fatalf("wanted 1 thread, got: %d", len(threads))
	}
	if threads[0].PID != pid {
		t.Errorf("wanted pid %d, got: %d", pid, threads[0].PID)
	}
	if threads[0].ImageFilename != nil {
		t.Error("post without upload should have no image metadata")
	}
}

func TestCreatePostWithImage(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.CreatePost(t.Context(), NewPost{
		Name:    "anon",
		Subject: "pic",
		Content: "look",
		Email:   "a@b.com",
		Image: &Image{
			Filename:     "deadbeef",
			OriginalName: "cat.png",
			Mime:         "image/png",
			Size:         1234,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	threads, err := repo.Threads(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	p := threads[0]
	if p.ImageFilename == nil || *p.ImageFilename != "deadbeef" {
		t.Errorf("wanted stored filename deadbeef, got: %v", p.ImageFilename)
	}
	if p.ImageSize == nil || *p.ImageSize != 1234 {
		t.Errorf("wanted size 1234, got: %v", p.ImageSize)
	}
}

func TestSanitizesOnInsert(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.CreatePost(t.Context(), NewPost{
		Name:    "anon",
		Subject: `<script>alert("xss")</script>hi`,
		Content: `<b>bold</b> text`,
		Email:   "a@b.com",
	}); err != nil {
		t.Fatal(err)
	}

	threads, err := repo.Threads(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if got := threads[0].Subject; got != "hi" {
		t.Errorf("script tag survived sanitization: %q", got)
	}
	if got := threads[0].Content; got != "bold text" {
		t.Errorf("markup survived sanitization: %q", got)
	}
}

func TestThreadsOrdering(t *testing.T) {
	repo := testRepo(t)

	first, err := repo.CreatePost(t.Context(), NewPost{Name: "anon", Subject: "one", Content: "x", Email: "a@b.com"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.CreatePost(t.Context(), NewPost{Name: "anon", Subject: "two", Content: "y", Email: "a@b.com"})
	if err != nil {
		t.Fatal(err)
	}

	for i, content := range []string{"r1", "r2"} {
		if _, err := repo.CreateReply(t.Context(), NewReply{
			Name:     "anon",
			Subject:  "re",
			Content:  content,
			ParentID: first,
			Email:    "a@b.com",
		}); err != nil {
			t.Fatalf("reply %d: %v", i, err)
		}
	}

	threads, err := repo.Threads(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if len(threads) != 2 {
		t.Fatalf("wanted 2 threads, got: %d", len(threads))
	}

	// Newest post first.
	if threads[0].PID != second || threads[1].PID != first {
		t.Errorf("wanted newest-first ordering, got: %d then %d", threads[0].PID, threads[1].PID)
	}

	// Replies in posting order under their parent.
	replies := threads[1].Replies
	if len(replies) != 2 {
		t.Fatalf("wanted 2 replies, got: %d", len(replies))
	}
	if replies[0].Content != "r1" || replies[1].Content != "r2" {
		t.Errorf("replies out of order: %q, %q", replies[0].Content, replies[1].Content)
	}

	if len(threads[0].Replies) != 0 {
		t.Errorf("thread without replies should have an empty slice, got: %d", len(threads[0].Replies))
	}
}
