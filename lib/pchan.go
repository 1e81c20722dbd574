// Package lib implements the pchan HTTP server: captcha issuance, the
// captcha-gated posting pipeline, thread listings, and static assets.
package lib

import (
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uvensys/pchan"
	"github.com/uvensys/pchan/internal"
	"github.com/uvensys/pchan/lib/board"
	"github.com/uvensys/pchan/lib/captcha"
	"github.com/uvensys/pchan/lib/store"
	"github.com/uvensys/pchan/web"
)

var postsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pchan_posts_created",
	Help: "The total number of persisted writes by kind",
}, []string{"kind"})

type Options struct {
	// Boards is the list of board names that accept writes and listings.
	// Defaults to just pchan.DefaultBoard.
	Boards []string

	// Store holds outstanding challenges. Required.
	Store store.Interface

	// CaptchaTTL bounds how long an unconsumed challenge stays valid.
	// Defaults to pchan.DefaultCaptchaTTL.
	CaptchaTTL time.Duration

	// DB is the board database. Required.
	DB *sql.DB

	// UploadDir is where attachment files are written and served from.
	UploadDir string

	// MaxUploadBytes caps attachment size. Defaults to
	// pchan.DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

type Server struct {
	// Gate is exported so tests can issue challenges with a known answer
	// through the same path the /captcha handler uses.
	Gate *captcha.Gate

	mux  *http.ServeMux
	repo *board.Repo
	opts Options
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("lib: Options.Store is required")
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("lib: Options.DB is required")
	}

	if len(opts.Boards) == 0 {
		opts.Boards = []string{pchan.DefaultBoard}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = pchan.DefaultMaxUploadBytes
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}

	if err := os.MkdirAll(opts.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("lib: can't create upload dir: %w", err)
	}

	result := &Server{
		Gate: captcha.NewGate(opts.Store, opts.CaptchaTTL),
		repo: board.NewRepo(opts.DB),
		opts: opts,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /captcha", internal.NoStoreCache(http.HandlerFunc(result.MakeCaptcha)))

	for _, name := range opts.Boards {
		result.registerBoard(mux, name)
	}

	// Uploads never change under their random name, so they can be cached
	// forever.
	mux.Handle("GET /uploads/", internal.UnchangingCache(internal.NoBrowsing(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))),
	)))

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("lib: [unexpected] can't open embedded assets: %w", err)
	}
	// No method on the catch-all so that writes to unconfigured boards fall
	// through to a 404 instead of ServeMux's 405.
	mux.Handle("/", http.FileServerFS(static))

	result.mux = mux

	return result, nil
}

// registerBoard wires the write and listing routes for a single board. All
// boards share the same backing tables; the board list only scopes routing.
func (s *Server) registerBoard(mux *http.ServeMux, name string) {
	mux.HandleFunc("POST /"+name+"/post", s.CreatePost)
	mux.HandleFunc("POST /"+name+"/reply", s.CreateReply)
	mux.Handle("GET /"+name+"/posts", internal.GzipMiddleware(1, http.HandlerFunc(s.ListThreads)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
