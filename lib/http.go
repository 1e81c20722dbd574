package lib

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uvensys/pchan"
	"github.com/uvensys/pchan/internal"
	"github.com/uvensys/pchan/lib/board"
	"github.com/uvensys/pchan/lib/captcha"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.GetFilteredHTTPLogger().Printf("can't encode response: %v", err)
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, struct {
		Error string `json:"error"`
	}{
		Error: msg,
	})
}

// MakeCaptcha issues a fresh challenge: GET /captcha.
func (s *Server) MakeCaptcha(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	chall, err := s.Gate.Issue(r.Context())
	if err != nil {
		lg.Error("can't issue captcha", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to generate captcha")
		return
	}

	lg.Debug("issued captcha", "captchaId", chall.ID)

	s.respondJSON(w, http.StatusOK, struct {
		CaptchaID string `json:"captchaId"`
		Image     string `json:"image"`
		Question  string `json:"question"`
	}{
		CaptchaID: chall.ID,
		Image:     chall.Image,
		Question:  pchan.CaptchaQuestion,
	})
}

// checkCaptcha runs the gate over the submitted fields and writes the
// rejection when the gate denies. It reports whether the write may proceed.
func (s *Server) checkCaptcha(w http.ResponseWriter, r *http.Request, req *writeRequest) bool {
	lg := internal.GetRequestLogger(r)

	err := s.Gate.Validate(r.Context(), req.CaptchaID, req.CaptchaAnswer)
	if err == nil {
		return true
	}

	var cerr *captcha.Error
	if errors.As(err, &cerr) {
		lg.Debug("captcha denied", "err", err)
		s.respondWithError(w, cerr.StatusCode, cerr.PublicReason)
		return false
	}

	lg.Error("captcha validation failed", "err", err)
	s.respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	return false
}

// CreatePost handles POST /{board}/post.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	req, err := s.parseWriteRequest(w, r)
	if err != nil {
		s.rejectBadRequest(w, r, err)
		return
	}

	if !s.checkCaptcha(w, r, req) {
		return
	}

	pid, err := s.repo.CreatePost(r.Context(), board.NewPost{
		Name:    req.Name,
		Subject: req.Subject,
		Content: req.Content,
		Email:   req.Email,
		Image:   req.Image,
	})
	if err != nil {
		lg.Error("can't create post", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	postsCreated.WithLabelValues("post").Inc()

	s.respondJSON(w, http.StatusCreated, struct {
		PID int64 `json:"pid"`
	}{PID: pid})
}

// CreateReply handles POST /{board}/reply.
func (s *Server) CreateReply(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	req, err := s.parseWriteRequest(w, r)
	if err != nil {
		s.rejectBadRequest(w, r, err)
		return
	}

	if !s.checkCaptcha(w, r, req) {
		return
	}

	if req.ParentID <= 0 {
		s.respondWithError(w, http.StatusBadRequest, "Invalid parentId")
		return
	}

	pid, err := s.repo.CreateReply(r.Context(), board.NewReply{
		Name:     req.Name,
		Subject:  req.Subject,
		Content:  req.Content,
		ParentID: req.ParentID,
		Email:    req.Email,
		Image:    req.Image,
	})
	if err != nil {
		lg.Error("can't create reply", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create reply")
		return
	}

	postsCreated.WithLabelValues("reply").Inc()

	s.respondJSON(w, http.StatusCreated, struct {
		PID int64 `json:"pid"`
	}{PID: pid})
}

// ListThreads handles GET /{board}/posts.
func (s *Server) ListThreads(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	threads, err := s.repo.Threads(r.Context())
	if err != nil {
		lg.Error("can't fetch threads", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	s.respondJSON(w, http.StatusOK, threads)
}

func (s *Server) rejectBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	lg := internal.GetRequestLogger(r)

	var perr *publicError
	if errors.As(err, &perr) {
		lg.Debug("rejecting write request", "err", err)
		s.respondWithError(w, perr.status, perr.msg)
		return
	}

	lg.Error("can't parse write request", "err", err)
	s.respondWithError(w, http.StatusBadRequest, "Invalid request")
}
