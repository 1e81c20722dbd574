package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/uvensys/pchan/lib/board"
)

// allowedMimeTypes are the attachment types a post may carry.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// publicError is a request rejection with a message safe to show the client.
type publicError struct {
	status int
	msg    string
	cause  error
}

func (e *publicError) Error() string {
	return fmt.Sprintf("lib: rejected request: %s: %v", e.msg, e.cause)
}

func (e *publicError) Unwrap() error { return e.cause }

// writeRequest is the decoded body of a post or reply request, whichever
// encoding it arrived in. Captcha fields are pulled out here and never
// persisted.
type writeRequest struct {
	Name          string `json:"name"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	Email         string `json:"email"`
	ParentID      int64  `json:"parentId"`
	CaptchaID     string `json:"captchaId"`
	CaptchaAnswer string `json:"captchaAnswer"`

	Image *board.Image `json:"-"`
}

// parseWriteRequest reads a write body as either JSON or multipart form
// data. Only multipart bodies can carry an attachment.
func (s *Server) parseWriteRequest(w http.ResponseWriter, r *http.Request) (*writeRequest, error) {
	// Field overhead on top of the attachment cap.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1024*1024)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		return s.parseMultipart(r)
	}

	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &publicError{status: http.StatusBadRequest, msg: "Invalid request body", cause: err}
	}

	return &req, nil
}

func (s *Server) parseMultipart(r *http.Request) (*writeRequest, error) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &publicError{status: http.StatusBadRequest, msg: "File too large", cause: err}
		}
		return nil, &publicError{status: http.StatusBadRequest, msg: "Invalid request body", cause: err}
	}

	req := &writeRequest{
		Name:          r.FormValue("name"),
		Subject:       r.FormValue("subject"),
		Content:       r.FormValue("content"),
		Email:         r.FormValue("email"),
		CaptchaID:     r.FormValue("captchaId"),
		CaptchaAnswer: r.FormValue("captchaAnswer"),
	}

	if raw := r.FormValue("parentId"); raw != "" {
		parentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &publicError{status: http.StatusBadRequest, msg: "Invalid parentId", cause: err}
		}
		req.ParentID = parentID
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return nil, &publicError{status: http.StatusBadRequest, msg: "Invalid request body", cause: err}
	}
	defer file.Close()

	img, err := s.saveUpload(file, header)
	if err != nil {
		return nil, err
	}
	req.Image = img

	return req, nil
}

// saveUpload writes an attachment into the upload directory under a random
// name and returns its metadata.
func (s *Server) saveUpload(file io.Reader, header *multipart.FileHeader) (*board.Image, error) {
	mimeType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[mimeType] {
		return nil, &publicError{
			status: http.StatusBadRequest,
			msg:    "Invalid file type",
			cause:  fmt.Errorf("lib: mime type %q is not allowed", mimeType),
		}
	}

	if header.Size > s.opts.MaxUploadBytes {
		return nil, &publicError{
			status: http.StatusBadRequest,
			msg:    "File too large",
			cause:  fmt.Errorf("lib: %d bytes is over the %d byte cap", header.Size, s.opts.MaxUploadBytes),
		}
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(s.opts.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("lib: can't create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(file, s.opts.MaxUploadBytes))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("lib: can't write upload file: %w", err)
	}

	return &board.Image{
		Filename:     name,
		OriginalName: filepath.Base(header.Filename),
		Mime:         mimeType,
		Size:         size,
	}, nil
}
