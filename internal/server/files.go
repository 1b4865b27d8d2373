package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/dmitrijs2005/filedeck/internal/view"
	"github.com/gin-gonic/gin"
)

type listResponse struct {
	Items     []view.Item           `json:"items"`
	Total     int                   `json:"total"`
	Found     string                `json:"found,omitempty"`
	Searching bool                  `json:"searching"`
	View      view.Mode             `json:"view"`
	State     files.State           `json:"state"`
	Notices   []notify.Notification `json:"notifications"`
}

func (s *Server) listFiles(c *gin.Context) {
	mode := view.ModeGrid
	if raw := c.Query("view"); raw != "" {
		m, err := view.ParseMode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err))
			return
		}
		mode = m
	}

	state := s.files.Snapshot()
	query := c.Query("q")
	visible := view.Filter(state.Files, query)

	items := make([]view.Item, len(visible))
	for i, f := range visible {
		items[i] = view.NewItem(f)
	}

	resp := listResponse{
		Items:     items,
		Total:     len(state.Files),
		Searching: strings.TrimSpace(query) != "",
		View:      mode,
		State:     state,
		Notices:   []notify.Notification{},
	}
	if resp.Searching {
		resp.Found = view.FoundText(len(visible))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) refreshFiles(c *gin.Context) {
	ctx, rn := s.withRequestNotifier(c)
	err := s.files.Refresh(ctx)
	notices := rn.finish()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "notifications": notices})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.files.Snapshot(), "notifications": notices})
}

func (s *Server) uploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(fmt.Errorf("read multipart form: %w", err)))
		return
	}
	headers := form.File["files"]

	uploads := make([]files.Upload, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(fmt.Errorf("open %s: %w", h.Filename, err)))
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, files.Upload{
			Name:        h.Filename,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	ctx, rn := s.withRequestNotifier(c)
	tasks, err := s.files.Upload(ctx, uploads)
	notices := rn.finish()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "notifications": notices})
		return
	}
	if tasks == nil {
		tasks = []files.UploadTask{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "notifications": notices})
}

// lookup resolves the wildcard path against the current listing.
func (s *Server) lookup(c *gin.Context) (files.FileRecord, bool) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file path"})
		return files.FileRecord{}, false
	}
	f, err := s.files.Find(path)
	if err != nil {
		c.JSON(statusFor(err), errorBody(err))
		return files.FileRecord{}, false
	}
	return f, true
}

// attachmentSink streams content as a download response.
type attachmentSink struct {
	w    gin.ResponseWriter
	size int64
}

func (a attachmentSink) Save(name, contentType string, r io.Reader) error {
	h := a.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", name, url.PathEscape(name)))
	if a.size > 0 {
		h.Set("Content-Length", fmt.Sprint(a.size))
	}
	a.w.WriteHeader(http.StatusOK)
	_, err := io.Copy(a.w, r)
	return err
}

func (s *Server) downloadFile(c *gin.Context) {
	f, ok := s.lookup(c)
	if !ok {
		return
	}
	ctx := notify.NewContext(c.Request.Context(), s.hub.Session(sessionFrom(c)))
	err := s.browser.Download(ctx, f, attachmentSink{w: c.Writer, size: f.Size})
	if err != nil && !c.Writer.Written() {
		c.JSON(statusFor(err), errorBody(err))
	}
}

func (s *Server) fileLink(c *gin.Context) {
	f, ok := s.lookup(c)
	if !ok {
		return
	}
	ctx, rn := s.withRequestNotifier(c)
	link, err := s.browser.CopyLink(ctx, f)
	notices := rn.finish()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "notifications": notices})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link, "notifications": notices})
}

func (s *Server) signedLink(c *gin.Context) {
	f, ok := s.lookup(c)
	if !ok {
		return
	}
	ttl := s.signedTTL
	if raw := c.Query("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
			return
		}
		ttl = d
	}
	link, err := s.files.SignedURL(c.Request.Context(), f, ttl)
	if err != nil {
		c.JSON(statusFor(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link, "expires_at": s.now().Add(ttl)})
}

func (s *Server) deleteFile(c *gin.Context) {
	f, ok := s.lookup(c)
	if !ok {
		return
	}
	ctx, rn := s.withRequestNotifier(c)
	err := s.browser.Delete(ctx, f)
	notices := rn.finish()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "notifications": notices})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.files.Snapshot(), "notifications": notices})
}
