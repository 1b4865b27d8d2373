package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/mimex"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/gin-gonic/gin"
)

const (
	thumbSize    = 256
	thumbQuality = 80
	thumbMaxSrc  = 32 << 20
)

var errNotImage = errors.New("file is not an image")

type bufferSink struct {
	buf bytes.Buffer
}

func (b *bufferSink) Save(_ string, _ string, r io.Reader) error {
	n, err := b.buf.ReadFrom(io.LimitReader(r, thumbMaxSrc+1))
	if err != nil {
		return err
	}
	if n > thumbMaxSrc {
		return fmt.Errorf("image larger than %d bytes", thumbMaxSrc)
	}
	return nil
}

// thumbnails caches rendered previews by storage key. Keys embed the upload
// time, so an entry never goes stale.
type thumbnails struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func (t *thumbnails) get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.cache[key]
	return b, ok
}

func (t *thumbnails) put(key string, b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cache == nil {
		t.cache = make(map[string][]byte)
	}
	t.cache[key] = b
}

// renderThumbnail fetches the image and fits it into a 256px JPEG.
func (s *Server) renderThumbnail(ctx context.Context, f files.FileRecord) ([]byte, error) {
	if mimex.KindOf(f.Type) != mimex.KindImage {
		return nil, errNotImage
	}
	if b, ok := s.thumbs.get(f.Path); ok {
		return b, nil
	}

	// Fetching a preview is not a user download.
	ctx = notify.NewContext(ctx, notify.Discard)
	sink := &bufferSink{}
	if err := s.files.Download(ctx, f, sink); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(&sink.buf, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errNotImage, f.Path, err)
	}
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, thumb, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Path, err)
	}
	s.thumbs.put(f.Path, out.Bytes())
	return out.Bytes(), nil
}

func (s *Server) thumbnail(c *gin.Context) {
	f, ok := s.lookup(c)
	if !ok {
		return
	}
	b, err := s.renderThumbnail(c.Request.Context(), f)
	if errors.Is(err, errNotImage) {
		c.JSON(http.StatusUnsupportedMediaType, errorBody(err))
		return
	}
	if err != nil {
		s.logger.Error(c.Request.Context(), "thumbnail error", "path", f.Path, "error", err)
		c.JSON(statusFor(err), errorBody(err))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", b)
}
