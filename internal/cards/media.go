package cards

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	// Primary image formats accepted by the decode probe.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// LoadHandle represents a media resource under load. Cancel releases the
// underlying fetch and suppresses its completion callback; it is safe to
// call more than once.
type LoadHandle interface {
	Cancel()
}

// MediaLoader starts background acquisition of media resources.
//
// Load begins fetching the resource and calls done exactly once from another
// goroutine, unless the handle is cancelled first. For images "done" means
// fetched and decode-probed; for video it means first data available.
// Hint warms the network path for url without consuming the body.
type MediaLoader interface {
	Load(kind MediaKind, url string, done func(err error)) LoadHandle
	Hint(url string) LoadHandle
}

// videoProbeRange bounds the video first-data probe so a hint-sized request
// never pulls a whole file.
const videoProbeRange = "bytes=0-262143"

var errNoPrimaryMedia = errors.New("card has no primary media")

// HTTPLoader is the production MediaLoader: it fetches over HTTP, probes
// images with image.DecodeConfig, and probes videos with a bounded Range
// request.
type HTTPLoader struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPLoader returns a loader whose individual fetches are bounded by
// timeout. log may be nil to disable debug logging.
func NewHTTPLoader(timeout time.Duration, log *slog.Logger) *HTTPLoader {
	return &HTTPLoader{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type cancelHandle struct {
	cancel context.CancelFunc
}

func (h cancelHandle) Cancel() {
	h.cancel()
}

// Load implements MediaLoader.Load.
func (l *HTTPLoader) Load(kind MediaKind, url string, done func(err error)) LoadHandle {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		err := l.fetch(ctx, kind, url)
		if ctx.Err() != nil {
			// Cancelled: the session moved on, nobody is listening.
			return
		}
		if err != nil && l.log != nil {
			l.log.Debug("media load failed",
				slog.String("kind", kind.String()),
				slog.String("url", url),
				slog.String("error", err.Error()))
		}
		done(err)
	}()
	return cancelHandle{cancel: cancel}
}

// Hint implements MediaLoader.Hint with a HEAD request, enough to warm DNS,
// TLS, and the connection pool without transferring the body.
func (l *HTTPLoader) Hint(url string) LoadHandle {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
	return cancelHandle{cancel: cancel}
}

func (l *HTTPLoader) fetch(ctx context.Context, kind MediaKind, url string) error {
	if kind == MediaNone {
		return errNoPrimaryMedia
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if kind == MediaVideo {
		req.Header.Set("Range", videoProbeRange)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	switch kind {
	case MediaImage:
		// Decode probe: parsing the header is enough to know the bytes are a
		// displayable image without decoding every pixel.
		if _, _, err := image.DecodeConfig(resp.Body); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case MediaVideo:
		// First data available is sufficient; full buffering is not required.
		var b [1]byte
		if _, err := io.ReadFull(resp.Body, b[:]); err != nil {
			return fmt.Errorf("probe %s: %w", url, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return errNoPrimaryMedia
	}
}
