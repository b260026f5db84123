// Package validator confirms that candidate logo URLs resolve to real,
// decodable images within a bounded time budget.
package validator

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"logosvc/internal/metrics"
	"logosvc/internal/validation"
)

// DefaultTimeout bounds a single validation including connect, headers and body.
const DefaultTimeout = 3 * time.Second

// Validator checks candidate URLs. Safe for concurrent use.
type Validator struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64

	// AllowPrivateHosts skips the SSRF guard. Only enabled in development
	// so tests and local fixtures on loopback addresses can be validated.
	AllowPrivateHosts bool
}

// New creates a Validator with the given per-candidate timeout and body cap.
func New(timeout time.Duration, maxBytes int64) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	return &Validator{
		client: &http.Client{
			// The context deadline is the real budget; this is a backstop
			// covering callers that pass context.Background().
			Timeout: timeout + time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		timeout:  timeout,
		maxBytes: maxBytes,
	}
}

// Validate reports whether url resolves to an image with both dimensions
// greater than 1 pixel. It never returns an error: network failures, decode
// failures, degenerate 1x1 images and timeouts all report false. Cancelling
// ctx aborts the underlying request so no work outlives the caller.
func (v *Validator) Validate(ctx context.Context, url string) bool {
	ok, _ := v.ValidateDetail(ctx, url)
	return ok
}

// ValidateDetail is Validate plus the HTTP status code of the response
// (0 when no response was received). The resolution chain uses the status
// to notice provider rate limiting.
func (v *Validator) ValidateDetail(ctx context.Context, url string) (bool, int) {
	start := time.Now()
	ok, status := v.validate(ctx, url)
	metrics.ObserveValidation(time.Since(start), ok)
	return ok, status
}

func (v *Validator) validate(ctx context.Context, url string) (bool, int) {
	if !v.AllowPrivateHosts {
		if valid, _ := validation.ValidateURLForFetch(url); !valid {
			return false, 0
		}
	} else if valid, _ := validation.ValidateURL(url); !valid {
		return false, 0
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, 0
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")
	req.Header.Set("User-Agent", "logosvc-validator/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, 0
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, resp.StatusCode
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, v.maxBytes))
	if err != nil || len(body) == 0 {
		return false, resp.StatusCode
	}

	w, h, ok := decodeDimensions(body, resp.Header.Get("Content-Type"))
	if !ok {
		return false, resp.StatusCode
	}
	// Screens out 1x1 tracking pixels returned by broken favicon endpoints.
	return w > 1 && h > 1, resp.StatusCode
}

// decodeDimensions sniffs and decodes the image header, returning its pixel
// dimensions. Handles the stdlib formats plus ICO and SVG, which catalog
// favicons commonly use.
func decodeDimensions(body []byte, contentType string) (w, h int, ok bool) {
	if isSVG(body, contentType) {
		// SVG is scalable; reject only empty documents. A 1x1 SVG is
		// still renderable at any size.
		return 32, 32, true
	}

	if w, h, ok = icoDimensions(body); ok {
		return w, h, true
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func isSVG(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "image/svg") {
		return len(body) > 0
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<svg")
}

// icoDimensions parses the ICONDIR header of a .ico file and returns the
// dimensions of its largest image. Returns ok=false if body is not ICO.
func icoDimensions(body []byte) (w, h int, ok bool) {
	if len(body) < 6+16 {
		return 0, 0, false
	}
	reserved := binary.LittleEndian.Uint16(body[0:2])
	imgType := binary.LittleEndian.Uint16(body[2:4])
	count := int(binary.LittleEndian.Uint16(body[4:6]))
	if reserved != 0 || imgType != 1 || count == 0 {
		return 0, 0, false
	}

	for i := 0; i < count && 6+(i+1)*16 <= len(body); i++ {
		entry := body[6+i*16:]
		ew, eh := int(entry[0]), int(entry[1])
		// A width/height byte of 0 means 256 pixels.
		if ew == 0 {
			ew = 256
		}
		if eh == 0 {
			eh = 256
		}
		if ew > w {
			w = ew
		}
		if eh > h {
			h = eh
		}
	}
	return w, h, true
}
