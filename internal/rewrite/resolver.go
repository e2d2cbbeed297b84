package rewrite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Resolver resolves a short redirector URL to its target. Implementations
// must follow at most one redirect hop and honor the context deadline.
type Resolver interface {
	Resolve(ctx context.Context, shortURL string) (string, error)
}

// HTTPResolver resolves short links over plain HTTP. It never auto-follows
// redirects: it issues a single GET and reads the Location header off the
// 3xx response, which bounds the resolution to exactly one hop.
type HTTPResolver struct {
	client *http.Client
	log    logrus.FieldLogger
}

// NewHTTPResolver creates a resolver whose requests are bounded by timeout.
func NewHTTPResolver(timeout time.Duration, logger logrus.FieldLogger) *HTTPResolver {
	return &HTTPResolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logger.WithField("component", "resolver"),
	}
}

// Resolve fetches shortURL and returns the redirect target. A non-redirect
// response resolves to the requested URL itself.
func (r *HTTPResolver) Resolve(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", shortURL, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", shortURL, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", fmt.Errorf("redirect from %s carries no Location header", shortURL)
		}
		target, err := resp.Request.URL.Parse(loc)
		if err != nil {
			return "", fmt.Errorf("invalid redirect target %q: %w", loc, err)
		}
		r.log.WithFields(logrus.Fields{
			"short_url": shortURL,
			"target":    target.String(),
		}).Debug("Resolved short link")
		return target.String(), nil
	}

	// Some redirectors answer 200 directly; the requested URL is then final.
	return resp.Request.URL.String(), nil
}
