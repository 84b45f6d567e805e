// internal/sdk/loading.go
package sdk

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tamzrod/intelli-widgets/internal/poller"
)

const (
	LoadingPath     = "content/v1/widget-loading.html"
	LoadingFallback = "Loading..."
	LoadingAttempts = 5
)

// LoadingHTML returns the shared loading placeholder.
// The first caller's request is shared by concurrent callers and the
// outcome, fallback included, is kept for the life of the SDK.
func (s *SDK) LoadingHTML() string {
	s.loadingMu.Lock()
	if s.loadingHTML != nil {
		v := *s.loadingHTML
		s.loadingMu.Unlock()
		return v
	}
	s.loadingMu.Unlock()

	v, _, _ := s.loading.Do("loading", func() (any, error) {
		markup := s.fetchLoading()

		s.loadingMu.Lock()
		s.loadingHTML = &markup
		s.loadingMu.Unlock()
		return markup, nil
	})
	return v.(string)
}

func (s *SDK) fetchLoading() string {
	uri := strings.TrimRight(s.opts.CDNBase, "/") + "/" + LoadingPath

	var markup string
	err := poller.Retry(s.ctx, LoadingAttempts, 0, func(attempt int) error {
		body, err := s.getLoading(uri)
		if err != nil {
			s.log.Debug("loading placeholder attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		markup = body
		return nil
	})
	if err != nil {
		s.log.Warn("loading placeholder unavailable, using fallback",
			zap.String("uri", uri),
			zap.Error(err))
		return LoadingFallback
	}
	return markup
}

func (s *SDK) getLoading(uri string) (string, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
