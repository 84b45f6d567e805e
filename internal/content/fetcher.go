// internal/content/fetcher.go
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/intelli-widgets/internal/sdkerr"
)

const (
	msgNoLinkedUser    = "valid but no linked user"
	msgInvalidAuth     = "invalid authentication"
	msgBad400          = "unexpected 400 without valid body"
	msgUnexpected      = "an unexpected error occurred while loading the widget, please try again later"
	maxBodyBytes       = 4 << 20
	defaultHTTPTimeout = 30 * time.Second
)

// Config is the fetcher's runtime config.
type Config struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Fetcher issues the authenticated widget request and classifies the outcome.
type Fetcher struct {
	client *http.Client
	log    *zap.Logger
}

func NewFetcher(cfg Config) *Fetcher {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Fetcher{client: cfg.HTTPClient, log: cfg.Logger}
}

// Endpoint returns the widget URL for id.
func Endpoint(id Identity) string {
	return fmt.Sprintf("%s/widgets/%s?version=%s",
		strings.TrimRight(id.BaseURL, "/"),
		url.PathEscape(id.Name),
		strconv.Itoa(id.ContentVersion),
	)
}

// Fetch POSTs the widget config and returns the parsed fragment, or an
// *sdkerr.Error classified by status code.
func (f *Fetcher) Fetch(ctx context.Context, id Identity, locale string) (*Content, error) {
	payload, err := json.Marshal(NewRequestBody(id, locale))
	if err != nil {
		return nil, fmt.Errorf("content: encode request: %w", err)
	}

	endpoint := Endpoint(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("content: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+id.AuthToken)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content: fetch %s: %w", id.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", id.Name, err)
	}
	if len(body) > maxBodyBytes {
		f.log.Error("widget response too large",
			zap.String("widget", id.Name),
			zap.Int("status", resp.StatusCode),
			zap.Int("limit", maxBodyBytes))
		return nil, sdkerr.UnexpectedServer(msgUnexpected)
	}

	if err := f.classify(id, resp.StatusCode, body); err != nil {
		return nil, err
	}

	c, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", id.Name, err)
	}

	f.log.Debug("widget fetched",
		zap.String("widget", id.Name),
		zap.String("locale", locale),
		zap.Int("head_assets", len(c.Head)),
		zap.Int("body_scripts", len(c.BodyScripts)),
		zap.Bool("has_root", c.Root != nil))
	return c, nil
}

// ---- status classification ----

type detailBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// classify maps a status code to its SDK error. nil means success.
func (f *Fetcher) classify(id Identity, code int, body []byte) error {
	switch code {
	case http.StatusBadRequest:
		var b detailBody
		if err := json.Unmarshal(body, &b); err != nil {
			return sdkerr.SDKLoading(msgBad400, err)
		}
		if d := detailString(b.Detail); d != "" {
			return sdkerr.WidgetNotFound(d)
		}
		return sdkerr.ActionContext(msgNoLinkedUser)

	case http.StatusUnauthorized:
		return sdkerr.Authentication(msgInvalidAuth)

	case http.StatusNotFound:
		var b detailBody
		if err := json.Unmarshal(body, &b); err != nil {
			return sdkerr.WidgetNotFound(fmt.Sprintf("widget %q not found", id.Name))
		}
		return sdkerr.WidgetNotFound(detailString(b.Detail))

	case http.StatusUnprocessableEntity:
		var b struct {
			Detail []validationItem `json:"detail"`
		}
		if err := json.Unmarshal(body, &b); err != nil || len(b.Detail) == 0 {
			return sdkerr.InvalidParameter("", "request rejected by server validation")
		}
		first := b.Detail[0]
		return sdkerr.InvalidParameter(joinLoc(first.Loc), first.Msg)

	case http.StatusInternalServerError:
		f.log.Error("widget server error",
			zap.String("widget", id.Name),
			zap.Int("status", code),
			zap.ByteString("body", body))
		return sdkerr.UnexpectedServer(msgUnexpected)

	default:
		return nil
	}
}

// detailString returns detail when it is a JSON string, its raw text for
// any other non-null value, and "" when absent.
func detailString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		switch v := p.(type) {
		case string:
			parts = append(parts, v)
		case float64:
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, ".")
}
