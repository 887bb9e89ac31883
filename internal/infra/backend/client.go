// Package backend provides a client for the signage player backend.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/slidebox/internal/domain/playlist"
)

const (
	// DefaultBaseURL is the public backend used when none is configured.
	DefaultBaseURL = "https://test.onsignage.com"

	playlistItemsPath = "/PlayerBackend/screen/playlistItems/"
	creativePath      = "/PlayerBackend/creative/get/"

	maxPlaylistSize = 4 * 1024 * 1024
	maxMediaSize    = 512 * 1024 * 1024
	userAgent       = "slidebox/1.0"
)

// ErrTransport marks network failures and unexpected HTTP statuses.
var ErrTransport = errors.New("backend transport failure")

// Config represents backend client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	APIToken string // Optional bearer token
}

// Client is a signage backend API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new backend client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid backend base url: %q", base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.APIToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken})
		httpClient = oauth2.NewClient(ctx, src)
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the service base the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreativeURL returns the resolver for creative keys served by this backend.
func (c *Client) CreativeURL() playlist.URLResolver {
	return playlist.CreativeURL(c.baseURL)
}

// FetchPlaylists retrieves the playlists assigned to a screen.
func (c *Client) FetchPlaylists(ctx context.Context, screenKey string) (*playlist.Response, error) {
	if screenKey == "" {
		return nil, errors.New("screen key is required")
	}

	resp, err := c.get(ctx, playlistItemsPath+url.PathEscape(screenKey))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistSize))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read response body"), ErrTransport)
	}

	var result playlist.Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse response"), playlist.ErrMalformedResponse)
	}

	zlog.Debug().Msgf("backend: playlists fetched: screen=%s playlists=%d items=%d",
		screenKey, len(result.Playlists), result.ItemCount())
	return &result, nil
}

// FetchMedia opens the byte stream of a creative. The caller must close it.
// Reads stop at maxMediaSize.
func (c *Client) FetchMedia(ctx context.Context, assetKey string) (io.ReadCloser, error) {
	if assetKey == "" {
		return nil, errors.New("asset key is required")
	}

	resp, err := c.get(ctx, creativePath+url.PathEscape(assetKey))
	if err != nil {
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxMediaSize), resp.Body}, nil
}

// get issues a GET request and checks the status code.
// On success the caller owns resp.Body.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to send request"), ErrTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Mark(
			errors.Newf("unexpected status code: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			ErrTransport,
		)
	}
	return resp, nil
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("backend(%s)", c.baseURL)
}
