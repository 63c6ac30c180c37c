package registryclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Client implements cacherepo.NetworkSource against the registry's
// read-side wire contract:
//
//	GET /packages/:name                          -> {name, versions:[string]}
//	GET /packages/:name/:version/latest           -> {recipe, revision, ...}
//	GET /packages/:name/:version/:revision        -> {recipe, revision, ...}
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Manifest, when set, records every successful AvailableVersions
	// answer and is consulted as a last-known-good fallback when the
	// registry is unreachable. Nil disables both.
	Manifest *ManifestCache
}

// New returns a Client with a hardened timeout/keep-alive profile:
// short dial/handshake timeouts, no response body size surprises left
// unbounded by the caller. The overall request timeout is 30s; use
// NewWithTimeout to honor an operator-configured value instead.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, 30*time.Second)
}

// NewWithTimeout is New with the overall per-request timeout set to
// timeout instead of the 30s default, for wiring config.Config's
// DOP_API_TIMEOUT through to the HTTP client.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

type versionsResponse struct {
	Name     string   `json:"name"`
	Versions []string `json:"versions"`
}

type recipeResponse struct {
	Recipe   string `json:"recipe"`
	Revision string `json:"revision"`
}

// AvailableVersions implements cacherepo.NetworkSource. On success it
// refreshes Manifest; on a server-down classification it falls back to
// Manifest's last recorded answer rather than failing outright, if one
// exists.
func (c *Client) AvailableVersions(ctx context.Context, name string) ([]semver.Version, error) {
	var resp versionsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/packages/%s", c.BaseURL, name), &resp); err != nil {
		var down *cacherepo.ErrServerDown
		if c.Manifest != nil && errors.As(err, &down) {
			if cached, ok := c.Manifest.Lookup(name); ok {
				return cached, nil
			}
		}
		return nil, err
	}

	versions := make([]semver.Version, 0, len(resp.Versions))
	for _, s := range resp.Versions {
		v, err := semver.Parse(s)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	if c.Manifest != nil {
		c.Manifest.Record(name, versions)
	}
	return versions, nil
}

// FetchRecipe implements cacherepo.NetworkSource.
func (c *Client) FetchRecipe(ctx context.Context, name string, v semver.Version, revision string) ([]byte, string, error) {
	segment := "latest"
	if revision != "" {
		segment = revision
	}
	url := fmt.Sprintf("%s/packages/%s/%s/%s", c.BaseURL, name, v.String(), segment)

	var resp recipeResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, "", err
	}
	return []byte(resp.Recipe), resp.Revision, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &cacherepo.ErrServerDown{Cause: wrapTransportError(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &cacherepo.ErrNoSuchPackage{Name: url}
	}
	if resp.StatusCode >= 400 {
		return &cacherepo.ErrServerDown{Cause: &Error{
			Kind:       ErrKindHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
