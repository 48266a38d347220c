package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	productName    = "plextagger"
	productVersion = "0.1.0"
	userAgent      = "plextagger-go/0.1.0"

	defaultTimeout = 30 * time.Second

	// movieType is Plex's metadata type number for movies.
	movieType = "1"
)

var (
	// ErrAuthorizationMissing is returned when Plex rejects the configured token.
	ErrAuthorizationMissing = errors.New("plex authorization missing or rejected")
	// ErrNotFound is returned when a library, genre, or item does not exist.
	ErrNotFound = errors.New("plex resource not found")
	// ErrPreferenceUnavailable is returned when a server preference is absent or unparsable.
	ErrPreferenceUnavailable = errors.New("plex preference unavailable")
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config captures the connection settings for one Plex server.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client talks to the Plex Media Server HTTP API.
type Client struct {
	baseURL  string
	token    string
	clientID string
	http     HTTPDoer

	mu       sync.Mutex
	sections map[string]string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// NewClient constructs a Plex client for the supplied server.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		token:    strings.TrimSpace(cfg.Token),
		clientID: strings.ReplaceAll(uuid.New().String(), "-", ""),
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Ping verifies that the server accepts the configured token.
func (c *Client) Ping(ctx context.Context) error {
	var container mediaContainer
	return c.getXML(ctx, "/library/sections", nil, &container)
}

// SectionKey resolves a library section title to its key. Lookups are
// case-insensitive and cached for the lifetime of the client.
func (c *Client) SectionKey(ctx context.Context, library string) (string, error) {
	sections, err := c.ensureSections(ctx)
	if err != nil {
		return "", err
	}
	key, ok := sections[strings.ToLower(strings.TrimSpace(library))]
	if !ok {
		return "", fmt.Errorf("plex library %q: %w", library, ErrNotFound)
	}
	return key, nil
}

func (c *Client) ensureSections(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sections != nil {
		return c.sections, nil
	}

	var container mediaContainer
	if err := c.getXML(ctx, "/library/sections", nil, &container); err != nil {
		return nil, fmt.Errorf("fetch plex sections: %w", err)
	}

	sections := make(map[string]string, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections[strings.ToLower(dir.Title)] = dir.Key
	}
	c.sections = sections
	return sections, nil
}

// GenreID resolves a genre title within a section to the filter ID Plex expects.
func (c *Client) GenreID(ctx context.Context, sectionKey, genre string) (string, error) {
	var container mediaContainer
	path := fmt.Sprintf("/library/sections/%s/genre", url.PathEscape(sectionKey))
	if err := c.getXML(ctx, path, nil, &container); err != nil {
		return "", fmt.Errorf("fetch plex genres: %w", err)
	}
	want := strings.TrimSpace(genre)
	for _, dir := range container.Directories {
		if strings.EqualFold(strings.TrimSpace(dir.Title), want) && dir.Key != "" {
			return dir.Key, nil
		}
	}
	return "", fmt.Errorf("plex genre %q: %w", genre, ErrNotFound)
}

// ItemsInGenre lists every movie in the library whose genres include genre, in
// the order Plex returns them.
func (c *Client) ItemsInGenre(ctx context.Context, library, genre string) ([]Item, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return nil, err
	}
	genreID, err := c.GenreID(ctx, sectionKey, genre)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A library without the genre has nothing to classify.
			return nil, nil
		}
		return nil, err
	}
	query := url.Values{}
	query.Set("type", movieType)
	query.Set("genre", genreID)
	return c.listItems(ctx, sectionKey, query)
}

// AllItems lists every movie in the library.
func (c *Client) AllItems(ctx context.Context, library string) ([]Item, error) {
	sectionKey, err := c.SectionKey(ctx, library)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("type", movieType)
	return c.listItems(ctx, sectionKey, query)
}

func (c *Client) listItems(ctx context.Context, sectionKey string, query url.Values) ([]Item, error) {
	var container mediaContainer
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	if err := c.getXML(ctx, path, query, &container); err != nil {
		return nil, fmt.Errorf("list plex items: %w", err)
	}
	items := make([]Item, 0, len(container.Videos))
	for _, video := range container.Videos {
		item := video.toItem()
		if item.SectionKey == "" {
			item.SectionKey = sectionKey
		}
		items = append(items, item)
	}
	return items, nil
}

// Metadata fetches the current state of a single item.
func (c *Client) Metadata(ctx context.Context, ratingKey string) (Item, error) {
	var container mediaContainer
	path := fmt.Sprintf("/library/metadata/%s", url.PathEscape(ratingKey))
	if err := c.getXML(ctx, path, nil, &container); err != nil {
		return Item{}, fmt.Errorf("fetch plex metadata %s: %w", ratingKey, err)
	}
	if len(container.Videos) == 0 {
		return Item{}, fmt.Errorf("plex metadata %s: %w", ratingKey, ErrNotFound)
	}
	item := container.Videos[0].toItem()
	if item.SectionKey == "" {
		item.SectionKey = container.LibrarySectionID
	}
	return item, nil
}

// MaintenanceEndHour reads the ButlerEndHour server preference, the hour at
// which Plex's scheduled maintenance window closes.
func (c *Client) MaintenanceEndHour(ctx context.Context) (int, error) {
	var container mediaContainer
	if err := c.getXML(ctx, "/:/prefs", nil, &container); err != nil {
		return 0, fmt.Errorf("fetch plex prefs: %w", err)
	}
	for _, setting := range container.Settings {
		if setting.ID != "ButlerEndHour" {
			continue
		}
		value := strings.TrimSpace(setting.Value)
		if value == "" {
			value = strings.TrimSpace(setting.Default)
		}
		hour, err := strconv.Atoi(value)
		if err != nil || hour < 0 || hour > 23 {
			return 0, fmt.Errorf("ButlerEndHour %q: %w", value, ErrPreferenceUnavailable)
		}
		return hour, nil
	}
	return 0, fmt.Errorf("ButlerEndHour: %w", ErrPreferenceUnavailable)
}

// editLabels issues a section edit request for a single item. The query must
// already carry the label parameters.
func (c *Client) editLabels(ctx context.Context, item Item, query url.Values) error {
	sectionKey := item.SectionKey
	if sectionKey == "" {
		return fmt.Errorf("plex item %s: missing library section", item.RatingKey)
	}
	query.Set("type", movieType)
	query.Set("id", item.RatingKey)
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	return c.do(ctx, http.MethodPut, path, query, nil)
}

func (c *Client) getXML(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)
	applyStandardHeaders(req, c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrAuthorizationMissing
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("plex %s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode plex response: %w", err)
	}
	return nil
}

func applyStandardHeaders(req *http.Request, clientIdentifier string) {
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}
