package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/randalmurphal/cognigen/internal/resources"
	"github.com/randalmurphal/cognigen/internal/textclean"
)

// MaxVideoDescription bounds video descriptions kept on results.
const MaxVideoDescription = 300

const watchURL = "https://www.youtube.com/watch?v="

// YouTube searches videos with the YouTube Data API v3.
//
// Search never returns an error: a missing API key or a failed call is
// logged and yields no results, so video lookups can only ever add to a
// resource list.
type YouTube struct {
	svc    *youtube.Service
	logger *slog.Logger
}

// YouTubeOption configures a YouTube source.
type YouTubeOption func(*youtubeConfig)

type youtubeConfig struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithYouTubeEndpoint overrides the API base URL.
func WithYouTubeEndpoint(u string) YouTubeOption {
	return func(c *youtubeConfig) { c.endpoint = u }
}

// WithYouTubeHTTPClient sets the HTTP client. The client is used as is,
// so it must authenticate requests itself if the endpoint requires it.
func WithYouTubeHTTPClient(hc *http.Client) YouTubeOption {
	return func(c *youtubeConfig) { c.httpClient = hc }
}

// WithYouTubeLogger sets the logger for degraded lookups.
func WithYouTubeLogger(l *slog.Logger) YouTubeOption {
	return func(c *youtubeConfig) { c.logger = l }
}

// NewYouTube creates a YouTube source. With an empty apiKey and no custom
// HTTP client the source is disabled and every search returns nothing.
func NewYouTube(ctx context.Context, apiKey string, opts ...YouTubeOption) (*YouTube, error) {
	cfg := youtubeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	yt := &YouTube{logger: cfg.logger}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" && cfg.httpClient == nil {
		yt.logger.Warn("youtube api key not set; video search disabled")
		return yt, nil
	}

	var clientOpts []option.ClientOption
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}

	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	yt.svc = svc
	return yt, nil
}

// Enabled reports whether the source can make API calls.
func (y *YouTube) Enabled() bool {
	return y.svc != nil
}

// Search returns up to maxResults videos for query, filtered with strict
// safe search.
func (y *YouTube) Search(ctx context.Context, query string, maxResults int) ([]resources.Item, error) {
	query = strings.TrimSpace(query)
	if !y.Enabled() || query == "" || maxResults <= 0 {
		return nil, nil
	}

	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		SafeSearch("strict").
		Context(ctx).
		Do()
	if err != nil {
		y.logger.Warn("youtube search failed; continuing without videos",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	out := make([]resources.Item, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		out = append(out, resources.Item{
			Title:       textclean.CleanWhitespace(item.Snippet.Title),
			URL:         watchURL + item.Id.VideoId,
			Source:      resources.SourceVideo,
			Description: textclean.Clip(textclean.CleanWhitespace(item.Snippet.Description), MaxVideoDescription),
		})
		if len(out) == maxResults {
			break
		}
	}
	return out, nil
}
