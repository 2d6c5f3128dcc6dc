package search

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/cognigen/internal/resources"
)

func youtubeResponse() string {
	long := strings.Repeat("d", 400)
	return `{
  "kind": "youtube#searchListResponse",
  "items": [
    {"id": {"kind": "youtube#video", "videoId": "abc123"}, "snippet": {"title": "Python  for loops", "description": "` + long + `"}},
    {"id": {"kind": "youtube#channel", "channelId": "chan"}, "snippet": {"title": "A channel"}},
    {"id": {"kind": "youtube#video", "videoId": "def456"}, "snippet": {"title": "Loops 2", "description": "short"}}
  ]
}`
}

func newYouTubeServer(t *testing.T, status int, body string, query *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if query != nil {
			*query = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYouTube_Search(t *testing.T) {
	var got http.Request
	srv := newYouTubeServer(t, http.StatusOK, youtubeResponse(), &got)

	yt, err := NewYouTube(context.Background(), "",
		WithYouTubeEndpoint(srv.URL+"/"),
		WithYouTubeHTTPClient(srv.Client()))
	require.NoError(t, err)
	require.True(t, yt.Enabled())

	items, err := yt.Search(context.Background(), "python loops", 5)

	require.NoError(t, err)
	q := got.URL.Query()
	assert.Equal(t, "python loops", q.Get("q"))
	assert.Equal(t, "video", q.Get("type"))
	assert.Equal(t, "strict", q.Get("safeSearch"))
	assert.Equal(t, "5", q.Get("maxResults"))
	assert.Equal(t, "snippet", q.Get("part"))

	require.Len(t, items, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", items[0].URL)
	assert.Equal(t, "Python for loops", items[0].Title)
	assert.Equal(t, resources.SourceVideo, items[0].Source)
	assert.Len(t, items[0].Description, MaxVideoDescription)
	assert.Equal(t, "short", items[1].Description)
}

func TestYouTube_FailureDegradesToEmpty(t *testing.T) {
	srv := newYouTubeServer(t, http.StatusForbidden, `{"error":{"code":403,"message":"quota exceeded"}}`, nil)
	var logs bytes.Buffer

	yt, err := NewYouTube(context.Background(), "",
		WithYouTubeEndpoint(srv.URL+"/"),
		WithYouTubeHTTPClient(srv.Client()),
		WithYouTubeLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	items, err := yt.Search(context.Background(), "python", 3)

	assert.NoError(t, err)
	assert.Empty(t, items)
	assert.Contains(t, logs.String(), "youtube search failed")
}

func TestYouTube_MissingKeyDisables(t *testing.T) {
	var logs bytes.Buffer
	yt, err := NewYouTube(context.Background(), "  ", WithYouTubeLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	assert.False(t, yt.Enabled())
	items, err := yt.Search(context.Background(), "python", 3)
	assert.NoError(t, err)
	assert.Nil(t, items)
	assert.Contains(t, logs.String(), "video search disabled")
}
