package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/cognigen/internal/resources"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links result--ad">
    <div class="links_main"><a class="result__a" href="https://ads.example.com">Sponsored</a></div>
  </div>
  <div class="result results_links results_links_deep web-result">
    <div class="links_main links_deep result__body">
      <h2 class="result__title"><a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fdocs.python.org%2F3%2Ftutorial%2Fcontrolflow.html%3Fa%3D1%26b%3D2&amp;rut=abc">More Control <b>Flow</b> Tools</a></h2>
      <a class="result__snippet" href="#">Besides the <b>while</b> statement   just introduced...</a>
    </div>
  </div>
  <div class="result results_links web-result">
    <h2><a class="result__a" href="https://realpython.com/python-for-loop/">Python "for" Loops</a></h2>
  </div>
  <div class="result results_links web-result">
    <h2><a class="result__a" href="">No link</a></h2>
  </div>
  <div class="result results_links web-result">
    <h2><a class="result__a" href="https://www.w3schools.com/python/python_for_loops.asp">W3Schools</a></h2>
  </div>
</div>
</body></html>`

func newDDGServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestDuckDuckGo_Search(t *testing.T) {
	var gotQuery, gotUA string
	srv := newDDGServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	})
	ddg := NewDuckDuckGo(WithEndpoint(srv.URL+"/html/"), WithHTTPClient(srv.Client()), WithRateLimit(0, 0))

	items, err := ddg.Search(context.Background(), "python for loops", 10)

	require.NoError(t, err)
	assert.Equal(t, "python for loops", gotQuery)
	assert.NotEmpty(t, gotUA)
	require.Len(t, items, 3)
	assert.Equal(t, resources.Item{
		Title:       "More Control Flow Tools",
		URL:         "https://docs.python.org/3/tutorial/controlflow.html?a=1&b=2",
		Source:      resources.SourceWeb,
		Description: "Besides the while statement just introduced...",
	}, items[0])
	assert.Equal(t, `Python "for" Loops`, items[1].Title)
	assert.Equal(t, "https://www.w3schools.com/python/python_for_loops.asp", items[2].URL)
}

func TestDuckDuckGo_MaxResults(t *testing.T) {
	srv := newDDGServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(resultsPage))
	})
	ddg := NewDuckDuckGo(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(0, 0))

	items, err := ddg.Search(context.Background(), "q", 1)

	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = ddg.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	srv := newDDGServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ddg := NewDuckDuckGo(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(0, 0))

	_, err := ddg.Search(context.Background(), "q", 5)

	var httpErr *fgerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.True(t, fgerrors.IsRetryable(err))
}

func TestDuckDuckGo_BlankQuerySkipsRequest(t *testing.T) {
	called := false
	srv := newDDGServer(t, func(http.ResponseWriter, *http.Request) { called = true })
	ddg := NewDuckDuckGo(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))

	items, err := ddg.Search(context.Background(), "   ", 5)

	require.NoError(t, err)
	assert.Nil(t, items)
	assert.False(t, called)
}

func TestDuckDuckGo_RateLimitHonoursContext(t *testing.T) {
	srv := newDDGServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(resultsPage))
	})
	ddg := NewDuckDuckGo(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(0.01, 1))

	_, err := ddg.Search(context.Background(), "first", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = ddg.Search(ctx, "second", 1)
	assert.Error(t, err)
}

func TestResolveRedirect(t *testing.T) {
	tests := map[string]string{
		"//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc%2F&rut=1": "https://go.dev/doc/",
		"https://duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F":       "https://go.dev/",
		"https://example.com/plain":                                    "https://example.com/plain",
		"//duckduckgo.com/l/?uddg=%zz":                                 "//duckduckgo.com/l/?uddg=%zz",
	}
	for in, want := range tests {
		assert.Equal(t, want, resolveRedirect(in), "input %q", in)
	}
}
