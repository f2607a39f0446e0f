package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jokebot/bot"
	"jokebot/generator"
	"jokebot/publisher"
)

type fakeCycler struct {
	prompts []string
	report  *bot.Report
}

func (f *fakeCycler) RunOnce(_ context.Context, prompt string) *bot.Report {
	f.prompts = append(f.prompts, prompt)
	return f.report
}

func newTestServer(t *testing.T, cycler Cycler, pub *publisher.Publisher) *httptest.Server {
	t.Helper()
	s, err := New(cycler, []string{"openai", "mock"}, pub, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthAndPrompts(t *testing.T) {
	srv := newTestServer(t, &fakeCycler{}, publisher.NewWithPoster(nil, true, nil))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/prompts")
	require.NoError(t, err)
	defer resp.Body.Close()
	var prompts []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prompts))
	assert.Equal(t, generator.Catalog, prompts)
}

func TestProvidersReportsPublisherState(t *testing.T) {
	cases := []struct {
		name string
		pub  *publisher.Publisher
		want string
	}{
		{"dry run", publisher.NewWithPoster(nil, true, nil), "dry_run"},
		{"disabled", publisher.NewWithPoster(nil, false, nil), "disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeCycler{}, tc.pub)
			resp, err := http.Get(srv.URL + "/api/providers")
			require.NoError(t, err)
			defer resp.Body.Close()

			var got providersResp
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, []string{"openai", "mock"}, got.Providers)
			assert.Equal(t, tc.want, got.Publisher)
		})
	}
}

func TestCycleEndpoint(t *testing.T) {
	cycler := &fakeCycler{report: &bot.Report{ID: "c1", Prompt: "cats", Jokes: []string{"meow"}}}
	srv := newTestServer(t, cycler, publisher.NewWithPoster(nil, true, nil))

	resp, err := http.Post(srv.URL+"/api/cycles", "application/json", strings.NewReader(`{"prompt":"cats"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report bot.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "c1", report.ID)
	assert.Equal(t, []string{"meow"}, report.Jokes)
	assert.Equal(t, []string{"cats"}, cycler.prompts)
}

func TestCycleWithoutJokesIsNoContent(t *testing.T) {
	cycler := &fakeCycler{}
	srv := newTestServer(t, cycler, publisher.NewWithPoster(nil, true, nil))

	resp, err := http.Post(srv.URL+"/api/cycles", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{""}, cycler.prompts)
}

func TestCycleWithEmptyChunkedBody(t *testing.T) {
	cycler := &fakeCycler{}
	s, err := New(cycler, nil, publisher.NewWithPoster(nil, true, nil), nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/cycles", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{""}, cycler.prompts)
}

func TestCycleRejectsMalformedBody(t *testing.T) {
	cycler := &fakeCycler{}
	srv := newTestServer(t, cycler, publisher.NewWithPoster(nil, true, nil))

	resp, err := http.Post(srv.URL+"/api/cycles", "application/json", strings.NewReader(`{"prompt":`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, cycler.prompts)
}

func TestPreviewEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeCycler{}, publisher.NewWithPoster(nil, true, nil))

	body := `{"jokes":["first","","` + strings.Repeat("x", 300) + `"]}`
	resp, err := http.Post(srv.URL+"/api/preview", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var posts []publisher.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 2)
	assert.Equal(t, 1, posts[0].Index)
	assert.False(t, posts[0].Truncated)
	assert.Equal(t, 3, posts[1].Index)
	assert.True(t, posts[1].Truncated)
	assert.Equal(t, publisher.MaxPostLength, len([]rune(posts[1].Text)))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeCycler{}, publisher.NewWithPoster(nil, true, nil))

	resp, err := http.Get(srv.URL + "/api/cycles")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/prompts", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, nil, publisher.NewWithPoster(nil, true, nil), nil)
	assert.Error(t, err)
	_, err = New(&fakeCycler{}, nil, nil, nil)
	assert.Error(t, err)
}
