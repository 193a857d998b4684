package memos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/memoirs/internal/apperr"
	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/testutil"
)

func testClient(t *testing.T, srvURL string) (*Client, ServerConfig) {
	t.Helper()
	cfg, err := NewServerConfig(models.Partition{Host: srvURL + "/", User: "alice"})
	if err != nil {
		t.Fatalf("NewServerConfig: %v", err)
	}
	return NewClient(5*time.Second, nil), cfg
}

func TestNewServerConfig(t *testing.T) {
	cfg, err := NewServerConfig(models.Partition{Host: "https://memos.example/", User: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "https://memos.example" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.APIURL != "https://memos.example/api/v1" {
		t.Errorf("api url = %q", cfg.APIURL)
	}
	if cfg.AssetURL != "https://memos.example/o/r" {
		t.Errorf("asset url = %q", cfg.AssetURL)
	}
	if cfg.SourceURL != "https://memos.example/m" {
		t.Errorf("source url = %q", cfg.SourceURL)
	}
}

func TestNewServerConfig_Missing(t *testing.T) {
	_, err := NewServerConfig(models.Partition{Host: "https://memos.example"})
	if !errors.Is(err, apperr.ErrConfigMissing) {
		t.Errorf("err = %v, want ErrConfigMissing", err)
	}
}

func TestNewLocalRoutes(t *testing.T) {
	r := NewLocalRoutes("http://localhost:8080/")
	if r.SingleMemoURL != "http://localhost:8080/api/memo" || r.SearchMemosURL != "http://localhost:8080/api/memos" {
		t.Errorf("routes = %+v", r)
	}
}

func TestFetchMemo(t *testing.T) {
	srv := testutil.NewMemosServer(t, models.Memo{ID: 1, Content: "# One", CreatorUsername: "alice"})
	c, cfg := testClient(t, srv.URL)

	m, err := c.FetchMemo(context.Background(), cfg, 1)
	if err != nil {
		t.Fatalf("FetchMemo: %v", err)
	}
	if m.ID != 1 || m.Content != "# One" {
		t.Errorf("memo = %+v", m)
	}
}

func TestFetchMemo_NotFound(t *testing.T) {
	srv := testutil.NewMemosServer(t)
	c, cfg := testClient(t, srv.URL)

	_, err := c.FetchMemo(context.Background(), cfg, 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
	var fe *apperr.FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound || fe.Message != "memo not found" {
		t.Errorf("fetch error = %+v", fe)
	}
}

func TestFetchMemo_ServerError(t *testing.T) {
	srv := testutil.NewMemosServer(t, models.Memo{ID: 1})
	srv.Fail(1, http.StatusInternalServerError)
	c, cfg := testClient(t, srv.URL)

	_, err := c.FetchMemo(context.Background(), cfg, 1)
	if !errors.Is(err, apperr.ErrFetch) || errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want plain ErrFetch", err)
	}
}

func TestFetchMemo_ErrorShapedPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error":"boom","message":"memo is private"}`))
	}))
	defer ts.Close()
	c, cfg := testClient(t, ts.URL)

	_, err := c.FetchMemo(context.Background(), cfg, 1)
	var fe *apperr.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if fe.Message != "memo is private" {
		t.Errorf("message = %q", fe.Message)
	}
}

func TestFetchMemo_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	c, cfg := testClient(t, url)

	_, err := c.FetchMemo(context.Background(), cfg, 1)
	if !errors.Is(err, apperr.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestFetchMemos_QueryParameters(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()
	c, cfg := testClient(t, ts.URL)

	_, err := c.FetchMemos(context.Background(), cfg, models.MemoQuery{Tag: "go", Limit: 21, Offset: 20})
	if err != nil {
		t.Fatalf("FetchMemos: %v", err)
	}
	want := map[string]string{
		"rowStatus":       "NORMAL",
		"creatorUsername": "alice",
		"tag":             "go",
		"limit":           "21",
		"offset":          "20",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["content"]; ok {
		t.Error("unexpected content parameter")
	}
}

func TestFetchMemos_FiltersByUser(t *testing.T) {
	srv := testutil.NewMemosServer(t,
		models.Memo{ID: 1, Content: "mine #go", CreatorUsername: "alice"},
		models.Memo{ID: 2, Content: "theirs #go", CreatorUsername: "bob"},
		models.Memo{ID: 3, Content: "mine too", CreatorUsername: "alice"},
	)
	c, cfg := testClient(t, srv.URL)

	memos, err := c.FetchMemos(context.Background(), cfg, models.MemoQuery{Tag: "go"})
	if err != nil {
		t.Fatalf("FetchMemos: %v", err)
	}
	if len(memos) != 1 || memos[0].ID != 1 {
		t.Errorf("memos = %+v", memos)
	}
}
