package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/memoirs/internal/cache"
	"github.com/starford/memoirs/internal/memos"
	"github.com/starford/memoirs/internal/models"
	"github.com/starford/memoirs/internal/resolver"
	"github.com/starford/memoirs/internal/testutil"
)

func testServer(t *testing.T, seed ...models.Memo) (*Server, *testutil.MemosServer) {
	t.Helper()
	remote := testutil.NewMemosServer(t, seed...)
	res := resolver.New(cache.New(), memos.NewClient(5*time.Second, nil))
	return New(res, models.Partition{Host: remote.URL, User: "alice"}), remote
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_memo":
		result, err = srv.getMemo(ctx, req)
	case "list_memos":
		result, err = srv.listMemos(ctx, req)
	case "get_menu":
		result, err = srv.getMenu(ctx, req)
	case "invalidate_memo":
		result, err = srv.invalidateMemo(ctx, req)
	case "cache_stats":
		result, err = srv.cacheStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func alice(id int64, content string) models.Memo {
	return models.Memo{ID: id, Content: content, CreatorUsername: "alice", RowStatus: models.RowStatusNormal}
}

func TestGetMemo(t *testing.T) {
	srv, _ := testServer(t, alice(1, "# Hello\n#go"))

	r := callTool(t, srv, "get_memo", map[string]any{"id": float64(1)})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var res resolver.Result
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Document.Title != "Hello" {
		t.Errorf("title = %q", res.Document.Title)
	}

	r = callTool(t, srv, "get_memo", map[string]any{"id": float64(1)})
	res = resolver.Result{}
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !res.CacheHit {
		t.Error("second call should hit the cache")
	}
}

func TestGetMemo_Errors(t *testing.T) {
	srv, _ := testServer(t)

	if r := callTool(t, srv, "get_memo", map[string]any{}); !r.IsError {
		t.Error("expected error for missing id")
	}
	if r := callTool(t, srv, "get_memo", map[string]any{"id": float64(-3)}); !r.IsError {
		t.Error("expected error for negative id")
	}
	if r := callTool(t, srv, "get_memo", map[string]any{"id": float64(99)}); !r.IsError {
		t.Error("expected error for missing memo")
	}
}

func TestGetMemo_OtherPartition(t *testing.T) {
	srv, _ := testServer(t)
	other := testutil.NewMemosServer(t, models.Memo{ID: 5, Content: "# Bob's", CreatorUsername: "bob"})

	r := callTool(t, srv, "get_memo", map[string]any{"id": float64(5), "host": other.URL, "user": "bob"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Bob's") {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestListMemos(t *testing.T) {
	srv, _ := testServer(t,
		alice(1, "#go one"),
		alice(2, "#go two"),
		alice(3, "#rust three"),
	)

	r := callTool(t, srv, "list_memos", map[string]any{"tag": "#go", "limit": float64(1)})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var res resolver.ListResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Documents) != 1 || !res.HasMore {
		t.Errorf("memos = %d, hasMore = %v", len(res.Documents), res.HasMore)
	}
}

func TestListMemos_InvalidRowStatus(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_memos", map[string]any{"rowStatus": "deleted"})
	if !r.IsError {
		t.Error("expected error for invalid row status")
	}
}

func TestGetMenu(t *testing.T) {
	srv, _ := testServer(t, alice(1, "memoirs_menu: 3 | Projects | 1"))

	r := callTool(t, srv, "get_menu", map[string]any{})
	var res resolver.MenuResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Projects" || res.Items[0].ID != "3" {
		t.Errorf("menu = %+v", res)
	}
}

func TestInvalidateMemo(t *testing.T) {
	srv, remote := testServer(t, alice(1, "# Old"))

	callTool(t, srv, "get_memo", map[string]any{"id": float64(1)})
	remote.Put(alice(1, "# New"))

	r := callTool(t, srv, "invalidate_memo", map[string]any{"id": float64(1)})
	if resultText(r) != "invalidated: 1" {
		t.Errorf("invalidate result = %q", resultText(r))
	}

	r = callTool(t, srv, "get_memo", map[string]any{"id": float64(1)})
	if !strings.Contains(resultText(r), `"title": "New"`) {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestCacheStats(t *testing.T) {
	srv, _ := testServer(t, alice(1, "# One"))
	callTool(t, srv, "get_memo", map[string]any{"id": float64(1)})

	r := callTool(t, srv, "cache_stats", map[string]any{})
	var stats cache.Stats
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.EntryCount != 1 || stats.PartitionCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestContractResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != ContractURI || !strings.Contains(tc.Text, "memoTag") {
		t.Errorf("contents = %+v", contents)
	}
}
