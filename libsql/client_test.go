package libsql

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my-db.turso.io", "https://my-db.turso.io"},
		{"libsql://my-db.turso.io", "https://my-db.turso.io"},
		{"https://my-db.turso.io/", "https://my-db.turso.io"},
		{"https://my-db.turso.io/v2/pipeline", "https://my-db.turso.io"},
		{"https://my-db.turso.io/v2/pipeline/", "https://my-db.turso.io"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"  libsql://my-db.turso.io/  ", "https://my-db.turso.io"},
	}
	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeURL(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURLRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "https://"} {
		if _, err := NormalizeURL(in); err == nil {
			t.Errorf("NormalizeURL(%q) should fail", in)
		}
	}
}

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		sql  string
		want int
	}{
		{"SELECT 1", 0},
		{"SELECT * FROM blog_posts WHERE slug = ?", 1},
		{"INSERT INTO t (a, b) VALUES (?, ?)", 2},
		{"SELECT '?' FROM t WHERE a = ?", 1},
		{"SELECT 'it''s ?' WHERE a = ?", 1},
		{"SELECT a -- why?\nFROM t WHERE b = ?", 1},
		{"SELECT /* ? */ a FROM t WHERE b = ?", 1},
		{`SELECT "col?" FROM t`, 0},
	}
	for _, tt := range tests {
		if got := countPlaceholders(tt.sql); got != tt.want {
			t.Errorf("countPlaceholders(%q) = %d, want %d", tt.sql, got, tt.want)
		}
	}
}

// hranaOK builds a successful pipeline response body.
func hranaOK(cols []string, rows [][]map[string]any) string {
	c := make([]map[string]any, len(cols))
	for i, name := range cols {
		c[i] = map[string]any{"name": name, "decltype": nil}
	}
	if rows == nil {
		rows = [][]map[string]any{}
	}
	body := map[string]any{
		"baton":    nil,
		"base_url": nil,
		"results": []any{
			map[string]any{"type": "ok", "response": map[string]any{
				"type": "execute",
				"result": map[string]any{
					"cols":               c,
					"rows":               rows,
					"affected_row_count": 0,
					"last_insert_rowid":  nil,
				},
			}},
			map[string]any{"type": "ok", "response": map[string]any{"type": "close"}},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url, AuthToken: "secret-token", Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestQuerySendsBoundStatement(t *testing.T) {
	var got pipelineRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		io.WriteString(w, hranaOK(
			[]string{"title", "slug", "content", "created_at"},
			[][]map[string]any{{
				{"type": "text", "value": "Multistream Guide"},
				{"type": "text", "value": "multistream-guide"},
				{"type": "text", "value": "<p>Hello</p>"},
				{"type": "null"},
			}},
		))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/v2/pipeline", time.Second)
	res, err := c.Query(context.Background(), "SELECT * FROM blog_posts WHERE slug = ? LIMIT 1", "multistream-guide")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if auth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if path != "/v2/pipeline" {
		t.Errorf("path = %q, want /v2/pipeline", path)
	}
	if len(got.Requests) != 2 || got.Requests[0].Type != "execute" || got.Requests[1].Type != "close" {
		t.Fatalf("unexpected pipeline requests: %+v", got.Requests)
	}
	stmt := got.Requests[0].Stmt
	if strings.Contains(stmt.SQL, "multistream-guide") {
		t.Errorf("slug must not be interpolated into SQL: %q", stmt.SQL)
	}
	if len(stmt.Args) != 1 || stmt.Args[0].Type != "text" || string(stmt.Args[0].Value) != `"multistream-guide"` {
		t.Errorf("unexpected args: %+v", stmt.Args)
	}

	if len(res.Columns) != 4 || res.Columns[0] != "title" {
		t.Errorf("Columns = %v", res.Columns)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(res.Rows))
	}
	rec := res.Record(0)
	if rec["title"] != "Multistream Guide" || rec["content"] != "<p>Hello</p>" {
		t.Errorf("Record(0) = %v", rec)
	}
	if rec["created_at"] != nil {
		t.Errorf("created_at = %v, want nil", rec["created_at"])
	}
}

func TestQueryDecodesValueTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, hranaOK(
			[]string{"i", "f", "t", "b", "n"},
			[][]map[string]any{{
				{"type": "integer", "value": "9007199254740993"},
				{"type": "float", "value": 1.5},
				{"type": "text", "value": "hi"},
				{"type": "blob", "base64": "aGVsbG8="},
				{"type": "null"},
			}},
		))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL, time.Second).Query(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	row := res.Rows[0]
	if row[0] != int64(9007199254740993) {
		t.Errorf("integer = %#v", row[0])
	}
	if row[1] != 1.5 {
		t.Errorf("float = %#v", row[1])
	}
	if row[2] != "hi" {
		t.Errorf("text = %#v", row[2])
	}
	if b, ok := row[3].([]byte); !ok || string(b) != "hello" {
		t.Errorf("blob = %#v", row[3])
	}
	if row[4] != nil {
		t.Errorf("null = %#v", row[4])
	}
}

func TestQueryEncodesArgs(t *testing.T) {
	var got pipelineRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, hranaOK(nil, nil))
	}))
	defer srv.Close()

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	_, err := newTestClient(t, srv.URL, time.Second).Query(context.Background(),
		"INSERT INTO t VALUES (?, ?, ?, ?, ?, ?)", 42, 2.5, true, nil, []byte("hi"), ts)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	args := got.Requests[0].Stmt.Args
	want := []struct {
		typ, value, b64 string
	}{
		{"integer", `"42"`, ""},
		{"float", `2.5`, ""},
		{"integer", `"1"`, ""},
		{"null", ``, ""},
		{"blob", ``, "aGk="},
		{"text", `"2025-03-04 05:06:07"`, ""},
	}
	if len(args) != len(want) {
		t.Fatalf("args = %d, want %d", len(args), len(want))
	}
	for i, w := range want {
		if args[i].Type != w.typ || string(args[i].Value) != w.value || args[i].Base64 != w.b64 {
			t.Errorf("arg %d = {%s %s %s}, want %+v", i, args[i].Type, args[i].Value, args[i].Base64, w)
		}
	}
}

func TestQueryRejectsArityMismatch(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Query(context.Background(), "SELECT * FROM t WHERE a = ? AND b = ?", "only-one")
	if !errors.Is(err, ErrBadArgs) {
		t.Fatalf("err = %v, want ErrBadArgs", err)
	}
	_, err = c.Query(context.Background(), "SELECT * FROM t WHERE a = ?", struct{}{})
	if !errors.Is(err, ErrBadArgs) {
		t.Fatalf("err = %v, want ErrBadArgs for unsupported type", err)
	}
	if called {
		t.Error("no request should be sent for invalid arguments")
	}
}

func TestQueryUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, time.Second).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("connection refused must not be classified as timeout")
	}
}

func TestQueryTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestQueryRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized: invalid token"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if dbErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", dbErr.StatusCode)
	}
	if !strings.Contains(dbErr.Body, "invalid token") {
		t.Errorf("Body = %q", dbErr.Body)
	}
}

func TestQueryStatementError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"baton":null,"results":[{"type":"error","error":{"message":"SQLite error: no such table: blog_posts","code":"SQLITE_UNKNOWN"}},{"type":"ok","response":{"type":"close"}}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Query(context.Background(), "SELECT * FROM blog_posts")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
	if !strings.Contains(err.Error(), "no such table") {
		t.Errorf("error should carry the server message: %v", err)
	}
}

func TestQueryProtocolError(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"results":[]}`,
		`{"results":[{"type":"ok","response":{"type":"close"}}]}`,
		`{"results":[{"type":"ok","response":{"type":"execute","result":{"cols":[{"name":"a"}],"rows":[[]]}}}]}`,
		`{"results":[{"type":"ok","response":{"type":"execute","result":{"cols":[{"name":"a"}],"rows":[[{"type":"mystery"}]]}}}]}`,
		`{"results":[{"type":"weird"}]}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))
		_, err := newTestClient(t, srv.URL, time.Second).Query(context.Background(), "SELECT 1")
		srv.Close()
		if !errors.Is(err, ErrProtocol) {
			t.Errorf("body %s: err = %v, want ErrProtocol", body, err)
		}
	}
}
