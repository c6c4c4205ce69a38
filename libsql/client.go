package libsql

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	pipelinePath = "/v2/pipeline"

	// DefaultTimeout bounds a single statement round trip.
	DefaultTimeout = 10 * time.Second

	maxResponseSize = 8 << 20
)

// Config configures a remote Client.
type Config struct {
	URL       string // libsql://, https:// or bare host; a /v2/pipeline suffix is accepted
	AuthToken string
	Timeout   time.Duration // per statement (default 10s)
	UserAgent string

	HTTPClient *http.Client
}

// Client talks to a libSQL server using the Hrana-over-HTTP pipeline
// endpoint. Each Query is one stateless pipeline (execute + close), so a
// Client is safe for concurrent use.
type Client struct {
	endpoint  string
	token     string
	timeout   time.Duration
	userAgent string
	http      *http.Client
}

// NewClient validates cfg and returns a Client. It performs no I/O.
func NewClient(cfg Config) (*Client, error) {
	base, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:  base + pipelinePath,
		token:     cfg.AuthToken,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// NormalizeURL turns a configured database URL into the HTTP base URL:
// libsql:// becomes https://, a missing scheme defaults to https://, and any
// trailing slash or /v2/pipeline suffix is removed.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("libsql: empty database URL")
	}
	switch {
	case strings.HasPrefix(s, "libsql://"):
		s = "https://" + strings.TrimPrefix(s, "libsql://")
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
	default:
		s = "https://" + s
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, pipelinePath)
	s = strings.TrimRight(s, "/")

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("libsql: invalid database URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("libsql: invalid database URL %q: missing host", raw)
	}
	return s, nil
}

// Endpoint returns the pipeline URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Query executes one statement. There are no retries.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if n := countPlaceholders(query); n != len(args) {
		return nil, fmt.Errorf("%w: %d placeholders, %d args", ErrBadArgs, n, len(args))
	}
	wargs, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(pipelineRequest{
		Requests: []streamRequest{
			{Type: "execute", Stmt: &statement{SQL: query, Args: wargs, WantRows: true}},
			{Type: "close"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("libsql: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("libsql: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: ErrRequestFailed, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return decodePipeline(body)
}

func transportError(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: ErrTimeout, Err: err}
	}
	return &Error{Kind: ErrUnavailable, Err: err}
}

// --- Hrana wire format ---

type pipelineRequest struct {
	Baton    *string         `json:"baton"`
	Requests []streamRequest `json:"requests"`
}

type streamRequest struct {
	Type string     `json:"type"`
	Stmt *statement `json:"stmt,omitempty"`
}

type statement struct {
	SQL      string      `json:"sql"`
	Args     []wireValue `json:"args,omitempty"`
	WantRows bool        `json:"want_rows"`
}

type wireValue struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
	Base64 string          `json:"base64,omitempty"`
}

type pipelineResponse struct {
	Results []streamResult `json:"results"`
}

type streamResult struct {
	Type     string          `json:"type"`
	Response *streamResponse `json:"response"`
	Error    *streamError    `json:"error"`
}

type streamResponse struct {
	Type   string      `json:"type"`
	Result *stmtResult `json:"result"`
}

type streamError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type stmtResult struct {
	Cols []struct {
		Name *string `json:"name"`
	} `json:"cols"`
	Rows             [][]wireValue `json:"rows"`
	AffectedRowCount int64         `json:"affected_row_count"`
	LastInsertRowID  *string       `json:"last_insert_rowid"`
}

func encodeArgs(args []any) ([]wireValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]wireValue, len(args))
	for i, a := range args {
		v, err := encodeValue(a)
		if err != nil {
			return nil, fmt.Errorf("%w: arg %d: %v", ErrBadArgs, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func encodeValue(a any) (wireValue, error) {
	switch v := a.(type) {
	case nil:
		return wireValue{Type: "null"}, nil
	case string:
		return textValue(v), nil
	case []byte:
		return wireValue{Type: "blob", Base64: base64.StdEncoding.EncodeToString(v)}, nil
	case bool:
		if v {
			return intValue(1), nil
		}
		return intValue(0), nil
	case int:
		return intValue(int64(v)), nil
	case int8:
		return intValue(int64(v)), nil
	case int16:
		return intValue(int64(v)), nil
	case int32:
		return intValue(int64(v)), nil
	case int64:
		return intValue(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return intValue(int64(v)), nil
	case uint16:
		return intValue(int64(v)), nil
	case uint32:
		return intValue(int64(v)), nil
	case uint64:
		return uintValue(v)
	case float32:
		return floatValue(float64(v))
	case float64:
		return floatValue(v)
	case time.Time:
		return textValue(v.UTC().Format(TimestampLayout)), nil
	default:
		return wireValue{}, fmt.Errorf("unsupported type %T", a)
	}
}

func textValue(s string) wireValue {
	b, _ := json.Marshal(s)
	return wireValue{Type: "text", Value: b}
}

// integers travel as decimal strings so 64-bit values survive JSON
func intValue(n int64) wireValue {
	b, _ := json.Marshal(strconv.FormatInt(n, 10))
	return wireValue{Type: "integer", Value: b}
}

func uintValue(n uint64) (wireValue, error) {
	if n > math.MaxInt64 {
		return wireValue{}, fmt.Errorf("integer %d overflows int64", n)
	}
	return intValue(int64(n)), nil
}

func floatValue(f float64) (wireValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return wireValue{}, fmt.Errorf("float %v is not representable", f)
	}
	b, _ := json.Marshal(f)
	return wireValue{Type: "float", Value: b}, nil
}

func decodeValue(w wireValue) (Value, error) {
	switch w.Type {
	case "null":
		return nil, nil
	case "integer":
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			var n int64
			if err := json.Unmarshal(w.Value, &n); err != nil {
				return nil, fmt.Errorf("integer value %s", w.Value)
			}
			return n, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer value %q", s)
		}
		return n, nil
	case "float":
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return nil, fmt.Errorf("float value %s", w.Value)
		}
		return f, nil
	case "text":
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return nil, fmt.Errorf("text value %s", w.Value)
		}
		return s, nil
	case "blob":
		b, err := base64.StdEncoding.DecodeString(w.Base64)
		if err != nil {
			// some servers omit padding
			b, err = base64.RawStdEncoding.DecodeString(w.Base64)
			if err != nil {
				return nil, fmt.Errorf("blob value: %v", err)
			}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown value type %q", w.Type)
	}
}

func protocolError(format string, args ...any) error {
	return &Error{Kind: ErrProtocol, Err: fmt.Errorf(format, args...)}
}

func decodePipeline(body []byte) (*Result, error) {
	var resp pipelineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, protocolError("decode response: %v", err)
	}
	if len(resp.Results) == 0 {
		return nil, protocolError("response has no results")
	}
	first := resp.Results[0]
	switch first.Type {
	case "ok":
	case "error":
		msg := "statement failed"
		if first.Error != nil && first.Error.Message != "" {
			msg = first.Error.Message
		}
		return nil, &Error{Kind: ErrRequestFailed, StatusCode: http.StatusOK, Body: msg}
	default:
		return nil, protocolError("unexpected result type %q", first.Type)
	}
	if first.Response == nil || first.Response.Type != "execute" || first.Response.Result == nil {
		return nil, protocolError("result is not an execute response")
	}

	sr := first.Response.Result
	res := &Result{
		Columns:      make([]string, len(sr.Cols)),
		Rows:         make([]Row, 0, len(sr.Rows)),
		AffectedRows: sr.AffectedRowCount,
	}
	for i, col := range sr.Cols {
		if col.Name != nil {
			res.Columns[i] = *col.Name
		}
	}
	for i, raw := range sr.Rows {
		if len(raw) != len(res.Columns) {
			return nil, protocolError("row %d has %d values for %d columns", i, len(raw), len(res.Columns))
		}
		row := make(Row, len(raw))
		for j, w := range raw {
			v, err := decodeValue(w)
			if err != nil {
				return nil, protocolError("row %d column %d: %v", i, j, err)
			}
			row[j] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if sr.LastInsertRowID != nil {
		id, err := strconv.ParseInt(*sr.LastInsertRowID, 10, 64)
		if err != nil {
			return nil, protocolError("last_insert_rowid %q", *sr.LastInsertRowID)
		}
		res.LastInsertID = id
	}
	return res, nil
}
