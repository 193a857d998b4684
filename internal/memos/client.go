package memos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/starford/memoirs/internal/apperr"
	"github.com/starford/memoirs/internal/models"
)

const maxBodySize = 10 << 20

// Client fetches memos over HTTP. Every response is classified before it is
// decoded: a non-200 status or an error-shaped payload becomes a
// *apperr.FetchError, so callers never inspect payload shape.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client whose requests time out after timeout
// (no timeout when zero).
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchMemo fetches one memo by id.
func (c *Client) FetchMemo(ctx context.Context, srv ServerConfig, id int64) (*models.Memo, error) {
	u := fmt.Sprintf("%s/memo/%d", srv.APIURL, id)
	var memo models.Memo
	if err := c.getJSON(ctx, u, &memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

// FetchMemos lists memos of the configured user matching q. Exactly q.Limit
// memos are requested; a zero limit leaves the page size to the server.
func (c *Client) FetchMemos(ctx context.Context, srv ServerConfig, q models.MemoQuery) ([]models.Memo, error) {
	u := srv.APIURL + "/memo?" + listParams(srv.User, q).Encode()
	var memos []models.Memo
	if err := c.getJSON(ctx, u, &memos); err != nil {
		return nil, err
	}
	return memos, nil
}

func listParams(user string, q models.MemoQuery) url.Values {
	status := q.RowStatus
	if status == "" {
		status = models.RowStatusNormal
	}
	v := url.Values{}
	v.Set("rowStatus", string(status))
	v.Set("creatorUsername", user)
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Content != "" {
		v.Set("content", q.Content)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &apperr.FetchError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("memos: request failed", slog.String("url", u), slog.String("error", err.Error()))
		return &apperr.FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &apperr.FetchError{URL: u, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("memos: fetched",
		slog.String("url", u),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	if err := classify(u, resp.StatusCode, body); err != nil {
		c.logger.Warn("memos: error response", slog.String("url", u), slog.String("error", err.Error()))
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &apperr.FetchError{URL: u, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// errorPayload is the body the Memos API sends alongside failures.
type errorPayload struct {
	Error   string  `json:"error"`
	Message *string `json:"message"`
}

// classify returns a FetchError for failed responses. A 200 response whose
// JSON object carries a "message" field is a failure too.
func classify(u string, status int, body []byte) error {
	var payload errorPayload
	isObject := len(bytes.TrimSpace(body)) > 0 && bytes.TrimSpace(body)[0] == '{'
	if isObject {
		_ = json.Unmarshal(body, &payload)
	}
	msg := ""
	if payload.Message != nil {
		msg = *payload.Message
	} else if payload.Error != "" {
		msg = payload.Error
	}

	switch {
	case status == http.StatusNotFound:
		return &apperr.FetchError{URL: u, Status: status, Message: msg, Err: apperr.ErrNotFound}
	case status != http.StatusOK:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &apperr.FetchError{URL: u, Status: status, Message: msg}
	case payload.Message != nil:
		return &apperr.FetchError{URL: u, Status: status, Message: msg}
	}
	return nil
}
