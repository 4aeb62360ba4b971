// Package gateway is the Moltbook REST client used to post challenges, read
// entries and publish announcements. It never retries; callers decide.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TokenArena/internal/model"
)

// SortMode is the comment ordering requested from the platform.
type SortMode string

const (
	SortTop SortMode = "top"
	SortNew SortMode = "new"
)

// Error is returned for any call that does not complete with a 2xx status.
// StatusCode is zero when the request never got a response.
type Error struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("moltbook %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("moltbook %s: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrCategoryExists is returned by CreateCategory when the category is already there.
var ErrCategoryExists = errors.New("category already exists")

// Client talks to the Moltbook API.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClient creates a client with optional proxy support.
func NewClient(baseURL, apiKey, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"submolt"`
}

type postResponse struct {
	ID       string `json:"id"`
	Category string `json:"submolt"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Score   int    `json:"score"`
	Agent   *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"agent"`
}

// PublishPost creates a post in category and returns its id.
func (c *Client) PublishPost(ctx context.Context, title, body, category string) (string, error) {
	const op = "publish post"
	raw, err := c.do(ctx, op, http.MethodPost, "/posts", postRequest{Title: title, Content: body, Category: category})
	if err != nil {
		return "", err
	}
	var post postResponse
	if err := decodeMaybeWrapped(raw, "post", &post); err != nil {
		return "", &Error{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	if post.ID == "" {
		return "", &Error{Op: op, Err: errors.New("response carried no post id")}
	}
	return post.ID, nil
}

// FetchComments returns the comments on postID in the platform's order for sort.
func (c *Client) FetchComments(ctx context.Context, postID string, sort SortMode) ([]model.Entry, error) {
	const op = "fetch comments"
	path := fmt.Sprintf("/posts/%s/comments?sort=%s", url.PathEscape(postID), url.QueryEscape(string(sort)))
	raw, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var comments []commentPayload
	if err := decodeMaybeWrapped(raw, "comments", &comments); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	entries := make([]model.Entry, 0, len(comments))
	for _, cm := range comments {
		e := model.Entry{CommentID: cm.ID, Content: cm.Content, Score: cm.Score}
		if cm.Agent != nil {
			e.AuthorID = cm.Agent.ID
			e.AuthorName = cm.Agent.Name
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// PublishComment replies to postID with body.
func (c *Client) PublishComment(ctx context.Context, postID, body string) error {
	path := fmt.Sprintf("/posts/%s/comments", url.PathEscape(postID))
	_, err := c.do(ctx, "publish comment", http.MethodPost, path, commentRequest{Content: body})
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	return c.request(ctx, op, method, path, payload, true)
}

func (c *Client) request(ctx context.Context, op, method, path string, payload any, auth bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Err: fmt.Errorf("marshal payload: %w", err)}
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// decodeMaybeWrapped accepts both a bare value and {"<key>": value}.
func decodeMaybeWrapped(raw []byte, key string, out any) error {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if inner, ok := wrapped[key]; ok && len(inner) > 0 && string(inner) != "null" {
			return json.Unmarshal(inner, out)
		}
	}
	return json.Unmarshal(raw, out)
}
