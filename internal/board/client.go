// Package board is the typed client of the bulletin board API. Every call goes through the
// dispatcher of the browser session so that expired access tokens are refreshed transparently.
package board

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bulletinboard/board-gateway/internal/dispatcher"
)

const defaultReportConcurrency = 4

type Sender interface {
	Send(ctx context.Context, r dispatcher.Request, out any) error
}

type Client struct {
	sender            Sender
	reportConcurrency int
}

func call[T any](ctx context.Context, c *Client, r dispatcher.Request) (T, error) {
	var out T
	err := c.sender.Send(ctx, r, &out)
	return out, err
}

func (c *Client) get(path string, query url.Values) dispatcher.Request {
	return dispatcher.Request{Method: http.MethodGet, Path: path, Query: query}
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.sender.Send(ctx, dispatcher.Request{Method: http.MethodDelete, Path: path}, nil)
}

type ClientOption func(*Client) error

func WithSender(sender Sender) ClientOption {
	return func(c *Client) error {
		c.sender = sender
		return nil
	}
}

// WithReportConcurrency bounds how many weekly reports are fetched at the same time.
func WithReportConcurrency(n int) ClientOption {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("report concurrency has to be positive, got %d", n)
		}
		c.reportConcurrency = n
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := Client{reportConcurrency: defaultReportConcurrency}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return &Client{}, err
		}
	}
	if c.sender == nil {
		return &Client{}, fmt.Errorf("sender not initialized")
	}
	return &c, nil
}
