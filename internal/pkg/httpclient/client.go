package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Response is the raw outcome of a gateway API call.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the call returned a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client wraps resty for calls to external payment provider APIs.
// Every request goes through a named circuit breaker so a misbehaving
// provider cannot tie up the whole service.
type Client struct {
	r       *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates an HTTP client for one provider. The breaker is scoped to
// that provider name.
func New(name string) *Client {
	r := resty.New().
		SetTimeout(30 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{r: r, breaker: breaker}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithHeader sets a default header for every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// Get sends a GET request with the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.execute(func() (*resty.Response, error) {
		return c.r.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetHeaders(headers).
			Get(url)
	})
}

// Post sends a POST request with a JSON body and the given headers.
func (c *Client) Post(ctx context.Context, url string, body interface{}, headers map[string]string) (*Response, error) {
	return c.execute(func() (*resty.Response, error) {
		req := c.r.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json").
			SetHeaders(headers)
		if body != nil {
			req.SetBody(body)
		}
		return req.Post(url)
	})
}

func (c *Client) execute(do func() (*resty.Response, error)) (*Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := do()
		if err != nil {
			return nil, err
		}
		return &Response{
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Response), nil
}
