package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"github.com/sirupsen/logrus"
)

// Principal identifies the caller on every dispatched request.
type Principal struct {
	CompanyID int
	UserID    int
	UserName  string
	IsAdmin   bool
	Token     string
}

// Notifier receives call outcomes, typically wired to UI toasts.
type Notifier interface {
	Success(op dispatch.Op, message string)
	Error(op dispatch.Op, err error)
}

type noopNotifier struct{}

func (noopNotifier) Success(dispatch.Op, string) {}
func (noopNotifier) Error(dispatch.Op, error)    {}

type logNotifier struct {
	logger *logrus.Logger
}

func (n *logNotifier) Success(op dispatch.Op, message string) {
	n.logger.WithField("op", string(op)).Info(message)
}

func (n *logNotifier) Error(op dispatch.Op, err error) {
	n.logger.WithField("op", string(op)).Error(err.Error())
}

func NewLogNotifier(logger *logrus.Logger) Notifier {
	return &logNotifier{logger: logger}
}

// Client is the dispatch transport shared by the typed per-family clients.
type Client struct {
	baseURL    string
	httpClient *http.Client
	principal  Principal
	notifier   Notifier
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithNotifier(notifier Notifier) Option {
	return func(c *Client) { c.notifier = notifier }
}

func New(baseURL string, principal Principal, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		principal:  principal,
		notifier:   noopNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Principal() Principal {
	return c.principal
}

// execute builds the envelope from the symbolic op and classifies the
// outcome. A missing op is a coding error: MustMode panics, and the mode
// coverage tests catch it long before runtime.
func (c *Client) execute(ctx context.Context, path string, table *dispatch.ModeTable, op dispatch.Op, params dispatch.Params) (*dispatch.Response, error) {

	if params == nil {
		params = dispatch.Params{}
	}
	params["CompanyID"] = c.principal.CompanyID
	params["CurrentUserID"] = c.principal.UserID
	params["CurrentUserName"] = c.principal.UserName

	req := dispatch.Request{
		Mode:       table.MustMode(op),
		Parameters: params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, c.fail(op, &TransportError{Op: op, Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(op, &TransportError{Op: op, Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.principal.Token != "" {
		httpReq.Header.Set("token", c.principal.Token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(op, &TransportError{Op: op, Err: err})
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.fail(op, &TransportError{Op: op, Err: fmt.Errorf("unexpected HTTP status %d", httpResp.StatusCode)})
	}

	var resp dispatch.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, c.fail(op, &TransportError{Op: op, Err: err})
	}

	if resp.Status != dispatch.StatusSuccess {
		var messages []string
		if resp.HasField("validationMessages") {
			_ = resp.DecodeField("validationMessages", &messages)
		}
		if len(messages) > 0 {
			return nil, c.fail(op, &ValidationError{Messages: messages})
		}
		return nil, c.fail(op, &DomainError{Op: op, Message: resp.Message})
	}

	c.notifier.Success(op, resp.Message)
	return &resp, nil
}

func (c *Client) fail(op dispatch.Op, err error) error {
	c.notifier.Error(op, err)
	return err
}
