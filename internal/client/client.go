// Package client talks to the ledger definition API over HTTP. Client
// implements ledgertree.API so the editor can persist through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledgerdesk/internal/domain"
	"ledgerdesk/internal/domain/models/ledger"
	ledgerSvc "ledgerdesk/internal/domain/services/ledger"
	"ledgerdesk/internal/httputil"
)

// DefaultTimeout bounds every request unless the caller's context is shorter
const DefaultTimeout = 30 * time.Second

// Client is an authenticated API client bound to one grouping's server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for baseURL (e.g. http://localhost:8080) sending
// token as a bearer credential.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a problem response. It unwraps to the domain sentinel
// matching its status so callers can use errors.Is.
type APIError struct {
	Status  int
	Problem httputil.ProblemDetail
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Problem.Message())
}

// Unwrap returns the sentinel for the status, or nil
func (e *APIError) Unwrap() error {
	return domain.FromStatus(e.Status)
}

// GetTree fetches the definition forest of a grouping
func (c *Client) GetTree(ctx context.Context, groupingID string) ([]*ledger.Node, error) {
	tree, err := c.GetGroupingTree(ctx, groupingID)
	if err != nil {
		return nil, err
	}
	return tree.Nodes, nil
}

// GetGroupingTree fetches the forest together with its grouping
func (c *Client) GetGroupingTree(ctx context.Context, groupingID string) (*ledger.Tree, error) {
	var tree ledger.Tree
	if err := c.do(ctx, http.MethodGet, "/api/groupings/"+url.PathEscape(groupingID)+"/tree", nil, &tree); err != nil {
		return nil, err
	}
	if tree.Nodes == nil {
		tree.Nodes = []*ledger.Node{}
	}
	return &tree, nil
}

// ListGroupings lists the caller's groupings
func (c *Client) ListGroupings(ctx context.Context) ([]ledger.Grouping, error) {
	var groupings []ledger.Grouping
	if err := c.do(ctx, http.MethodGet, "/api/groupings", nil, &groupings); err != nil {
		return nil, err
	}
	return groupings, nil
}

// CreateGrouping creates a grouping
func (c *Client) CreateGrouping(ctx context.Context, name string, kind ledger.GroupingKind) (*ledger.Grouping, error) {
	req := ledgerSvc.CreateGroupingRequest{Name: name, Kind: kind}
	var grouping ledger.Grouping
	if err := c.do(ctx, http.MethodPost, "/api/groupings", req, &grouping); err != nil {
		return nil, err
	}
	return &grouping, nil
}

// ListAccounts fetches one page of a grouping's accounts
func (c *Client) ListAccounts(ctx context.Context, filter ledger.AccountFilter) (*ledger.AccountPage, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Unattached {
		q.Set("unattached", "true")
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/api/groupings/" + url.PathEscape(filter.GroupingID) + "/accounts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ledger.AccountPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateAccount registers an unattached account
func (c *Client) CreateAccount(ctx context.Context, req *ledgerSvc.CreateAccountRequest) (*ledger.Account, error) {
	var account ledger.Account
	if err := c.do(ctx, http.MethodPost, "/api/accounts", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateDefinition creates a definition at the end of its parent's children
func (c *Client) CreateDefinition(ctx context.Context, req *ledgerSvc.CreateDefinitionRequest) (*ledger.Node, error) {
	var node ledger.Node
	if err := c.do(ctx, http.MethodPost, "/api/definitions", req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// UpdateDefinition patches name, description and flags
func (c *Client) UpdateDefinition(ctx context.Context, id string, req *ledgerSvc.UpdateDefinitionRequest) (*ledger.Node, error) {
	var node ledger.Node
	if err := c.do(ctx, http.MethodPatch, "/api/definitions/"+url.PathEscape(id), req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteDefinition deletes a definition and its subtree
func (c *Client) DeleteDefinition(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/definitions/"+url.PathEscape(id), nil, nil)
}

// AttachAccount appends an account to a definition
func (c *Client) AttachAccount(ctx context.Context, definitionID, accountID string) (*ledger.Node, error) {
	req := ledgerSvc.AttachAccountRequest{AccountID: accountID}
	var node ledger.Node
	if err := c.do(ctx, http.MethodPost, "/api/definitions/"+url.PathEscape(definitionID)+"/accounts", req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// RemoveAccount detaches an account; mode names the grouping kind
func (c *Client) RemoveAccount(ctx context.Context, accountID string, mode ledger.GroupingKind) (*ledger.Account, error) {
	path := "/api/accounts/" + url.PathEscape(accountID) + "/definition?mode=" + url.QueryEscape(string(mode))
	var account ledger.Account
	if err := c.do(ctx, http.MethodDelete, path, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateIndex sends one batch of staged positions
func (c *Client) UpdateIndex(ctx context.Context, kind ledger.MoveKind, entries []ledger.IndexEntry) error {
	var path string
	switch kind {
	case ledger.MoveDefinition:
		path = "/api/definitions/index"
	case ledger.MoveAccount:
		path = "/api/accounts/index"
	default:
		return fmt.Errorf("%w: unknown move kind %d", domain.ErrValidation, kind)
	}
	return c.do(ctx, http.MethodPut, path, entries, nil)
}

// do sends body as JSON and decodes a 2xx response into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Problem: httputil.DecodeProblem(resp)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
