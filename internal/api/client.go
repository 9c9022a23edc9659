// Package api is the client for the external employee REST backend.
//
// Every call except Login needs the session token and sends it as
// "Authorization: Bearer <token>". Failures are wrapped in the models
// sentinels so callers can branch with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"employee-portal/internal/auth"
	"employee-portal/internal/models"
	"employee-portal/internal/tracing"
)

const maxErrorBody = 4 << 10

// StatusError is a non-2xx backend response.
type StatusError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a client for the backend rooted at baseURL, for example
// http://localhost:8080/api/v1.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login exchanges credentials for a session token. The backend returns the
// token in the Authorization response header; a "Bearer " prefix is
// stripped.
func (c *Client) Login(ctx context.Context, account, password string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "api.Login")
	defer span.End()

	body := models.LoginForm{Account: account, Password: password}
	resp, err := c.do(ctx, "login", http.MethodPost, "/employee/login", nil, "", body)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			switch se.Status {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				se.Err = models.ErrInvalidCredentials
			default:
				se.Err = models.ErrUpstream
			}
		}
		tracing.RecordError(span, err)
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	token := auth.StripScheme(resp.Header.Get("Authorization"))
	if token == "" {
		err := fmt.Errorf("login: %w: no token in Authorization header", models.ErrUpstream)
		tracing.RecordError(span, err)
		return "", err
	}
	return token, nil
}

// EmployeeQuery selects one page of the employee list.
type EmployeeQuery struct {
	Page   int // 1-based
	SortBy string
}

func (c *Client) ListEmployees(ctx context.Context, token string, q EmployeeQuery) (*models.EmployeePage, error) {
	ctx, span := tracing.StartSpan(ctx, "api.ListEmployees")
	defer span.End()

	sort := models.NormalizeSort(q.SortBy)
	span.SetAttributes(attribute.Int("page", q.Page), attribute.String("sort_by", sort))

	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(models.PageNo(q.Page)))
	params.Set("pageSize", strconv.Itoa(models.PageSize))
	params.Set("sortBy", sort)

	var page models.EmployeePage
	if err := c.getJSON(ctx, "list employees", "/employee/", params, token, &page); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &page, nil
}

func (c *Client) Employee(ctx context.Context, token string, id models.ID) (*models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "api.Employee")
	defer span.End()
	span.SetAttributes(attribute.String("employee_id", string(id)))

	var e models.Employee
	if err := c.getJSON(ctx, "get employee", "/employee/"+url.PathEscape(string(id)), nil, token, &e); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee replaces the employee record e.ID. If the backend answers
// with an empty body the submitted record is returned.
func (c *Client) UpdateEmployee(ctx context.Context, token string, e models.Employee) (*models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "api.UpdateEmployee")
	defer span.End()
	span.SetAttributes(attribute.String("employee_id", string(e.ID)))

	if e.ID == "" {
		return nil, fmt.Errorf("update employee: %w", models.ErrInvalidID)
	}
	out := e
	if err := c.sendJSON(ctx, "update employee", http.MethodPut, "/employee/"+url.PathEscape(string(e.ID)), token, e, &out); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEmployee(ctx context.Context, token string, ne models.NewEmployee) (*models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "api.CreateEmployee")
	defer span.End()

	out := ne.Employee
	if err := c.sendJSON(ctx, "create employee", http.MethodPost, "/employee/", token, ne, &out); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCustomers(ctx context.Context, token string, page int, f models.CustomerFilter) (*models.CustomerPage, error) {
	ctx, span := tracing.StartSpan(ctx, "api.ListCustomers")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page), attribute.String("filter_by", f.By))

	if err := f.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(models.PageNo(page)))
	params.Set("pageSize", strconv.Itoa(models.PageSize))
	if f.By != "" {
		params.Set("filterBy", f.By)
		params.Set("filterValue", f.Value)
	}

	var out models.CustomerPage
	if err := c.getJSON(ctx, "list customers", "/employee/khach-hang", params, token, &out); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, token string, out any) error {
	if token == "" {
		return fmt.Errorf("%s: %w", op, models.ErrNoToken)
	}
	resp, err := c.do(ctx, op, http.MethodGet, path, params, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %v", op, models.ErrUpstream, err)
	}
	return nil
}

// sendJSON leaves out untouched when the response body is empty.
func (c *Client) sendJSON(ctx context.Context, op, method, path, token string, body, out any) error {
	if token == "" {
		return fmt.Errorf("%s: %w", op, models.ErrNoToken)
	}
	resp, err := c.do(ctx, op, method, path, nil, token, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: read response: %v", op, models.ErrUpstream, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %v", op, models.ErrUpstream, err)
	}
	return nil
}

// do sends one request. On a non-2xx status the body is drained and a
// *StatusError is returned; otherwise the caller owns resp.Body.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, token string, body any) (*http.Response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	tracing.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "op", op, "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrUpstream, err)
	}
	c.logger.Debug("backend request", "op", op, "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &StatusError{
		Op:     op,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(snippet)),
		Err:    statusSentinel(resp.StatusCode),
	}
}

func statusSentinel(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.ErrUnauthorized
	case status == http.StatusNotFound:
		return models.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return models.ErrRejected
	default:
		return models.ErrUpstream
	}
}
