package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/gridpath/game/grid"
)

const (
	DefaultBaseURL = "http://localhost:3222/api"
	DefaultTimeout = 5 * time.Second

	maxErrorBody = 4 << 10
)

var (
	ErrTimeout = errors.New("solver: request timed out")
)

// Request is the body of POST /astar
type Request struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	StartX int             `json:"startX"`
	StartY int             `json:"startY"`
	EndX   int             `json:"endX"`
	EndY   int             `json:"endY"`
	Walls  []grid.Position `json:"walls"`
}

// Response is the body of a successful /astar reply. An empty path means
// the end is unreachable.
type Response struct {
	Path []grid.Position `json:"path"`
}

// StatusError is returned for non-2xx replies
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("solver: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("solver: status %d", e.StatusCode)
}

// NewRequest builds the solver request for a snapshot. Width and height are
// clamped into the size range so a bad view can never ask for a huge grid.
func NewRequest(snap grid.Snapshot, maxSize int) Request {
	size := grid.ClampSize(snap.Size, maxSize)
	walls := snap.Walls
	if walls == nil {
		walls = []grid.Position{}
	}
	return Request{
		Width:  size.Cols,
		Height: size.Rows,
		StartX: snap.Start.X,
		StartY: snap.Start.Y,
		EndX:   snap.End.X,
		EndY:   snap.End.Y,
		Walls:  walls,
	}
}

// Solver computes a path for a request.
type Solver interface {
	Solve(ctx context.Context, req Request) ([]grid.Position, error)
}

// Client talks to a remote A* service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client for baseURL. A zero timeout means
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Solve posts req to {baseURL}/astar and returns the path.
func (c *Client) Solve(ctx context.Context, req Request) ([]grid.Position, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("solver: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/astar", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("solver: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("solver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("solver: decode response: %w", err)
	}
	return out.Path, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp map[string]string
	if json.Unmarshal(body, &errResp) == nil {
		if msg, ok := errResp["error"]; ok {
			return &StatusError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
