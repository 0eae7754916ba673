// FILE: internal/client/api/client.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"tictactoe/internal/client/display"
	"tictactoe/internal/core"
)

// HealthResponse mirrors GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"`
	Cache   string `json:"cache"`
}

// BoardResponse mirrors GET /games/{id}/board
type BoardResponse struct {
	GameID        string      `json:"gameId"`
	Board         string      `json:"board"`
	CurrentPlayer core.Symbol `json:"currentPlayer"`
	Winner        core.Symbol `json:"winner"`
}

// APIError is returned for responses with status >= 400
type APIError struct {
	Status int
	Body   core.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Body.Code, e.Body.Error)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			// long-poll holds for up to 25s server side
			Timeout: 35 * time.Second,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

func (c *Client) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	url := c.BaseURL + path

	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonData)
		bodyStr = string(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	c.printf("\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
	if bodyStr != "" {
		c.printf("%s%s%s\n", display.Blue, bodyStr, display.Reset)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.printf("%s[ERROR] %s%s\n", display.Red, err.Error(), display.Reset)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	statusColor := display.Green
	if resp.StatusCode >= 400 {
		statusColor = display.Red
	}
	c.printf("%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)

	if c.Verbose && len(respBody) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err == nil {
			c.printf("%sResponse Body:%s\n%s\n", display.Cyan, display.Reset, pretty.String())
		} else {
			c.printf("%sResponse:%s\n%s\n", display.Cyan, display.Reset, string(respBody))
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.Body); err != nil {
			apiErr.Body.Error = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			c.printf("%sResponse parse error: %s%s\n", display.Red, err.Error(), display.Reset)
			return err
		}
	}

	return nil
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) Register(email, password string) (*core.AuthResponse, error) {
	req := &core.RegisterRequest{Email: email, Password: password}
	var resp core.AuthResponse
	err := c.doRequest(http.MethodPost, "/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(email, password string) (*core.AuthResponse, error) {
	req := &core.LoginRequest{Email: email, Password: password}
	var resp core.AuthResponse
	err := c.doRequest(http.MethodPost, "/auth/login", req, &resp)
	return &resp, err
}

func (c *Client) GetCurrentUser() (*core.UserResponse, error) {
	var resp core.UserResponse
	err := c.doRequest(http.MethodGet, "/auth/me", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame() (*core.SeatResponse, error) {
	var resp core.SeatResponse
	err := c.doRequest(http.MethodPost, "/games", nil, &resp)
	return &resp, err
}

func (c *Client) JoinGame(gameID string) (*core.SeatResponse, error) {
	var resp core.SeatResponse
	err := c.doRequest(http.MethodPost, "/games/"+gameID+"/join", nil, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*core.GameResponse, error) {
	var resp core.GameResponse
	err := c.doRequest(http.MethodGet, "/games/"+gameID, nil, &resp)
	return &resp, err
}

// WaitGame long-polls until the game's revision differs from revision
func (c *Client) WaitGame(gameID string, revision int64) (*core.GameResponse, error) {
	var resp core.GameResponse
	path := fmt.Sprintf("/games/%s?wait=true&revision=%d", gameID, revision)
	err := c.doRequest(http.MethodGet, path, nil, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	var resp BoardResponse
	err := c.doRequest(http.MethodGet, "/games/"+gameID+"/board", nil, &resp)
	return &resp, err
}

// MakeMove submits position with a fresh client move id so a retried request
// is applied at most once
func (c *Client) MakeMove(gameID string, position int) (*core.MoveResponse, error) {
	req := &core.MoveRequest{Position: &position, ClientMoveID: uuid.NewString()}
	var resp core.MoveResponse
	err := c.doRequest(http.MethodPost, "/games/"+gameID+"/move", req, &resp)
	return &resp, err
}

func (c *Client) QuitGame(gameID string) (*core.MessageResponse, error) {
	var resp core.MessageResponse
	err := c.doRequest(http.MethodPost, "/games/"+gameID+"/quit", nil, &resp)
	return &resp, err
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}

	return c.doRequest(method, path, bodyData, nil)
}
