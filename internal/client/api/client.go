// Package api is the HTTP client for the kamisado server API
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

	"kamisado/internal/client/display"
	"kamisado/internal/server/core"
)

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
			// Long polls hold for up to 25s
			Timeout: 30 * time.Second,
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

// StatusError is returned for any 4xx/5xx response
type StatusError struct {
	Status int
	Resp   ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Resp.Error != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Resp.Error)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	var bodyReader io.Reader
	var bodyJSON []byte
	if body != nil {
		var err error
		if bodyJSON, err = json.Marshal(body); err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	fmt.Fprintf(c.Out, "\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
	if len(bodyJSON) > 0 {
		if c.Verbose {
			fmt.Fprintf(c.Out, "%sRequest Body:%s\n%s\n", display.Cyan, display.Reset, indent(bodyJSON))
		} else {
			fmt.Fprintf(c.Out, "%s%s%s\n", display.Blue, bodyJSON, display.Reset)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		fmt.Fprintf(c.Out, "%s[ERROR] %s%s\n", display.Red, err.Error(), display.Reset)
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
	fmt.Fprintf(c.Out, "%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)
	if c.Verbose && len(respBody) > 0 {
		fmt.Fprintf(c.Out, "%sResponse Body:%s\n%s\n", display.Cyan, display.Reset, indent(respBody))
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &statusErr.Resp); err == nil {
			if !c.Verbose && statusErr.Resp.Code != "" {
				fmt.Fprintf(c.Out, "%sCode: %s%s\n", display.Red, statusErr.Resp.Code, display.Reset)
				if statusErr.Resp.Details != "" {
					fmt.Fprintf(c.Out, "%sDetails: %s%s\n", display.Red, statusErr.Resp.Details, display.Reset)
				}
			}
		} else if !c.Verbose {
			fmt.Fprintf(c.Out, "%s%s%s\n", display.Red, respBody, display.Reset)
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			fmt.Fprintf(c.Out, "%sRaw response: %s%s\n", display.Green, respBody, display.Reset)
			return fmt.Errorf("response parse error: %w", err)
		}
	}

	return nil
}

// indent pretty-prints JSON, falling back to the raw text
func indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest("GET", "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) ConfigurePlayers(gameID string, white, black PlayerConfig) (*GameResponse, error) {
	req := &core.ConfigurePlayersRequest{White: white, Black: black}
	var resp GameResponse
	err := c.doRequest("PUT", "/api/v1/games/"+gameID+"/players", req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("GET", "/api/v1/games/"+gameID, nil, &resp)
	return &resp, err
}

// GetGameWithPoll blocks server-side until the move count differs or the wait times out
func (c *Client) GetGameWithPoll(gameID string, moveCount int) (*GameResponse, error) {
	var resp GameResponse
	path := fmt.Sprintf("/api/v1/games/%s?wait=true&moveCount=%d", gameID, moveCount)
	err := c.doRequest("GET", path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest("DELETE", "/api/v1/games/"+gameID, nil, nil)
}

func (c *Client) SelectOpening(gameID string, x int) (*GameResponse, error) {
	req := &core.SelectRequest{X: &x}
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games/"+gameID+"/select", req, &resp)
	return &resp, err
}

func (c *Client) MakeMove(gameID string, to core.Cell) (*GameResponse, error) {
	req := &core.MoveRequest{X: &to.X, Y: &to.Y}
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games/"+gameID+"/moves", req, &resp)
	return &resp, err
}

// ComputerMove queues a move; the returned game is normally pending
func (c *Client) ComputerMove(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games/"+gameID+"/computer", nil, &resp)
	return &resp, err
}

func (c *Client) UndoMoves(gameID string, count int) (*GameResponse, error) {
	req := &core.UndoRequest{Count: count}
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games/"+gameID+"/undo", req, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	var resp BoardResponse
	err := c.doRequest("GET", "/api/v1/games/"+gameID+"/board", nil, &resp)
	return &resp, err
}

func (c *Client) Register(username, password, email string) (*AuthResponse, error) {
	req := &RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	}
	var resp AuthResponse
	err := c.doRequest("POST", "/api/v1/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(identifier, password string) (*AuthResponse, error) {
	req := &LoginRequest{
		Identifier: identifier,
		Password:   password,
	}
	var resp AuthResponse
	err := c.doRequest("POST", "/api/v1/auth/login", req, &resp)
	return &resp, err
}

// Logout revokes the session server-side
func (c *Client) Logout() error {
	return c.doRequest("POST", "/api/v1/auth/logout", nil, nil)
}

func (c *Client) GetCurrentUser() (*UserResponse, error) {
	var resp UserResponse
	err := c.doRequest("GET", "/api/v1/auth/me", nil, &resp)
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
