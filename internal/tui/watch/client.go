package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/quickpanel/internal/api"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/router"
)

// streamTypes are the event families the TUI follows.
const streamTypes = "window.,queue.,session.,dialog."

// maxEventBytes bounds one SSE line. window.show frames carry the show
// options, which the API accepts up to 1 MiB and JSON escaping can grow
// several times over.
const maxEventBytes = 8 << 20

// --- Message types ---

type eventMsg events.Event

type healthMsg api.HealthzResponse

type dialogsMsg []router.Info

type actionMsg struct {
	action string
	dialog string
}

type tickMsg time.Time

type errMsg error

type sseDisconnectedMsg struct{}
type reconnectMsg struct{}

// Client talks to the control API.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodPost, path)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("POST %s: %s", path, e.Error)
		}
		return fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	return nil
}

// Health fetches GET /healthz.
func (c *Client) Health(ctx context.Context) (api.HealthzResponse, error) {
	var h api.HealthzResponse
	err := c.getJSON(ctx, "/healthz", &h)
	return h, err
}

// Dialogs fetches GET /dialogs.
func (c *Client) Dialogs(ctx context.Context) ([]router.Info, error) {
	var resp api.DialogsResponse
	err := c.getJSON(ctx, "/dialogs", &resp)
	return resp.Dialogs, err
}

// Dismiss reports the named dialog closed by the user.
func (c *Client) Dismiss(ctx context.Context, name string) error {
	return c.post(ctx, "/dialogs/"+url.PathEscape(name)+"/closed")
}

// KeyOut keys the user out.
func (c *Client) KeyOut(ctx context.Context) error {
	return c.post(ctx, "/session/keyout")
}

// Stream reads SSE frames from /events into ch until the connection drops
// or ctx ends.
func (c *Client) Stream(ctx context.Context, lastID int64, ch chan<- events.Event) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/events?types="+url.QueryEscape(streamTypes))
	if err != nil {
		return err
	}
	if lastID > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(lastID, 10))
	}

	// The stream outlives the request timeout of c.http.
	resp, err := (&http.Client{Transport: c.http.Transport}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /events: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
	var current events.Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(current.Data) > 0 {
				current.At = time.Now()
				select {
				case ch <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			current = events.Event{}
		case strings.HasPrefix(line, "id: "):
			if id, err := strconv.ParseInt(line[4:], 10, 64); err == nil {
				current.ID = id
			}
		case strings.HasPrefix(line, "event: "):
			current.Type = line[7:]
		case strings.HasPrefix(line, "data: "):
			current.Data = []byte(line[6:])
		}
	}
	return scanner.Err()
}

// --- Commands ---

func subscribeToEvents(c *Client, lastID int64, ch chan<- events.Event) tea.Cmd {
	return func() tea.Msg {
		_ = c.Stream(context.Background(), lastID, ch)
		return sseDisconnectedMsg{}
	}
}

// receiveNextEvent waits for the next event from the channel.
func receiveNextEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-ch)
	}
}

func fetchHealth(c *Client) tea.Cmd {
	return func() tea.Msg {
		h, err := c.Health(context.Background())
		if err != nil {
			return errMsg(err)
		}
		return healthMsg(h)
	}
}

func fetchDialogs(c *Client) tea.Cmd {
	return func() tea.Msg {
		list, err := c.Dialogs(context.Background())
		if err != nil {
			return errMsg(err)
		}
		return dialogsMsg(list)
	}
}

func dismissDialog(c *Client, name string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Dismiss(context.Background(), name); err != nil {
			return errMsg(err)
		}
		return actionMsg{action: "dismissed", dialog: name}
	}
}

func keyOut(c *Client) tea.Cmd {
	return func() tea.Msg {
		if err := c.KeyOut(context.Background()); err != nil {
			return errMsg(err)
		}
		return actionMsg{action: "keyed out"}
	}
}
