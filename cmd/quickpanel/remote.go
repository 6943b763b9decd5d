package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/quickpanel/internal/api"
)

const (
	envAPIURL     = "QUICKPANEL_API_URL"
	envAPIKey     = "QUICKPANEL_API_KEY"
	defaultAPIURL = "http://127.0.0.1:8470"
)

type remoteFlags struct {
	url string
	key string
}

func addRemoteFlags(fs *flag.FlagSet) *remoteFlags {
	r := &remoteFlags{}
	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	fs.StringVar(&r.url, "api-url", apiURL, "quickpanel API URL (env "+envAPIURL+")")
	fs.StringVar(&r.key, "api-key", os.Getenv(envAPIKey), "API bearer token (env "+envAPIKey+")")
	return r
}

// apiClient drives a running service for the dialog, session and log nouns.
type apiClient struct {
	base string
	key  string
	http *http.Client
}

func newAPIClient(r *remoteFlags) *apiClient {
	return &apiClient{
		base: strings.TrimRight(r.url, "/"),
		key:  r.key,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// apiError is a non-2xx response.
type apiError struct {
	Status     int
	Message    string
	Suggestion string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("%d: %s", e.Status, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, Suggestion: e.Suggestion}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// optionsFlag collects repeated --opt key=value pairs.
type optionsFlag map[string]any

func (o optionsFlag) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (o optionsFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	o[strings.TrimSpace(key)] = value
	return nil
}

// splitName lets the dialog name come before or after the flags.
func splitName(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func runDialogNoun(args []string) int {
	if len(args) < 1 {
		printDialogNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printDialogNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]
	if hasHelpFlag(actionArgs) {
		printDialogActionHelp(action)
		return 0
	}

	switch action {
	case "list":
		return runDialogList(actionArgs)
	case "show", "hide", "close", "dismiss":
		return runDialogCommand(action, actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown dialog action: %s\n", action)
		return 1
	}
}

func runDialogList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	remote := addRemoteFlags(fs)
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var resp api.DialogsResponse
	if err := newAPIClient(remote).do(context.Background(), http.MethodGet, "/dialogs", nil, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *jsonOut {
		printJSON(resp)
		return 0
	}

	fmt.Printf("%-20s %-11s %-7s %s\n", "NAME", "KIND", "SHOWN", "QUEUE")
	for _, d := range resp.Dialogs {
		shown := "-"
		if d.Window != nil {
			shown = strconv.FormatBool(d.Window.Shown)
		}
		queue := "-"
		if d.Queue != nil {
			queue = fmt.Sprintf("%s, %d waiting", d.Queue.State, len(d.Queue.Pending))
		}
		fmt.Printf("%-20s %-11s %-7s %s\n", d.Name, d.Kind, shown, queue)
	}
	return 0
}

func runDialogCommand(action string, args []string) int {
	name, rest := splitName(args)

	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	remote := addRemoteFlags(fs)
	opts := optionsFlag{}
	optionsJSON := ""
	if action == "show" {
		fs.Var(opts, "opt", "Dialog option as key=value (repeatable)")
		fs.StringVar(&optionsJSON, "options", "", "Dialog options as a JSON object")
	}
	if err := fs.Parse(rest); err != nil {
		return 1
	}
	if name == "" && fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	if name == "" {
		printDialogActionHelp(action)
		return 1
	}

	var body any
	if action == "show" {
		options := map[string]any{}
		if optionsJSON != "" {
			if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid --options: %v\n", err)
				return 1
			}
			if options == nil {
				options = map[string]any{}
			}
		}
		for k, v := range opts {
			options[k] = v
		}
		body = options
	}

	endpoint := action
	if action == "dismiss" {
		endpoint = "closed"
	}

	var resp api.CommandResponse
	path := "/dialogs/" + url.PathEscape(name) + "/" + endpoint
	if err := newAPIClient(remote).do(context.Background(), http.MethodPost, path, body, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case !resp.Known:
		fmt.Printf("%s: no dialog named %q, ignored\n", action, name)
	case resp.Queued:
		fmt.Printf("%s: %s queued\n", action, name)
	default:
		fmt.Printf("%s: %s\n", action, name)
	}
	return 0
}

func runSessionNoun(args []string) int {
	if len(args) < 1 {
		printSessionNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSessionNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	token, rest := splitName(args[1:])
	if hasHelpFlag(rest) {
		printSessionActionHelp(action)
		return 0
	}

	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	remote := addRemoteFlags(fs)
	if err := fs.Parse(rest); err != nil {
		return 1
	}
	client := newAPIClient(remote)
	ctx := context.Background()

	switch action {
	case "show":
		var resp api.SessionResponse
		if err := client.do(ctx, http.MethodGet, "/session", nil, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if resp.KeyedIn {
			fmt.Println("keyed in")
		} else {
			fmt.Println("nobody keyed in")
		}
		return 0
	case "keyin":
		if token == "" && fs.NArg() > 0 {
			token = fs.Arg(0)
		}
		if strings.TrimSpace(token) == "" {
			printSessionActionHelp(action)
			return 1
		}
		if err := client.do(ctx, http.MethodPut, "/session", api.SessionRequest{Token: token}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println("keyed in")
		return 0
	case "keyout":
		var resp api.KeyOutResponse
		if err := client.do(ctx, http.MethodPost, "/session/keyout", nil, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if resp.KeyedOut {
			fmt.Println("keyed out")
		} else {
			fmt.Println("nobody was keyed in")
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown session action: %s\n", action)
		return 1
	}
}

func runLog(args []string) int {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	remote := addRemoteFlags(fs)
	dialogName := fs.String("dialog", "", "Only entries for this dialog")
	limit := fs.Int("limit", 20, "Maximum number of entries")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(*limit))
	if *dialogName != "" {
		q.Set("dialog", *dialogName)
	}

	var resp api.LogResponse
	if err := newAPIClient(remote).do(context.Background(), http.MethodGet, "/log?"+q.Encode(), nil, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *jsonOut {
		printJSON(resp)
		return 0
	}
	for _, e := range resp.Entries {
		fmt.Printf("%s  %-18s %-16s %s\n", e.CreatedAt.Local().Format("15:04:05.000"), e.Type, e.Dialog, string(e.Data))
	}
	return 0
}
