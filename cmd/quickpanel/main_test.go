package main

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/quickpanel/internal/api"
	"github.com/mattjoyce/quickpanel/internal/config"
	"github.com/mattjoyce/quickpanel/internal/events"
	"github.com/mattjoyce/quickpanel/internal/log"
	"github.com/mattjoyce/quickpanel/internal/router"
	"github.com/mattjoyce/quickpanel/internal/session"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func runCaptured(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int { return runCLI(args) })
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion, origCommit, origBuildDate := version, gitCommit, buildDate
	version, gitCommit, buildDate = v, commit, built
	t.Cleanup(func() {
		version, gitCommit, buildDate = origVersion, origCommit, origBuildDate
	})
}

// liveService is the default dialog set behind an httptest API server.
type liveService struct {
	router  *router.Router
	session *session.Session
	url     string
}

func startLiveService(t *testing.T) *liveService {
	t.Helper()

	cfg := config.Defaults()
	cfg.Queue.NextDialogTimeout = time.Millisecond
	hub := events.NewHub(64)
	sess := session.New(hub, log.Discard())
	rt, err := buildRouter(cfg, hub, sess)
	require.NoError(t, err)
	t.Cleanup(rt.Stop)

	srv := httptest.NewServer(api.New(api.Config{APIKey: "test-key"}, rt, sess, nil, hub, log.Discard()).Handler())
	t.Cleanup(srv.Close)

	return &liveService{router: rt, session: sess, url: srv.URL}
}

func (s *liveService) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return runCaptured(t, append(args, "--api-url", s.url, "--api-key", "test-key")...)
}

func TestPrintUsageListsNouns(t *testing.T) {
	code, stdout, _ := runCaptured(t, "help")
	assert.Equal(t, 0, code)
	for _, noun := range []string{"system start", "config check", "dialog show <name>", "session keyout", "log"} {
		assert.Contains(t, stdout, noun)
	}

	code, _, stderr := runCaptured(t, "bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: bogus")
}

func TestRunNounActionHelp(t *testing.T) {
	for _, args := range [][]string{
		{"system", "start", "--help"},
		{"system", "watch", "-h"},
		{"config", "check", "--help"},
		{"dialog", "show", "--help"},
		{"session", "keyin", "--help"},
		{"log", "--help"},
	} {
		code, stdout, _ := runCaptured(t, args...)
		assert.Equal(t, 0, code, "%v", args)
		assert.Contains(t, stdout, "Usage: quickpanel", "%v", args)
	}
}

func TestRunVersionJSONOutputIncludesMetadata(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "0123456789abcdef", "2026-05-01T10:00:00Z")

	code, stdout, stderr := runCaptured(t, "version", "--json")
	require.Equal(t, 0, code, stderr)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, versionInfo{Version: "1.2.3", Commit: "0123456789ab", BuildTime: "2026-05-01T10:00:00Z"}, info)

	code, stdout, _ = runCaptured(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "quickpanel 1.2.3")
}

func TestBuildRouterFromDefaults(t *testing.T) {
	cfg := config.Defaults()
	hub := events.NewHub(64)
	sess := session.New(hub, log.Discard())
	rt, err := buildRouter(cfg, hub, sess)
	require.NoError(t, err)
	t.Cleanup(rt.Stop)

	list := rt.List()
	names := make([]string, 0, len(list))
	kinds := map[string]router.Kind{}
	for _, info := range list {
		names = append(names, info.Name)
		kinds[info.Name] = info.Kind
	}
	assert.Equal(t, []string{"confirmDialog", "errorDialog", "main", "survey", "tray"}, names)
	assert.Equal(t, router.KindSequential, kinds["errorDialog"])
	assert.Equal(t, router.KindDirect, kinds["survey"])

	survey, _ := rt.Describe("survey")
	assert.Nil(t, survey.Window, "lazy survey is not created until shown")

	require.NoError(t, rt.Show("survey", nil))
	survey, _ = rt.Describe("survey")
	require.NotNil(t, survey.Window)
	assert.True(t, survey.Window.Shown)

	sess.KeyIn("user123")
	sess.KeyOut()
	survey, _ = rt.Describe("survey")
	assert.False(t, survey.Window.Shown, "survey closed on key-out")
}

func TestBuildRouterStrict(t *testing.T) {
	cfg := config.Defaults()
	cfg.DialogsStrict = true
	rt, err := buildRouter(cfg, events.Nop{}, session.New(nil, log.Discard()))
	require.NoError(t, err)
	t.Cleanup(rt.Stop)

	err = rt.Show("mian", nil)
	require.ErrorIs(t, err, router.ErrUnknownDialog)
	assert.Contains(t, err.Error(), `did you mean "main"`)
}

func TestDialogCommandsAgainstAPI(t *testing.T) {
	svc := startLiveService(t)

	code, stdout, stderr := svc.run(t, "dialog", "show", "main", "--opt", "title=Hello")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "show: main\n", stdout)

	info, _ := svc.router.Describe("main")
	require.NotNil(t, info.Window)
	assert.True(t, info.Window.Shown)
	assert.Equal(t, "Hello", info.Window.Options["title"])

	code, stdout, _ = svc.run(t, "dialog", "show", "errorDialog", "--options", `{"errCode":"E42"}`)
	require.Equal(t, 0, code)
	assert.Equal(t, "show: errorDialog queued\n", stdout)

	code, stdout, _ = svc.run(t, "dialog", "show", "nope")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `no dialog named "nope"`)

	code, _, _ = svc.run(t, "dialog", "dismiss", "main")
	require.Equal(t, 0, code)
	info, _ = svc.router.Describe("main")
	assert.False(t, info.Window.Shown)

	code, stdout, _ = svc.run(t, "dialog", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "errorDialog")
	assert.Contains(t, stdout, "sequential")

	code, stdout, _ = svc.run(t, "dialog", "hide")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Usage: quickpanel dialog hide <name>")
}

func TestDialogCommandRejectsBadOptions(t *testing.T) {
	svc := startLiveService(t)
	code, _, stderr := svc.run(t, "dialog", "show", "main", "--options", "not json")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Invalid --options")
}

func TestSessionCommandsAgainstAPI(t *testing.T) {
	svc := startLiveService(t)

	code, stdout, _ := svc.run(t, "session", "show")
	require.Equal(t, 0, code)
	assert.Equal(t, "nobody keyed in\n", stdout)

	code, _, stderr := svc.run(t, "session", "keyin", "user123")
	require.Equal(t, 0, code, stderr)
	tok, ok := svc.session.Token()
	assert.True(t, ok)
	assert.Equal(t, "user123", tok)

	code, stdout, _ = svc.run(t, "session", "keyout")
	require.Equal(t, 0, code)
	assert.Equal(t, "keyed out\n", stdout)

	code, stdout, _ = svc.run(t, "session", "keyout")
	require.Equal(t, 0, code)
	assert.Equal(t, "nobody was keyed in\n", stdout)
}

func TestRemoteCommandReportsAPIErrors(t *testing.T) {
	svc := startLiveService(t)

	code, _, stderr := svc.run(t, "log")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "503")

	code, _, stderr = runCaptured(t, "dialog", "list", "--api-url", svc.url, "--api-key", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "401")
}

func TestRunConfigCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  log_level: debug
dialogs:
  main: {kind: direct}
  errorDialog: {kind: sequential}
`), 0o644))

	code, stdout, stderr := runCaptured(t, "config", "check", "--config", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Config: "+path)
	assert.Contains(t, stdout, "Dialogs: 2")
	assert.Contains(t, stdout, "not registered; key-out will ignore it", "default close list names survey")

	code, stdout, _ = runCaptured(t, "config", "check", "--config", path, "--json")
	require.Equal(t, 0, code)
	var res configCheckResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.Valid)
	assert.Len(t, res.Fingerprint, 64)
	assert.Equal(t, []string{"errorDialog", "main"}, res.Dialogs)

	scoped := filepath.Join(dir, "scoped.yaml")
	require.NoError(t, os.WriteFile(scoped, []byte(`
api:
  enabled: true
  auth:
    tokens:
      - token: t1
        scopes: ["jobs:rw"]
`), 0o644))
	code, stdout, _ = runCaptured(t, "config", "check", "--config", scoped)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "ERROR [token_scopes]")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dialogs:\n  x: {kind: popup}\n"), 0o644))
	code, _, stderr = runCaptured(t, "config", "check", "--config", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Configuration invalid")
}

func TestRunConfigShowRedactsTokens(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
api:
  enabled: true
  auth:
    api_key: super-secret
    tokens:
      - token: also-secret
        scopes: ["dialogs:ro"]
`), 0o644))

	code, stdout, stderr := runCaptured(t, "config", "show", "--config", dir)
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "super-secret")
	assert.NotContains(t, stdout, "also-secret")
	assert.Contains(t, stdout, redactedValue)
	assert.Contains(t, stdout, "dialogs:ro")
	assert.True(t, strings.Contains(stdout, "next_dialog_timeout: 300ms"), stdout)
}

func TestSplitName(t *testing.T) {
	name, rest := splitName([]string{"main", "--api-url", "x"})
	assert.Equal(t, "main", name)
	assert.Equal(t, []string{"--api-url", "x"}, rest)

	name, rest = splitName([]string{"--api-url", "x", "main"})
	assert.Empty(t, name)
	assert.Len(t, rest, 3)
}
