package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "dialog":
		return runDialogNoun(args)
	case "session":
		return runSessionNoun(args)
	case "log":
		if hasHelpFlag(args) {
			printLogHelp()
			return 0
		}
		return runLog(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: quickpanel version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("quickpanel %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`quickpanel - Named dialog routing with sequential queues

Usage:
  quickpanel <noun> <action> [flags]

Core Resources (Nouns):
  system    Service lifecycle and monitoring
  config    Configuration validation
  dialog    Named dialogs and their queues
  session   Keyed-in user

System Commands:
  system start      Start the dialog service in foreground
  system watch      Real-time dialog monitor and stand-in renderer

Config Commands:
  config check      Validate syntax and print the fingerprint
  config show       Print the effective configuration

Dialog Commands:
  dialog list                 Show registered dialogs and queue state
  dialog show <name>          Show a dialog (queued for sequential dialogs)
  dialog hide <name>          Hide a dialog
  dialog close <name>         Close a dialog
  dialog dismiss <name>       Report a dialog closed by the user

Session Commands:
  session show                Show whether a user is keyed in
  session keyin <token>       Key a user in
  session keyout              Key the user out

Other:
  log               Show recent dialog activity
  version           Show version information
  help              Show this help message

Use 'quickpanel <noun> help' for action-specific flags.
`)
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: quickpanel system <start|watch> [flags]")
	fmt.Fprintln(w, "Use 'quickpanel system <action> --help' for details.")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: quickpanel config <check|show> [flags]")
	fmt.Fprintln(w, "Use 'quickpanel config <action> --help' for details.")
}

func printDialogNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: quickpanel dialog <list|show|hide|close|dismiss> [name] [flags]")
	fmt.Fprintln(w, "Use 'quickpanel dialog <action> --help' for details.")
}

func printSessionNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: quickpanel session <show|keyin|keyout> [token] [flags]")
	fmt.Fprintln(w, "Use 'quickpanel session <action> --help' for details.")
}

func printSystemStartHelp() {
	fmt.Println("Usage: quickpanel system start [--config PATH] [--db PATH]")
	fmt.Println("Run the dialog service in the foreground until interrupted.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: quickpanel system watch [--api-url URL] [--api-key KEY]")
	fmt.Println("Monitor dialogs and queues in real time.")
	fmt.Println()
	fmt.Println("Keys: enter dismisses the selected dialog, k keys out, q quits.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: quickpanel config check [--config PATH] [--json]")
	fmt.Println("Validate configuration and print its BLAKE3 fingerprint.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: quickpanel config show [--config PATH] [--json]")
	fmt.Println("Print the effective configuration after defaults.")
}

func printDialogActionHelp(action string) {
	switch action {
	case "list":
		fmt.Println("Usage: quickpanel dialog list [--api-url URL] [--api-key KEY] [--json]")
	case "show":
		fmt.Println("Usage: quickpanel dialog show <name> [--opt key=value]... [--api-url URL] [--api-key KEY]")
	default:
		fmt.Printf("Usage: quickpanel dialog %s <name> [--api-url URL] [--api-key KEY]\n", action)
	}
}

func printSessionActionHelp(action string) {
	switch action {
	case "keyin":
		fmt.Println("Usage: quickpanel session keyin <token> [--api-url URL] [--api-key KEY]")
	default:
		fmt.Printf("Usage: quickpanel session %s [--api-url URL] [--api-key KEY]\n", action)
	}
}

func printLogHelp() {
	fmt.Println("Usage: quickpanel log [--dialog NAME] [--limit N] [--api-url URL] [--api-key KEY] [--json]")
	fmt.Println("Show recent dialog activity, newest first.")
}
