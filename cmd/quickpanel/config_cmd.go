package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/quickpanel/internal/config"
	"github.com/mattjoyce/quickpanel/internal/doctor"
)

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

type configCheckResult struct {
	Valid       bool           `json:"valid"`
	Path        string         `json:"path"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Dialogs     []string       `json:"dialogs,omitempty"`
	Error       string         `json:"error,omitempty"`
	Report      *doctor.Result `json:"report,omitempty"`
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	result := configCheckResult{}
	path, err := config.DiscoverConfigPath(*configPath)
	if err == nil {
		result.Path = path
		var cfg *config.Config
		if cfg, err = config.Load(path); err == nil {
			result.Fingerprint = cfg.Fingerprint
			result.Dialogs = cfg.DialogNames()
			result.Report = doctor.New(cfg).Validate()
			result.Valid = result.Report.Valid
		}
	}
	if err != nil {
		result.Error = err.Error()
	}

	switch {
	case *jsonOut:
		printJSON(result)
	case result.Report != nil:
		fmt.Printf("Config: %s\n", result.Path)
		fmt.Printf("Fingerprint: %s\n", result.Fingerprint)
		fmt.Printf("Dialogs: %d\n", len(result.Dialogs))
		fmt.Print(doctor.FormatHuman(result.Report))
	default:
		fmt.Fprintf(os.Stderr, "Configuration invalid: %s\n", result.Error)
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	cfg = redacted(cfg)
	if *jsonOut {
		printJSON(cfg)
		return 0
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render config: %v\n", err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}

const redactedValue = "<redacted>"

// redacted returns a copy of cfg with bearer tokens masked.
func redacted(cfg *config.Config) *config.Config {
	c := *cfg
	if c.API.Auth.APIKey != "" {
		c.API.Auth.APIKey = redactedValue
	}
	tokens := make([]config.APIToken, len(cfg.API.Auth.Tokens))
	for i, t := range cfg.API.Auth.Tokens {
		tokens[i] = config.APIToken{Token: redactedValue, Scopes: t.Scopes}
	}
	c.API.Auth.Tokens = tokens
	return &c
}
