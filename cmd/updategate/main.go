package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/internal/config"
	"github.com/liamcoop/updategate/internal/logger"
	"github.com/liamcoop/updategate/platform"
)

// exitBlocked is returned with -strict-exit when the app must not run
const exitBlocked = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("updategate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		platformTag  string
		req          gate.UpdateRequest
		mode         string
		facts        platform.Facts
		detached     bool
		installerPkg string
		explain      bool
		strictExit   bool
		envFile      string
	)

	fs.StringVar(&platformTag, "platform", "android", "Platform: android, ios")
	fs.StringVar(&req.MinVersion, "min", "", "Minimum required version")
	fs.StringVar(&mode, "mode", "immediate", "Update mode: immediate, flexible")
	fs.StringVar(&req.PackageOrAppID, "id", "", "Package name or App Store ID for store links")
	fs.BoolVar(&req.StrictProvenance, "strict-provenance", false, "Block installs not from the first-party store")
	fs.StringVar(&facts.AppID, "app-id", "", "The running app's own identifier")
	fs.StringVar(&facts.CurrentVersion, "current", "", "Installed version")
	fs.BoolVar(&detached, "detached", false, "Simulate a host without an execution context")
	fs.StringVar((*string)(&facts.InstallerSource), "installer", "", "Installer source: play_store, sideload, other, unknown")
	fs.StringVar(&installerPkg, "installer-package", "", "Installer package name, classified when -installer is unset")
	fs.BoolVar(&facts.UpdateAvailable, "available", false, "The store reports an update")
	fs.BoolVar(&facts.UpdateAllowed, "allowed", false, "The update mode is allowed")
	fs.StringVar(&facts.QueryError, "query-error", "", "Fail the availability query with this message")
	fs.StringVar(&facts.StartError, "start-error", "", "Fail the update flow with this message")
	fs.BoolVar(&explain, "explain", false, "Print every policy rule result")
	fs.BoolVar(&strictExit, "strict-exit", false, fmt.Sprintf("Exit %d on FORCE_BLOCKED or ERROR", exitBlocked))
	fs.StringVar(&envFile, "env-file", "", "Optional .env file")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	var files []string
	if envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			fmt.Fprintf(stderr, "Failed to read env file: %v\n", err)
			return 1
		}
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.SetOutput(stderr)

	if detached {
		attached := false
		facts.Attached = &attached
	}
	if installerPkg != "" {
		facts.InstallerPackage = &installerPkg
	}
	req.Mode = gate.ParseMode(mode)

	d, err := platform.NewRegistry().Get(gate.Platform(platformTag))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	g, err := gate.New()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create update gate: %v\n", err)
		return 1
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	env := d.Environment(facts)
	report := g.Evaluate(ctx, req, env)

	out := map[string]any{"report": report.ToMap()}
	if explain {
		results, err := g.Explain(req, env)
		if err != nil {
			fmt.Fprintf(stderr, "Explain failed: %v\n", err)
			return 1
		}
		matched := make([]map[string]any, 0, len(results))
		for _, r := range results {
			entry := map[string]any{"rule": r.RuleID, "matched": r.Matched}
			if r.Error != nil {
				entry["error"] = r.ErrorText()
			}
			matched = append(matched, entry)
		}
		out["rules"] = matched
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Failed to write report: %v\n", err)
		return 1
	}

	if strictExit && (report.Action == gate.ActionForceBlocked || report.Action == gate.ActionError) {
		return exitBlocked
	}
	return 0
}
