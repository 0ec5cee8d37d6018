// Package main provides the rudder interactive browser REPL.
// It drives a real browser session from the terminal: navigate, click, fill,
// inspect elements, capture screenshots and PDFs, and extract readable page
// content, against either automation backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/rudder/pkg/browser/backends"
	"github.com/entrhq/rudder/pkg/config"
	"github.com/entrhq/rudder/pkg/logging"
)

const version = "0.1.0"

// cliOptions holds the command line overrides applied on top of the
// configuration file.
type cliOptions struct {
	ConfigPath  string
	Backend     string
	Variant     string
	Headed      bool
	ShowVersion bool
}

func main() {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("Rudder v%s\n", version)
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if runErr := run(ctx, cfg); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *cliOptions {
	opts := &cliOptions{}

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to YAML configuration file (optional)")
	flag.StringVar(&opts.Backend, "backend", "", "Automation backend: playwright or rod (overrides config)")
	flag.StringVar(&opts.Variant, "variant", "", "Browser variant: chromium, firefox, or webkit (overrides config)")
	flag.BoolVar(&opts.Headed, "headed", false, "Run the browser with a visible window")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Rudder - An interactive browser REPL\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rudder [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rudder                                   # playwright over headless chromium\n")
		fmt.Fprintf(os.Stderr, "  rudder -backend rod -headed\n")
		fmt.Fprintf(os.Stderr, "  rudder -config rudder.yaml\n")
		fmt.Fprintf(os.Stderr, "  rudder -backend playwright -variant firefox\n")
	}

	flag.Parse()
	return opts
}

// loadConfig layers the configuration: built-in defaults, then the optional
// config file, then command line flags, with the flags winning.
func loadConfig(opts *cliOptions) (config.Config, error) {
	cfg := config.Default()

	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Variant != "" {
		cfg.Variant = opts.Variant
	}
	if opts.Headed {
		cfg.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// run connects the browser session and hands the terminal to the REPL.
func run(ctx context.Context, cfg config.Config) error {
	logger, logErr := logging.New("repl")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", logErr)
	}
	defer logger.Close()

	if lv, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(lv)
	}

	al, err := newAllowlist(cfg.AllowedURLs)
	if err != nil {
		return err
	}

	logger.Infof("starting session: backend=%s variant=%s headless=%v", cfg.Backend, cfg.Variant, cfg.Headless)
	session, err := backends.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.CloseBrowser()

	m := initialModel()
	m.session = session
	m.allowlist = al
	m.cfg = cfg
	m.log = logger

	program := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run REPL: %w", err)
	}

	logger.Infof("session finished")
	return nil
}
