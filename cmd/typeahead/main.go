/*
Package main implements the typeahead completion server and CLI [DBG] application.

Typeahead keeps the full completion session state for an editor host: which
sources are running, which query results are still valid after each edit, and
what the suggestion dialog should show. Word suggestions come from Patricia
trie dictionaries with frequency ranking, loaded lazily from chunked binary
files.

The server mode speaks MessagePack IPC over stdin/stdout for integration with
text editors. The host forwards document transactions and gets back the dialog
state; committing an option returns the edit to make.

# Usage

Start the server with default settings:

	typeahead

Use a custom data directory and enable debug mode:

	typeahead -data /path/to/chunks -d

Run in CLI mode for interactive testing:

	typeahead -c -limit 10

The data directory should contain chunked binary files named dict_0001.bin,
dict_0002.bin, etc. These files are generated from word frequency data and
loaded on demand based on the configured limits.

# Configuration

Runtime configuration is managed through a TOML file covering engine behavior,
dictionary settings, and server parameters:

	[completion]
	activate_on_typing = true
	select_on_open = true
	max_options = 64

	[dict]
	max_words = 50000
	chunk_size = 10000
	min_frequency_threshold = 20

	[server]
	max_limit = 64
	min_prefix = 1
	max_prefix = 60
	enable_filter = true

The config file is created with defaults if it doesn't exist. The "config" op
adjusts engine options at runtime and persists them back to the file.

# IPC Protocol

Session requests carry document transactions; the server answers with the
dialog to render:

	{"id": "u1", "op": "update", "doc": "say hel", "pos": 7, "opos": 6,
	 "ev": "input", "ch": [{"from": 6, "to": 6, "ins": "l"}]}

	{"id": "u1", "open": true, "options": [{"label": "hello", ...}], "selected": 0, ...}

A bare prefix request performs a stateless lookup:

	{"id": "c1", "p": "hel", "l": 20}

Dictionary management requests adjust the loaded chunks at runtime:

	{"id": "d1", "op": "dict", "action": "set_size", "chunk_count": 5}

See the server package for the full message set.

# CLI Mode

CLI mode drives the same transaction engine interactively: lines are typed
into the session character by character and the resulting dialog is printed,
with "!N" committing option N. This mode is primarily intended for development
and testing new features before deploying to server mode.

# Command Line Flags

The following flags control application behavior:

	-version
	    Show current version
	-data string
	    Directory containing binary chunk files (default "data/")
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-config string
	    Custom config file path
	-limit int
	    Number of suggestions per query (default from config)
	-no-filter
	    Disable input filtering for debugging
	-words int
	    Maximum words to load (0 for all)
	-chunk int
	    Words per chunk for lazy loading

The application automatically resolves data and config paths relative to the
executable location, supporting both development and production deployments.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/complete"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

const (
	Version = "0.2.0-beta"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, dictionary, and the chosen frontend together.
// It does not implement any logic itself and only manages the flow.
func main() {
	sigHandler()
	defaults := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	binaryDir := flag.String("data", "data/", "Directory containing the binary files")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPathFlag := flag.String("config", "", "Custom config file path")
	limit := flag.Int("limit", defaults.Server.MaxLimit, "Number of suggestions per query")
	noFilter := flag.Bool("no-filter", !defaults.Server.EnableFilter, "Disable input filtering (DBG only) - shows all raw dictionary entries (numbers, symbols, etc)")
	wordLimit := flag.Int("words", defaults.Dict.MaxWords, "Maximum number of words to load (use 0 for all words)")
	chunkSize := flag.Int("chunk", defaults.Dict.ChunkSize, "Number of words per chunk for lazy loading")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to initialize path resolver: %v", err)
		log.Print("Either env is not set or system is not supported")
		os.Exit(1)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configPathFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", configPath)

	resolvedDataDir, err := pathResolver.GetDataDir(*binaryDir)
	if err != nil {
		log.Errorf("Failed to resolve data dir: (%v)", err)
		os.Exit(1)
	}

	log.Debugf("Using data dir at: %s", resolvedDataDir)
	log.Debugf("Init completer: maxWords=[%d], chunkSize=[%d]", *wordLimit, *chunkSize)

	completer := suggest.NewLazyCompleter(resolvedDataDir, *chunkSize, *wordLimit)
	completer.SetThresholds(appConfig.Dict.MinFreqThreshold, appConfig.Dict.MinFreqShortPrefix)

	if err := completer.Initialize(); err != nil {
		log.Errorf("Failed to init completer: %v", err)
		os.Exit(1)
	}
	log.Debug("Completer init done")

	// CLI is mainly for testing and dbg purposes. New engine features should
	// get exercised here before relying on them in server mode.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("CLI info:", "limit", *limit, "noFilter", *noFilter)

		engine := appConfig.Engine()
		engine.Override = []complete.Source{
			suggest.NewDictionarySource(completer, *limit, !*noFilter),
		}

		repl := cli.NewREPL(engine)
		if err := repl.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(completer, appConfig, configPath)

	showStartupInfo(resolvedDataDir)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printVersion renders the version banner.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ typeahead ] completion state engine for editor hosts")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" typeahead ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("data dir: ( %s )", dataDir)
	log.Info("status: ready")
	println("===========")

	log.SetLevel(currentLevel)
}
