package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/abrezinsky/jeopardy/internal/app"
	"github.com/abrezinsky/jeopardy/internal/auth"
	"github.com/abrezinsky/jeopardy/internal/config"
	"github.com/abrezinsky/jeopardy/internal/logger"
	"github.com/abrezinsky/jeopardy/pkg/jservice"
	"github.com/abrezinsky/jeopardy/web"
)

// ANSI escape codes
const (
	moveUp = "\033[%dA"
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

var logo = []string{
	"       _                                _            ",
	"      | | ___  ___  _ __   __ _ _ __ __| |_   _      ",
	"   _  | |/ _ \\/ _ \\| '_ \\ / _` | '__/ _` | | | |     ",
	"  | |_| |  __/ (_) | |_) | (_| | | | (_| | |_| |     ",
	"   \\___/ \\___|\\___/| .__/ \\__,_|_|  \\__,_|\\__, |     ",
	"                   |_|                    |___/      ",
}

// showStartupAnimation draws the logo, then deals the dollar values one row
// at a time
func showStartupAnimation(skipBoard bool) {
	const width = 56
	border := strings.Repeat("═", width)

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, width, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n", cyan, border, reset)

	if skipBoard {
		fmt.Print("\n")
		return
	}

	// Reopen the box with a divider and deal the rows beneath it
	fmt.Printf(moveUp, 1)
	fmt.Printf("\r  %s╠%s╣%s\n", cyan, border, reset)

	for row := 1; row <= 5; row++ {
		var cells strings.Builder
		for col := 0; col < 6; col++ {
			fmt.Fprintf(&cells, "  $%-5d ", row*200)
		}
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, width, cells.String(), cyan, reset)
		time.Sleep(120 * time.Millisecond)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run keeps deferred cleanup (terminal mode, database) ahead of the exit
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite clue bank path")
	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Trivia API base URL")
	flag.StringVar(&cfg.AdminPassword, "adminpw", cfg.AdminPassword, "Admin password (auto-generated if not set)")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.Mock, "mock", cfg.Mock, "Serve generated categories instead of calling the trivia API")
	noAnimate := flag.Bool("noanimate", false, "Show logo only, skip board animation")
	noKeyboard := flag.Bool("nokeyboard", false, "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Jeopardy - a trivia board for the living room

Usage:
  jeopardy [options]

Options:
  -port int      HTTP server port (default 8082)
  -db string     SQLite clue bank path (default "cluebank.db")
  -api string    Trivia API base URL (default "https://jservice.io/api")
  -adminpw str   Admin password (auto-generated if not set)
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -mock          Serve generated categories instead of calling the trivia API
  -noanimate     Show logo only, skip board animation
  -nokeyboard    Disable keyboard shortcuts
  -version       Show version and exit
  -help          Show this help message

Keyboard Shortcuts (when enabled):
  o              Open the board in a browser
  n              Deal a new board
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help

Flags override the matching JEOPARDY_* environment variables.

`)
		fmt.Fprintln(os.Stderr, "Environment variables:")
		config.Usage()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("jeopardy %s\n", version)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	showStartupAnimation(*noAnimate)

	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	defer appLog.Sync()

	var source jservice.Client
	if cfg.Mock {
		appLog.Info("Using generated categories")
		source = jservice.NewMockClient()
	} else {
		source = jservice.NewHTTPClientWithHTTPClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, appLog)
	}

	a, err := app.New(cfg, appLog, source, web.GetTemplatesFS(), web.GetStaticFS(), adminAuth)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fd := int(os.Stdin.Fd())
	if !*noKeyboard && term.IsTerminal(fd) {
		restore, err := enableKeyMode(fd)
		if err != nil {
			appLog.Warn("Keyboard shortcuts unavailable", "error", err)
		} else {
			defer restore()
			printKeyboardHelp(os.Stdout)

			keys := newShortcuts(os.Stdout, appLog, a, cfg.Port, stop)
			go keys.listen(os.Stdin)
		}
	} else if *noKeyboard {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	return a.Run(ctx, fmt.Sprintf(":%d", cfg.Port))
}
