package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/abrezinsky/jeopardy/internal/browser"
	"github.com/abrezinsky/jeopardy/internal/logger"
)

// gameController is the part of the app the keyboard drives
type gameController interface {
	NewGame()
	BaseURL() string
}

// shortcuts maps single key presses to server actions
type shortcuts struct {
	out  io.Writer
	log  *logger.ZapLogger
	game gameController
	port int
	quit func()
	open func(string) error
}

func newShortcuts(out io.Writer, log *logger.ZapLogger, game gameController, port int, quit func()) *shortcuts {
	return &shortcuts{
		out:  out,
		log:  log,
		game: game,
		port: port,
		quit: quit,
		open: browser.Open,
	}
}

// boardURL prefers the announced LAN address
func (s *shortcuts) boardURL() string {
	if url := s.game.BaseURL(); url != "" {
		return url + "/"
	}
	return fmt.Sprintf("http://localhost:%d/", s.port)
}

// listen reads keys until r is exhausted or quit is pressed
func (s *shortcuts) listen(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !s.handle(buf[0]) {
			return
		}
	}
}

// handle performs the action for key and reports whether to keep listening
func (s *shortcuts) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "o":
		url := s.boardURL()
		fmt.Fprintf(s.out, "%sOpening %s in browser...%s\n", cyan, url, reset)
		if err := s.open(url); err != nil {
			fmt.Fprintf(s.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "n":
		fmt.Fprintf(s.out, "%sDealing a new board...%s\n", cyan, reset)
		s.game.NewGame()
	case "h":
		if s.log.IsHTTPLoggingEnabled() {
			s.log.DisableHTTPLogging()
			fmt.Fprintf(s.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			s.log.EnableHTTPLogging()
			fmt.Fprintf(s.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		cycleLogLevel(s.out, s.log)
	case "q", "\x03":
		fmt.Fprintf(s.out, "%sShutting down server...%s\n", yellow, reset)
		s.quit()
		return false
	case "?":
		printKeyboardHelp(s.out)
	}
	return true
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(out io.Writer, appLog *logger.ZapLogger) {
	var next string
	switch appLog.GetLevel().String() {
	case "debug":
		next = "info"
	case "info":
		next = "warn"
	case "warn":
		next = "error"
	case "error":
		next = "debug"
	default:
		next = "info"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Fprintf(out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(out, "    %so%s      - Open the board in browser\n", cyan, reset)
	fmt.Fprintf(out, "    %sn%s      - Deal a new board\n", cyan, reset)
	fmt.Fprintf(out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(out, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(out, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(out, "    %s?%s      - Show this help\n\n", cyan, reset)
}
