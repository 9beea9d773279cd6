package main

import (
	"bufio"
	"context"
	json2 "encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"ScoreTable/internal/command"
	"ScoreTable/internal/game"
	"ScoreTable/internal/intel"
	"ScoreTable/internal/permissions"
	"ScoreTable/internal/rules"

	"github.com/rs/zerolog"
)

const keyHelp = `keys:
  1 2 3        home +1 +2 +3     shift+1  home -1
  7 8 9        away +1 +2 +3     shift+7  away -1
  space        start/stop clock  n        next period
  r / shift+r  shot clock full/reset
  f / shift+f  foul home/away    t / shift+t  timeout home/away
  q / w / p    possession home/away/toggle
  ctrl+z       undo              ctrl+y   redo
  {"type": ...}  any command as JSON
  alerts       list active alerts
  dismiss <id> / dismiss all
  help, quit`

// console serializes writes from the key loop, the clock and the alert hook.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// session reads scorekeeper input line by line and runs it against a store.
type session struct {
	store  *game.Store
	guard  *permissions.Guard
	alerts *intel.Watcher
	out    *console
	logger zerolog.Logger
}

func newSession(store *game.Store, out *console, logger zerolog.Logger) *session {
	return &session{
		store:  store,
		guard:  permissions.NewGuard(store),
		out:    out,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// alertHook prints alerts in the game's language.
func (s *session) alertHook(alerts []intel.Alert) {
	lang := s.store.Snapshot().Language
	for _, a := range alerts {
		s.out.println("!", a.Text(lang))
	}
}

// run handles input until it ends, the user quits or ctx is done.
func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.out.println(render(s.store.Snapshot()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if !s.handle(line) {
				return nil
			}
		}
	}
}

// handle runs one line of input and reports whether to keep going.
func (s *session) handle(line string) bool {
	input := strings.TrimSpace(line)
	// a bare space is the clock key
	if line == "" {
		return true
	}
	switch strings.ToLower(input) {
	case "quit", "exit":
		return false
	case "help", "?":
		s.out.println(keyHelp)
		return true
	case "alerts":
		s.listAlerts()
		return true
	}
	if fields := strings.Fields(input); len(fields) > 0 && strings.EqualFold(fields[0], "dismiss") {
		s.dismiss(fields[1:])
		return true
	}

	cmd, err := parseInput(input)
	if err == nil {
		err = command.Execute(s.guard, s.store, cmd)
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("input", input).Msg("input rejected")
		s.out.println("error:", err)
		return true
	}
	s.out.println(render(s.store.Snapshot()))
	return true
}

func (s *session) listAlerts() {
	if s.alerts == nil {
		s.out.println("error: alerts are off")
		return
	}
	lang := s.store.Snapshot().Language
	active := s.alerts.Active()
	if len(active) == 0 {
		s.out.println("no alerts")
	}
	for _, a := range active {
		s.out.println(a.ID, a.Text(lang))
	}
}

// dismiss hides one alert by id, or every alert for "all".
func (s *session) dismiss(args []string) {
	switch {
	case s.alerts == nil:
		s.out.println("error: alerts are off")
	case len(args) != 1:
		s.out.println("error: usage: dismiss <id> | dismiss all")
	case strings.EqualFold(args[0], "all"):
		s.alerts.DismissAll()
		s.out.println("alerts dismissed")
	case !s.alerts.Dismiss(args[0]):
		s.out.println("error: no alert", args[0])
	default:
		s.out.println("alert dismissed")
	}
}

// parseInput reads a key stroke or a JSON command.
func parseInput(input string) (command.Command, error) {
	if strings.HasPrefix(input, "{") {
		var generic command.Generic
		if err := json2.Unmarshal([]byte(input), &generic); err != nil {
			return command.Command{}, fmt.Errorf("%w: %v", command.ErrParseFailed, err)
		}
		return generic.Parse()
	}

	key, ok := command.ParseKey(input)
	if !ok {
		return command.Command{}, fmt.Errorf("%w: unknown key %q", command.ErrParseFailed, input)
	}
	cmd, ok := command.FromKey(key)
	if !ok {
		return command.Command{}, fmt.Errorf("%w: nothing bound to %q", command.ErrParseFailed, input)
	}
	return cmd, nil
}

// render draws the scoreboard as one line.
func render(st game.State) string {
	clock := "stopped"
	if st.IsRunning {
		clock = "running"
	}
	arrow := "-"
	switch st.Possession {
	case game.Home:
		arrow = "<"
	case game.Away:
		arrow = ">"
	}
	return fmt.Sprintf("%s %d %s %d %s | %s %s %s | shot %s | fouls %d-%d | timeouts %d-%d",
		st.Home.Name, st.Home.Score, arrow, st.Away.Score, st.Away.Name,
		game.PeriodLabel(st.Rules.PeriodCount, st.Period), rules.FormatClock(st.GameTime), clock,
		rules.FormatShotClock(st.ShotClock),
		st.Home.Fouls, st.Away.Fouls, st.Home.Timeouts, st.Away.Timeouts)
}
