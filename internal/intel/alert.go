// Package intel turns a stream of game states into prioritized, de-duplicated
// alerts for the people running the table.
package intel

import (
	"time"

	"ScoreTable/internal/game"
)

type Type string

const (
	Info    Type = "info"
	Warning Type = "warning"
	Danger  Type = "danger"
	Success Type = "success"
)

type Category string

const (
	CategoryFoul    Category = "foul"
	CategoryTimeout Category = "timeout"
	CategoryScore   Category = "score"
	CategoryTime    Category = "time"
	CategoryPeriod  Category = "period"
	CategoryGeneral Category = "general"
)

// Alert is a single notification. Priority runs from 1 to 5, higher first.
type Alert struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	MessageZh string    `json:"messageZh"`
	Timestamp time.Time `json:"timestamp"`
	Priority  int       `json:"priority"`
	Dismissed bool      `json:"dismissed"`
}

// Text returns the message in the given language.
func (a Alert) Text(lang game.Language) string {
	if lang == game.Chinese && a.MessageZh != "" {
		return a.MessageZh
	}
	return a.Message
}

func newAlert(typ Type, cat Category, msg, msgZh string, priority int) Alert {
	return Alert{
		Type:      typ,
		Category:  cat,
		Message:   msg,
		MessageZh: msgZh,
		Priority:  priority,
	}
}

type eventAlert struct {
	typ      Type
	category Category
	priority int
}

// eventAlerts lists the timeline entries that are echoed as alerts.
var eventAlerts = map[game.EventType]eventAlert{
	game.EventFoul:     {Warning, CategoryFoul, 2},
	game.EventTimeout:  {Info, CategoryTimeout, 2},
	game.EventAssist:   {Success, CategoryScore, 2},
	game.EventRebound:  {Info, CategoryScore, 1},
	game.EventSteal:    {Success, CategoryScore, 2},
	game.EventBlock:    {Success, CategoryScore, 2},
	game.EventTurnover: {Warning, CategoryScore, 2},
}

// FromEvent builds the alert for a timeline entry. ok is false for event
// types that are not echoed.
func FromEvent(ev game.Event) (Alert, bool) {
	cfg, ok := eventAlerts[ev.Type]
	if !ok {
		return Alert{}, false
	}
	return newAlert(cfg.typ, cfg.category, ev.Description, ev.Description, cfg.priority), true
}
