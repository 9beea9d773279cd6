// Package rules holds the catalog of basketball rule presets and the
// validation that keeps a custom rule set internally consistent.
package rules

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownPreset = errors.New("unknown rule preset")
	ErrInvalidRules  = errors.New("invalid rule set")
)

// Name identifies a rule preset.
type Name string

const (
	FIBA         Name = "fiba"
	NBA          Name = "nba"
	NCAA         Name = "ncaa"
	ThreeOnThree Name = "3x3"
	Custom       Name = "custom"
)

// RuleSet is an immutable description of how a game is played. All lengths are in seconds.
type RuleSet struct {
	Name               Name `json:"name" validate:"required"`
	PeriodCount        int  `json:"periodCount" validate:"min=1"`
	PeriodLength       int  `json:"periodLength" validate:"min=1"`
	ShotClock          int  `json:"shotClock" validate:"min=1"`
	ShotClockReset     int  `json:"shotClockReset" validate:"min=1,ltefield=ShotClock"`
	TeamFoulsPerPeriod int  `json:"teamFoulsPerPeriod" validate:"min=0"`
	BonusFouls         int  `json:"bonusFouls" validate:"min=1,gtefield=TeamFoulsPerPeriod"`
	// DoubleBonusFouls of 0 means the rule set has no double bonus.
	DoubleBonusFouls   int  `json:"doubleBonusFouls" validate:"min=0"`
	MaxTimeoutsPerHalf int  `json:"maxTimeoutsPerHalf" validate:"min=0"`
	OvertimeLength     int  `json:"overtimeLength" validate:"min=0"`
	OvertimeTimeouts   int  `json:"overtimeTimeouts" validate:"min=0"`
	WinByScore         *int `json:"winByScore,omitempty" validate:"omitempty,min=1"`
}

var presets = map[Name]RuleSet{
	FIBA: {
		Name:               FIBA,
		PeriodCount:        4,
		PeriodLength:       10 * 60,
		ShotClock:          24,
		ShotClockReset:     14,
		TeamFoulsPerPeriod: 4,
		BonusFouls:         5,
		DoubleBonusFouls:   0,
		MaxTimeoutsPerHalf: 2,
		OvertimeLength:     5 * 60,
		OvertimeTimeouts:   1,
	},
	NBA: {
		Name:               NBA,
		PeriodCount:        4,
		PeriodLength:       12 * 60,
		ShotClock:          24,
		ShotClockReset:     14,
		TeamFoulsPerPeriod: 4,
		BonusFouls:         5,
		DoubleBonusFouls:   0,
		MaxTimeoutsPerHalf: 4, // 7 per game, simplified to 4 per half
		OvertimeLength:     5 * 60,
		OvertimeTimeouts:   2,
	},
	NCAA: {
		Name:               NCAA,
		PeriodCount:        2,
		PeriodLength:       20 * 60,
		ShotClock:          30,
		ShotClockReset:     20,
		TeamFoulsPerPeriod: 6,
		BonusFouls:         7,
		DoubleBonusFouls:   10,
		MaxTimeoutsPerHalf: 4,
		OvertimeLength:     5 * 60,
		OvertimeTimeouts:   1,
	},
	ThreeOnThree: {
		Name:               ThreeOnThree,
		PeriodCount:        1,
		PeriodLength:       10 * 60,
		ShotClock:          12,
		ShotClockReset:     12,
		TeamFoulsPerPeriod: 6,
		BonusFouls:         7,
		DoubleBonusFouls:   10,
		MaxTimeoutsPerHalf: 1,
		OvertimeLength:     0, // sudden death
		OvertimeTimeouts:   0,
		WinByScore:         intPtr(21),
	},
	Custom: {
		Name:               Custom,
		PeriodCount:        4,
		PeriodLength:       12 * 60,
		ShotClock:          24,
		ShotClockReset:     14,
		TeamFoulsPerPeriod: 5,
		BonusFouls:         5,
		DoubleBonusFouls:   0,
		MaxTimeoutsPerHalf: 3,
		OvertimeLength:     5 * 60,
		OvertimeTimeouts:   1,
	},
}

// Names lists the presets in catalog order.
var Names = []Name{FIBA, NBA, NCAA, ThreeOnThree, Custom}

// Default is the preset a fresh game starts with.
const Default = FIBA

var validate = validator.New()

// Lookup returns a copy of the named preset.
func Lookup(name Name) (RuleSet, error) {
	r, ok := presets[name]
	if !ok {
		return RuleSet{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return r.Clone(), nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name Name) RuleSet {
	r, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return r
}

// Catalog returns copies of every preset in catalog order.
func Catalog() []RuleSet {
	out := make([]RuleSet, 0, len(Names))
	for _, n := range Names {
		out = append(out, presets[n].Clone())
	}
	return out
}

// Clone returns a deep copy.
func (r RuleSet) Clone() RuleSet {
	if r.WinByScore != nil {
		r.WinByScore = intPtr(*r.WinByScore)
	}
	return r
}

// Equal compares rule sets by value.
func (r RuleSet) Equal(o RuleSet) bool {
	a, b := r.WinByScore, o.WinByScore
	r.WinByScore, o.WinByScore = nil, nil
	if r != o {
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsOvertime reports whether period lies beyond regulation.
func (r RuleSet) IsOvertime(period int) bool {
	return period > r.PeriodCount
}

// PeriodLengthFor returns the starting game time of the given period.
func (r RuleSet) PeriodLengthFor(period int) int {
	if r.IsOvertime(period) {
		return r.OvertimeLength
	}
	return r.PeriodLength
}

// Validate checks field ranges and the foul threshold invariants.
func (r RuleSet) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on %q", ErrInvalidRules, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if r.DoubleBonusFouls != 0 && r.DoubleBonusFouls <= r.BonusFouls {
		return fmt.Errorf("%w: doubleBonusFouls must be 0 or greater than bonusFouls", ErrInvalidRules)
	}
	return nil
}

// Overrides carries the fields a user may change on top of the active rule set.
// Nil fields keep their current value.
type Overrides struct {
	PeriodCount        *int   `json:"periodCount,omitempty"`
	PeriodLength       *Clock `json:"periodLength,omitempty"`
	ShotClock          *int   `json:"shotClock,omitempty"`
	ShotClockReset     *int   `json:"shotClockReset,omitempty"`
	TeamFoulsPerPeriod *int   `json:"teamFoulsPerPeriod,omitempty"`
	BonusFouls         *int   `json:"bonusFouls,omitempty"`
	DoubleBonusFouls   *int   `json:"doubleBonusFouls,omitempty"`
	MaxTimeoutsPerHalf *int   `json:"maxTimeoutsPerHalf,omitempty"`
	OvertimeLength     *Clock `json:"overtimeLength,omitempty"`
	OvertimeTimeouts   *int   `json:"overtimeTimeouts,omitempty"`
	WinByScore         *int   `json:"winByScore,omitempty"`
}

// Apply merges o into r. The result is always named Custom and is validated.
func (r RuleSet) Apply(o Overrides) (RuleSet, error) {
	out := r.Clone()
	out.Name = Custom

	setInt(&out.PeriodCount, o.PeriodCount)
	setInt(&out.ShotClock, o.ShotClock)
	setInt(&out.ShotClockReset, o.ShotClockReset)
	setInt(&out.TeamFoulsPerPeriod, o.TeamFoulsPerPeriod)
	setInt(&out.BonusFouls, o.BonusFouls)
	setInt(&out.DoubleBonusFouls, o.DoubleBonusFouls)
	setInt(&out.MaxTimeoutsPerHalf, o.MaxTimeoutsPerHalf)
	setInt(&out.OvertimeTimeouts, o.OvertimeTimeouts)
	if o.PeriodLength != nil {
		out.PeriodLength = o.PeriodLength.Seconds()
	}
	if o.OvertimeLength != nil {
		out.OvertimeLength = o.OvertimeLength.Seconds()
	}
	if o.WinByScore != nil {
		out.WinByScore = intPtr(*o.WinByScore)
	}

	if err := out.Validate(); err != nil {
		return RuleSet{}, err
	}
	return out, nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func intPtr(i int) *int {
	return &i
}
