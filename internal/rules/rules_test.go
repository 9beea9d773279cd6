package rules

import (
	json2 "encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	for _, r := range Catalog() {
		t.Run(string(r.Name), func(t *testing.T) {
			assert.NoError(t, r.Validate())
			assert.GreaterOrEqual(t, r.BonusFouls, r.TeamFoulsPerPeriod)
			if r.DoubleBonusFouls != 0 {
				assert.Greater(t, r.DoubleBonusFouls, r.BonusFouls)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	nba, err := Lookup(NBA)
	require.NoError(t, err)
	assert.Equal(t, 12*60, nba.PeriodLength)
	assert.Equal(t, 24, nba.ShotClock)

	_, err = Lookup("streetball")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestLookupReturnsCopy(t *testing.T) {
	a := MustLookup(ThreeOnThree)
	*a.WinByScore = 11

	b := MustLookup(ThreeOnThree)
	require.NotNil(t, b.WinByScore)
	assert.Equal(t, 21, *b.WinByScore)
}

func TestPeriodLengthFor(t *testing.T) {
	fiba := MustLookup(FIBA)
	assert.Equal(t, 600, fiba.PeriodLengthFor(4))
	assert.Equal(t, 300, fiba.PeriodLengthFor(5))
	assert.True(t, fiba.IsOvertime(5))
	assert.False(t, fiba.IsOvertime(4))
}

func TestApply(t *testing.T) {
	ten := 10
	four := 4
	length := Clock(8 * 60)

	tests := []struct {
		name    string
		o       Overrides
		wantErr bool
	}{
		{name: "period length", o: Overrides{PeriodLength: &length}},
		{name: "double bonus above bonus", o: Overrides{DoubleBonusFouls: &ten}},
		{name: "bonus below team fouls", o: Overrides{BonusFouls: &four, TeamFoulsPerPeriod: &ten}, wantErr: true},
		{name: "double bonus not above bonus", o: Overrides{DoubleBonusFouls: &four}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MustLookup(FIBA).Apply(tt.o)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRules)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Custom, out.Name)
		})
	}
}

func TestClock(t *testing.T) {
	secs, err := ParseClock("12:05")
	require.NoError(t, err)
	assert.Equal(t, 725, secs)

	_, err = ParseClock("12:75")
	assert.ErrorIs(t, err, ErrInvalidClock)
	_, err = ParseClock("1205")
	assert.ErrorIs(t, err, ErrInvalidClock)

	assert.Equal(t, "00:09", FormatClock(9))
	assert.Equal(t, "10:00", FormatClock(600))
	assert.Equal(t, "07", FormatShotClock(7))

	var o Overrides
	require.NoError(t, json2.Unmarshal([]byte(`{"periodLength":"08:00","overtimeLength":120}`), &o))
	assert.Equal(t, 480, o.PeriodLength.Seconds())
	assert.Equal(t, 120, o.OvertimeLength.Seconds())

	b, err := json2.Marshal(Clock(95))
	require.NoError(t, err)
	assert.Equal(t, `"01:35"`, string(b))
}

func TestRuleSetEqual(t *testing.T) {
	a := MustLookup(ThreeOnThree)
	b := MustLookup(ThreeOnThree)
	require.NotNil(t, a.WinByScore)
	assert.True(t, a.Equal(b))

	*b.WinByScore = 11
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(MustLookup(FIBA)))
	assert.True(t, MustLookup(FIBA).Equal(MustLookup(FIBA)))
}
