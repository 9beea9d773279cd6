package game

import (
	"fmt"
)

func (s *Store) StartTimer() error {
	return s.setRunning("start_timer", true)
}

// PauseTimer stops the clock. The shot clock keeps its value.
func (s *Store) PauseTimer() error {
	return s.setRunning("pause_timer", false)
}

func (s *Store) ToggleTimer() error {
	return s.mutate("toggle_timer", true, func(st *State) error {
		st.IsRunning = !st.IsRunning
		return nil
	})
}

// EndGame stops the clock for good; scores and the timeline stay intact.
func (s *Store) EndGame() error {
	return s.setRunning("end_game", false)
}

func (s *Store) setRunning(op string, running bool) error {
	return s.mutate(op, true, func(st *State) error {
		if st.IsRunning == running {
			return errUnchanged
		}
		st.IsRunning = running
		return nil
	})
}

// Tick advances the clocks by one second and reports whether the clock is
// still running afterwards. It is a no-op while paused.
func (s *Store) Tick() bool {
	running := false
	_ = s.mutate("tick", false, func(st *State) error {
		if !st.IsRunning {
			return errUnchanged
		}
		if st.ShotClock > 0 {
			st.ShotClock--
		}
		if st.GameTime > 0 {
			st.GameTime--
		}
		if st.GameTime == 0 {
			st.IsRunning = false
		}
		running = st.IsRunning
		return nil
	})
	return running
}

// ResetShotClock sets the shot clock to the full value or to the offensive
// rebound value.
func (s *Store) ResetShotClock(full bool) error {
	return s.mutate("reset_shot_clock", true, func(st *State) error {
		v := st.Rules.ShotClockReset
		if full {
			v = st.Rules.ShotClock
		}
		if st.ShotClock == v {
			return errUnchanged
		}
		st.ShotClock = v
		return nil
	})
}

// ResetGameTime restores the full length of the current period and pauses.
func (s *Store) ResetGameTime() error {
	return s.mutate("reset_game_time", true, func(st *State) error {
		st.GameTime = st.Rules.PeriodLengthFor(st.Period)
		st.IsRunning = false
		return nil
	})
}

// NextPeriod moves to the next period, rolling into overtime after
// regulation. Team fouls reset for both sides.
func (s *Store) NextPeriod() error {
	return s.mutate("next_period", true, func(st *State) error {
		st.Period++
		st.GameTime = st.Rules.PeriodLengthFor(st.Period)
		st.ShotClock = st.Rules.ShotClock
		st.IsRunning = false
		st.Home.Fouls = 0
		st.Away.Fouls = 0
		s.appendEvent(st, EventPeriodStart, "", "", intPtr(st.Period), PeriodLabel(st.Rules.PeriodCount, st.Period))
		return nil
	})
}

// PeriodLabel names a period as "Period N" or "Overtime N".
func PeriodLabel(periodCount, period int) string {
	if period > periodCount {
		return fmt.Sprintf("Overtime %d", period-periodCount)
	}
	return fmt.Sprintf("Period %d", period)
}
