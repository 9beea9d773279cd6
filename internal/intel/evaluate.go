package intel

import (
	"fmt"

	"ScoreTable/internal/game"
)

const (
	bigLeadMargin = 20
	closeMargin   = 10
	comebackGap   = 5
)

// Evaluate compares two consecutive states and returns the alerts the
// transition produces, without ids or timestamps. Timeline entries are not
// inspected; see Watcher for those.
func Evaluate(prev, curr game.State) []Alert {
	var out []Alert
	for _, t := range []game.Team{game.Home, game.Away} {
		out = append(out, fouls(curr.Rules.BonusFouls, prev.Team(t), curr.Team(t))...)
	}
	for _, t := range []game.Team{game.Home, game.Away} {
		out = append(out, timeouts(curr.Rules.MaxTimeoutsPerHalf, prev.Team(t), curr.Team(t))...)
	}
	out = append(out, scores(prev, curr)...)
	out = append(out, countdown(prev, curr)...)
	out = append(out, periods(prev, curr)...)
	return out
}

func fouls(bonus int, prev, curr game.TeamState) []Alert {
	if curr.Fouls == prev.Fouls {
		return nil
	}
	if bonus <= 0 {
		bonus = 5
	}
	switch curr.Fouls {
	case bonus - 1:
		return []Alert{newAlert(Warning, CategoryFoul,
			fmt.Sprintf("%s has %d fouls - one more enters bonus!", curr.Name, curr.Fouls),
			fmt.Sprintf("%s已有 %d 次犯规 - 再犯一次进入罚球！", curr.Name, curr.Fouls),
			4)}
	case bonus:
		return []Alert{newAlert(Danger, CategoryFoul,
			fmt.Sprintf("%s in BONUS - all fouls result in free throws", curr.Name),
			fmt.Sprintf("%s进入罚球状态 - 所有犯规将罚球", curr.Name),
			5)}
	case bonus + 2:
		return []Alert{newAlert(Danger, CategoryFoul,
			fmt.Sprintf("%s in DOUBLE BONUS", curr.Name),
			fmt.Sprintf("%s进入双倍罚球状态", curr.Name),
			5)}
	}
	return nil
}

func timeouts(allowed int, prev, curr game.TeamState) []Alert {
	if curr.Timeouts == prev.Timeouts {
		return nil
	}
	switch allowed - curr.Timeouts {
	case 1:
		return []Alert{newAlert(Warning, CategoryTimeout,
			fmt.Sprintf("%s has only 1 timeout remaining", curr.Name),
			fmt.Sprintf("%s仅剩 1 次暂停", curr.Name),
			3)}
	case 0:
		return []Alert{newAlert(Danger, CategoryTimeout,
			fmt.Sprintf("%s has NO timeouts remaining", curr.Name),
			fmt.Sprintf("%s已无暂停机会", curr.Name),
			4)}
	}
	return nil
}

// leader returns +1 when home leads, -1 when away leads and 0 on a tie.
func leader(home, away int) int {
	switch {
	case home > away:
		return 1
	case home < away:
		return -1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func scores(prev, curr game.State) []Alert {
	ph, pa := prev.Home.Score, prev.Away.Score
	h, a := curr.Home.Score, curr.Away.Score
	if h == ph && a == pa {
		return nil
	}

	var out []Alert
	if d := h - ph; d > 0 {
		out = append(out, newAlert(Success, CategoryScore,
			fmt.Sprintf("%s +%d! (%d-%d)", curr.Home.Name, d, h, a),
			fmt.Sprintf("%s +%d！(%d-%d)", curr.Home.Name, d, h, a),
			2))
	}
	if d := a - pa; d > 0 {
		out = append(out, newAlert(Success, CategoryScore,
			fmt.Sprintf("%s +%d! (%d-%d)", curr.Away.Name, d, h, a),
			fmt.Sprintf("%s +%d！(%d-%d)", curr.Away.Name, d, h, a),
			2))
	}

	lead := curr.Away.Name
	if h > a {
		lead = curr.Home.Name
	}
	hi, lo := max(h, a), min(h, a)
	was, now := leader(ph, pa), leader(h, a)
	margin, prevMargin := abs(h-a), abs(ph-pa)

	if was != 0 && now != 0 && was != now {
		out = append(out, newAlert(Success, CategoryScore,
			fmt.Sprintf("LEAD CHANGE! %s now leads %d-%d", lead, hi, lo),
			fmt.Sprintf("领先易主！%s现在以 %d-%d 领先", lead, hi, lo),
			4))
	}
	if now == 0 && h > 0 && was != 0 {
		out = append(out, newAlert(Info, CategoryScore,
			fmt.Sprintf("GAME TIED at %d!", h),
			fmt.Sprintf("比分打平！%d-%d", h, a),
			4))
	}
	if margin >= bigLeadMargin && prevMargin < bigLeadMargin {
		out = append(out, newAlert(Info, CategoryScore,
			fmt.Sprintf("%s leads by 20+ points", lead),
			fmt.Sprintf("%s领先超过20分", lead),
			3))
	}
	if margin <= comebackGap && prevMargin > closeMargin {
		out = append(out, newAlert(Success, CategoryScore,
			fmt.Sprintf("Close game! Only %d point difference", margin),
			fmt.Sprintf("比赛胶着！仅差 %d 分", margin),
			4))
	}
	return out
}

// reached reports whether the clock landed on mark during this transition.
func reached(prev, curr game.State, mark int) bool {
	return curr.GameTime == mark && prev.GameTime > mark
}

func countdown(prev, curr game.State) []Alert {
	if !curr.IsRunning || curr.GameTime == prev.GameTime {
		return nil
	}
	p := curr.Period
	var out []Alert
	if reached(prev, curr, 120) {
		if abs(curr.Home.Score-curr.Away.Score) <= closeMargin {
			out = append(out, newAlert(Warning, CategoryTime,
				"CRITICAL: 2 minutes remaining in close game!",
				"关键时刻：比赛还剩2分钟，比分接近！",
				5))
		} else {
			out = append(out, newAlert(Info, CategoryTime,
				fmt.Sprintf("2 minutes remaining in period %d", p),
				fmt.Sprintf("第%d节还剩2分钟", p),
				3))
		}
	}
	if reached(prev, curr, 60) {
		out = append(out, newAlert(Warning, CategoryTime,
			fmt.Sprintf("FINAL MINUTE of period %d!", p),
			fmt.Sprintf("第%d节最后一分钟！", p),
			4))
	}
	if reached(prev, curr, 30) {
		out = append(out, newAlert(Danger, CategoryTime, "30 SECONDS remaining!", "还剩30秒！", 5))
	}
	if reached(prev, curr, 10) {
		out = append(out, newAlert(Danger, CategoryTime, "FINAL 10 SECONDS!", "最后10秒！", 5))
	}
	return out
}

func periods(prev, curr game.State) []Alert {
	if curr.Period <= prev.Period {
		return nil
	}
	p, regulation := curr.Period, curr.Rules.PeriodCount
	out := []Alert{newAlert(Info, CategoryPeriod,
		fmt.Sprintf("Period %d has started", p),
		fmt.Sprintf("第%d节开始", p),
		3)}
	if p == regulation && abs(curr.Home.Score-curr.Away.Score) <= closeMargin {
		out = append(out, newAlert(Warning, CategoryPeriod,
			"FINAL PERIOD with close score!",
			"决胜节！比分接近！",
			5))
	}
	if p > regulation {
		ot := p - regulation
		out = append(out, newAlert(Danger, CategoryPeriod,
			fmt.Sprintf("OVERTIME %d!", ot),
			fmt.Sprintf("加时赛第%d节！", ot),
			5))
	}
	return out
}
