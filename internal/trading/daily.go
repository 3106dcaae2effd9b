package trading

import "time"

// RollDailyStats starts a new trading day when now falls on a different calendar
// day (in loc) than the one DailyStats was opened for. The new day's reference
// equity is the equity carried over from the previous day.
func RollDailyStats(state TradingState, now time.Time, loc *time.Location) TradingState {
	today := DayKey(now, loc)
	if state.DailyStats.Date == today {
		return state
	}

	next := state.Clone()
	next.DailyStats = DailyStats{
		PnL:           0,
		Trades:        0,
		InitialEquity: state.CurrentEquity,
		Date:          today,
	}
	return next
}
