package watch

import (
	"strings"
	"time"
)

// Ticker alternates frames on every tick so a frozen UI is visible.
type Ticker struct {
	frames []string
	index  int
}

func NewTicker() Ticker {
	return Ticker{frames: []string{"◐", "◓", "◑", "◒"}}
}

func (t *Ticker) Tick() {
	t.index = (t.index + 1) % len(t.frames)
}

func (t Ticker) Current() string {
	return t.frames[t.index]
}

// Activity lights up on events and fades over ten seconds.
type Activity struct {
	level     int
	lastEvent time.Time
}

const activityLevels = 5

func (a *Activity) OnEvent(now time.Time) {
	a.level = activityLevels
	a.lastEvent = now
}

// Decay lowers the level by one for every two seconds without events.
func (a *Activity) Decay(now time.Time) {
	if a.level == 0 {
		return
	}
	elapsed := now.Sub(a.lastEvent)
	a.level = max(0, activityLevels-int(elapsed/(2*time.Second)))
}

func (a Activity) Level() int { return a.level }

func (a Activity) LastEvent() time.Time { return a.lastEvent }

func (a Activity) Render(theme Theme) string {
	var b strings.Builder
	for i := range activityLevels {
		if i < a.level {
			b.WriteString(theme.TickerActive.Render("●"))
		} else {
			b.WriteString(theme.TickerInactive.Render("○"))
		}
	}
	return b.String()
}
