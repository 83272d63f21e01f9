package scoreboard

import (
	"strconv"

	"github.com/enescakir/emoji"
	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/strpool"
)

func sideGlyph(side bout.Side) string {
	if side == bout.SideBlue {
		return emoji.BlueCircle.String()
	}
	return emoji.RedCircle.String()
}

func formatClock(secs int) string {
	m, s := secs/60, secs%60
	if s < 10 {
		return strconv.Itoa(m) + ":0" + strconv.Itoa(s)
	}
	return strconv.Itoa(m) + ":" + strconv.Itoa(s)
}

// RenderView renders the board as a few lines of text.
func RenderView(v View) string {
	buf := strpool.Get()
	defer func() {
		buf.Reset()
		strpool.Put(buf)
	}()

	buf.WriteString(emoji.MartialArtsUniform.String())
	buf.WriteString(" ")
	if v.MatchID != "" {
		buf.WriteString(v.MatchID)
		buf.WriteString(" ")
	}
	buf.WriteString("round ")
	buf.WriteString(strconv.Itoa(v.Round))
	buf.WriteString(" [")
	buf.WriteString(v.State.String())
	buf.WriteString("] ")
	buf.WriteString(emoji.Stopwatch.String())
	buf.WriteString(" ")
	if v.State == bout.StateBreak {
		buf.WriteString("break ")
		buf.WriteString(formatClock(v.BreakRemaining))
	} else {
		buf.WriteString(formatClock(v.TimeRemaining))
	}
	buf.WriteString("\n")

	writeCorner := func(side bout.Side, c Corner, score, gamJeom int) {
		buf.WriteString(sideGlyph(side))
		buf.WriteString(" ")
		if c.Name == "" {
			buf.WriteString(string(side))
		} else {
			buf.WriteString(c.Name)
		}
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(score))
		buf.WriteString("  gam-jeom ")
		buf.WriteString(strconv.Itoa(gamJeom))
		for _, j := range v.Judges {
			if j.Side == side {
				buf.WriteString("  J")
				buf.WriteString(strconv.Itoa(j.Judge + 1))
				buf.WriteString(" ")
				buf.WriteString(j.Text)
			}
		}
		buf.WriteString("\n")
	}
	writeCorner(bout.SideBlue, v.Blue, v.BlueScore, v.BlueGamJeom)
	writeCorner(bout.SideRed, v.Red, v.RedScore, v.RedGamJeom)

	if len(v.Outcomes) > 0 {
		buf.WriteString(emoji.ChequeredFlag.String())
		buf.WriteString(" rounds:")
		for _, o := range v.Outcomes {
			buf.WriteString(" ")
			buf.WriteString(string(o))
		}
		buf.WriteString("\n")
	}

	if v.Winner != "" {
		buf.WriteString(emoji.Trophy.String())
		buf.WriteString(" winner ")
		buf.WriteString(string(v.Winner))
		buf.WriteString("\n")
	}

	return buf.String()
}

// RenderEvent renders a single notification as one line. Events that are not
// worth a line, such as most clock ticks, yield an empty string.
func RenderEvent(evt bout.Event) string {
	switch evt.Kind {
	case bout.EventScoreChanged:
		return sideGlyph(evt.Side) + " " + string(evt.Side) + " " + strconv.Itoa(evt.Value)
	case bout.EventPenaltyChanged:
		return emoji.CrossMark.String() + " " + string(evt.Side) + " gam-jeom " + strconv.Itoa(evt.Value)
	case bout.EventTimeTick:
		if evt.Value%30 == 0 || evt.Value <= 5 {
			return emoji.Stopwatch.String() + " " + formatClock(evt.Value)
		}
	case bout.EventBreakTick:
		if evt.Value%10 == 0 || evt.Value <= 3 {
			return emoji.Stopwatch.String() + " break " + formatClock(evt.Value)
		}
	case bout.EventStateChanged:
		return emoji.CheckMarkButton.String() + " round " + strconv.Itoa(evt.Round) + " " + evt.State.String()
	case bout.EventRoundEnded:
		return emoji.ChequeredFlag.String() + " round " + strconv.Itoa(evt.Round) + ": " + string(evt.Outcome)
	case bout.EventMatchEnded:
		return emoji.Trophy.String() + " " + string(evt.Side) + " wins"
	case bout.EventJudgeInput:
		return sideGlyph(evt.Side) + " judge " + strconv.Itoa(evt.Judge+1) + " " + evt.Text
	}
	return ""
}
