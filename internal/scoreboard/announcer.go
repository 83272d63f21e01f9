package scoreboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/enescakir/emoji"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/tkwin-games/tkwin/internal/bout"
	"github.com/tkwin-games/tkwin/internal/logging"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

func NewAnnouncer(ctx context.Context, tg sender, chatID int64) *Announcer {
	return &Announcer{
		tg:     tg,
		chatID: chatID,
		sndCh:  make(chan tgbotapi.Chattable, 32),
		logger: logging.FromContext(ctx).Named("scoreboard.Announcer"),
	}
}

var _ bout.Notifier = (*Announcer)(nil)

// Announcer posts round and bout results to a Telegram chat.
type Announcer struct {
	mtx    sync.RWMutex
	tg     sender
	chatID int64
	title  string
	blue   string
	red    string
	sndCh  chan tgbotapi.Chattable
	sema   sync.Once
	logger *zap.SugaredLogger
}

// SetBout names the corners used in the following messages.
func (a *Announcer) SetBout(title, blue, red string) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.title, a.blue, a.red = title, blue, red
}

func (a *Announcer) Run(ctx context.Context) {
	a.sema.Do(func() {
		go a.sendingPool(ctx)
	})
}

func (a *Announcer) Notify(evt bout.Event) {
	var text string
	switch evt.Kind {
	case bout.EventRoundEnded:
		text = a.render(fmt.Sprintf("%s round %d: %s", emoji.ChequeredFlag, evt.Round, a.outcomeName(evt.Outcome)))
	case bout.EventMatchEnded:
		text = a.render(fmt.Sprintf("%s winner: %s", emoji.Trophy, a.sideName(evt.Side)))
	default:
		return
	}

	select {
	case a.sndCh <- tgbotapi.NewMessage(a.chatID, text):
	default:
		a.logger.Warnf("send queue full, dropping %s", evt.Kind)
	}
}

func (a *Announcer) sendingPool(ctx context.Context) {
	for {
		select {
		case msg := <-a.sndCh:
			if _, err := a.tg.Send(msg); err != nil {
				a.logger.Errorf("send tg: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *Announcer) render(line string) string {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	if a.title == "" {
		return line
	}
	return a.title + "\n" + line
}

func (a *Announcer) sideName(side bout.Side) string {
	a.mtx.RLock()
	defer a.mtx.RUnlock()
	switch {
	case side == bout.SideBlue && a.blue != "":
		return a.blue + " (blue)"
	case side == bout.SideRed && a.red != "":
		return a.red + " (red)"
	}
	return string(side)
}

func (a *Announcer) outcomeName(o bout.Outcome) string {
	if o == bout.OutcomeDraw {
		return "draw"
	}
	return a.sideName(bout.Side(o))
}
