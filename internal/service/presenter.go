package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/adwatch/internal/middleware"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// Presentation defaults taken from the viewer dashboard animations.
const (
	DefaultCashDisplay  = 4 * time.Second
	DefaultCountDisplay = 3 * time.Second
)

type PresentationState string

const (
	PresentationIdle    PresentationState = "idle"
	PresentationShowing PresentationState = "showing"
)

// RewardEvent is one confirmed claim handed to the presenter.
type RewardEvent struct {
	ID     string
	Result model.ClaimResult
	At     time.Time
}

// Presentation is a snapshot of what the reward overlay currently shows.
type Presentation struct {
	State     PresentationState
	Event     *RewardEvent
	ShownAt   time.Time
	ExpiresAt time.Time // zero for coupons, which stay until dismissed
}

// Renderer draws presentation changes. Errors and panics are logged and otherwise ignored.
type Renderer interface {
	Render(p Presentation) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(p Presentation) error

func (f RendererFunc) Render(p Presentation) error { return f(p) }

// Presenter drives the reward overlay: Idle -> Showing(payload) -> Idle.
// Cash rewards hide themselves after cashDisplay; coupons stay until Dismiss.
// A new reward while Showing replaces the current one. The presenter never touches a wallet.
type Presenter struct {
	cashDisplay  time.Duration
	countDisplay time.Duration
	renderer     Renderer
	now          func() time.Time

	events  chan RewardEvent
	dismiss chan struct{}
	done    chan struct{}
	stopped chan struct{}

	pubMu     sync.Mutex
	closeOnce sync.Once

	mu      sync.RWMutex
	current Presentation
}

// NewPresenter starts a presenter goroutine. Close must be called to stop it.
func NewPresenter(cashDisplay time.Duration, renderer Renderer) *Presenter {
	if cashDisplay <= 0 {
		cashDisplay = DefaultCashDisplay
	}
	countDisplay := DefaultCountDisplay
	if countDisplay > cashDisplay {
		countDisplay = cashDisplay
	}

	p := &Presenter{
		cashDisplay:  cashDisplay,
		countDisplay: countDisplay,
		renderer:     renderer,
		now:          time.Now,
		events:       make(chan RewardEvent, 1),
		dismiss:      make(chan struct{}, 1),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		current:      Presentation{State: PresentationIdle},
	}
	go p.run()
	return p
}

// Publish hands a confirmed claim to the presenter and returns the event ID.
// It never blocks: if an older event is still queued it is dropped in favour of this one.
// After Close, events are discarded and an empty ID is returned.
func (p *Presenter) Publish(result model.ClaimResult) string {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	select {
	case <-p.done:
		return ""
	default:
	}

	ev := RewardEvent{ID: uuid.NewString(), Result: result, At: p.now()}
	for {
		select {
		case p.events <- ev:
			return ev.ID
		default:
			select {
			case <-p.events:
			default:
			}
		}
	}
}

// Dismiss closes a coupon dialog. Cash animations end on their own and ignore it.
func (p *Presenter) Dismiss() {
	select {
	case p.dismiss <- struct{}{}:
	default:
	}
}

// Current returns the latest presentation snapshot.
func (p *Presenter) Current() Presentation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// CounterValue is the amount the cash counter displays at the given instant. It counts up linearly
// from zero over the count duration, in 2-decimal steps, and lands exactly on the reward amount.
func (p *Presenter) CounterValue(at time.Time) decimal.Decimal {
	cur := p.Current()
	if cur.State != PresentationShowing || cur.Event == nil || cur.Event.Result.Type != model.RewardCash {
		return decimal.Zero
	}
	return counterValue(cur.Event.Result.Amount, at.Sub(cur.ShownAt), p.countDisplay)
}

func counterValue(amount decimal.Decimal, elapsed, total time.Duration) decimal.Decimal {
	if elapsed <= 0 {
		return decimal.Zero
	}
	if elapsed >= total {
		return amount
	}
	progress := decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(total)))
	return amount.Mul(progress).Round(2)
}

// Close stops the presenter and resets it to Idle. Safe to call more than once.
func (p *Presenter) Close() {
	p.closeOnce.Do(func() {
		p.pubMu.Lock()
		close(p.done)
		p.pubMu.Unlock()
		<-p.stopped
	})
}

func (p *Presenter) run() {
	defer close(p.stopped)

	var (
		timer   *time.Timer
		expired <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		expired = nil
	}

	for {
		select {
		case ev := <-p.events:
			stopTimer()
			next := Presentation{State: PresentationShowing, Event: &ev, ShownAt: p.now()}
			if ev.Result.Type == model.RewardCash {
				next.ExpiresAt = next.ShownAt.Add(p.cashDisplay)
				timer = time.NewTimer(p.cashDisplay)
				expired = timer.C
			}
			p.transition(next)

		case <-expired:
			stopTimer()
			p.transition(Presentation{State: PresentationIdle})

		case <-p.dismiss:
			cur := p.Current()
			if cur.State == PresentationShowing && cur.Event.Result.Type == model.RewardCoupon {
				p.transition(Presentation{State: PresentationIdle})
			}

		case <-p.done:
			stopTimer()
			p.mu.Lock()
			p.current = Presentation{State: PresentationIdle}
			p.mu.Unlock()
			return
		}
	}
}

func (p *Presenter) transition(next Presentation) {
	p.mu.Lock()
	p.current = next
	p.mu.Unlock()
	p.render(next)
}

func (p *Presenter) render(next Presentation) {
	if p.renderer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error().Str("panic", fmt.Sprint(r)).Msg("presenter: renderer panicked")
		}
	}()
	if err := p.renderer.Render(next); err != nil {
		middleware.Logger.Warn().Err(err).Str("state", string(next.State)).Msg("presenter: render failed")
	}
}

// LogRenderer logs every presentation change for the given user.
func LogRenderer(userID string) Renderer {
	userHash := middleware.UserHash(userID)
	return RendererFunc(func(p Presentation) error {
		evt := middleware.Logger.Debug().Str("user_hash", userHash).Str("state", string(p.State))
		if p.Event != nil {
			evt = evt.Str("event_id", p.Event.ID).Str("reward_type", string(p.Event.Result.Type))
		}
		evt.Msg("presenter: transition")
		return nil
	})
}
