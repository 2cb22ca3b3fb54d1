package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Tgrelay/internal/domain/alert"
	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/NordCoder/Tgrelay/internal/obs"
	"github.com/NordCoder/Tgrelay/internal/telegram"
	"go.uber.org/zap"
)

var (
	ErrChatIDRequired = errors.New("chat id is required")
	ErrTestSendFailed = errors.New("configuration test message was not delivered")
	ErrNoDestination  = errors.New("no destination chat configured")
)

type Options struct {
	Token          string
	TokenPrefixLen int
	DefaultChatID  chat.ID
	Product        string
}

type Deps struct {
	Store   chat.Store
	Out     alert.Sender
	Updates alert.UpdatesReader
	Clock   alert.Clock
	Log     *zap.Logger
}

type Health struct {
	Status           string
	Timestamp        time.Time
	ChatIDConfigured bool
}

type ConfigView struct {
	BotToken   string
	ChatID     chat.ID
	Configured bool
}

// Relay owns the destination chat id. The cached id mirrors the store after
// every load or write.
type Relay struct {
	store   chat.Store
	out     alert.Sender
	updates alert.UpdatesReader
	clock   alert.Clock
	opts    Options
	log     *zap.Logger

	mu     sync.RWMutex
	chatID chat.ID
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func New(d Deps, opts Options) *Relay {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.Log == nil {
		d.Log = zap.L()
	}
	return &Relay{
		store:   d.Store,
		out:     d.Out,
		updates: d.Updates,
		clock:   d.Clock,
		opts:    opts,
		log:     d.Log.With(zap.String("component", "relay")),
	}
}

// Init loads the persisted chat id. It reports whether one was found.
func (r *Relay) Init(ctx context.Context) (chat.ID, bool) {
	return r.current(ctx)
}

// Cached returns the last chat id seen in the store.
func (r *Relay) Cached() chat.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chatID
}

func (r *Relay) RedactedToken() string {
	return RedactToken(r.opts.Token, r.opts.TokenPrefixLen)
}

func (r *Relay) Health(ctx context.Context) Health {
	_, ok := r.current(ctx)
	return Health{Status: "ok", Timestamp: r.clock.Now(), ChatIDConfigured: ok}
}

func (r *Relay) Config(ctx context.Context) ConfigView {
	id, ok := r.current(ctx)
	return ConfigView{BotToken: r.RedactedToken(), ChatID: id, Configured: ok}
}

// Configure sends the configuration test message to id and persists id only
// if the provider accepted it. A failed write is logged, not returned.
func (r *Relay) Configure(ctx context.Context, id chat.ID) error {
	id, err := chat.Parse(id.String())
	if err != nil {
		return ErrChatIDRequired
	}
	if err := r.send(ctx, opConfigure, id, configTestText); err != nil {
		return fmt.Errorf("%w: %w", ErrTestSendFailed, err)
	}
	log := obs.WithTrace(ctx, r.log)
	if err := r.store.Save(ctx, id); err != nil {
		// the chat already accepted the test message, so the caller still gets success
		log.Error("save chat id", zap.String("chat_id", id.String()), zap.Error(err))
	}
	r.setCached(id)
	log.Info("chat id configured", zap.String("chat_id", id.String()))
	return nil
}

func (r *Relay) Notify(ctx context.Context, req alert.Request) error {
	return r.deliver(ctx, opNotify, FormatAlert(req, r.clock.Now()))
}

func (r *Relay) SendTest(ctx context.Context) error {
	return r.deliver(ctx, opTest, testNotificationText(r.opts.Product))
}

// Forward sends text verbatim to the resolved chat.
func (r *Relay) Forward(ctx context.Context, text string) error {
	return r.deliver(ctx, opForward, text)
}

func (r *Relay) Reset(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear chat id: %w", err)
	}
	r.setCached("")
	obs.WithTrace(ctx, r.log).Info("configuration reset")
	return nil
}

func (r *Relay) deliver(ctx context.Context, op, text string) error {
	id, err := r.resolve(ctx)
	if err != nil {
		deliveries.WithLabelValues(op, outcomeNoDestination).Inc()
		obs.WithTrace(ctx, r.log).Warn("no destination chat", zap.String("op", op))
		return err
	}
	return r.send(ctx, op, id, text)
}

func (r *Relay) send(ctx context.Context, op string, to chat.ID, text string) error {
	if err := r.out.Send(ctx, to, text); err != nil {
		kind := telegram.KindOf(err)
		deliveries.WithLabelValues(op, outcomeFailed).Inc()
		providerErrors.WithLabelValues(op, kind).Inc()
		obs.WithTrace(ctx, r.log).Warn("send failed",
			zap.String("op", op),
			zap.String("chat_id", to.String()),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return err
	}
	deliveries.WithLabelValues(op, outcomeSent).Inc()
	return nil
}

// resolve picks the destination: the stored id, then a chat discovered from
// pending updates (persisted on success), then the configured fallback.
func (r *Relay) resolve(ctx context.Context) (chat.ID, error) {
	if id, ok := r.current(ctx); ok {
		return id, nil
	}

	log := obs.WithTrace(ctx, r.log)
	id, err := r.updates.DiscoverChatID(ctx)
	switch {
	case err == nil:
		discoveries.WithLabelValues("found").Inc()
		if serr := r.store.Save(ctx, id); serr != nil {
			log.Warn("persist discovered chat id", zap.Error(serr))
		}
		r.setCached(id)
		log.Info("chat id discovered", zap.String("chat_id", id.String()))
		return id, nil
	case errors.Is(err, chat.ErrNotConfigured):
		discoveries.WithLabelValues("none").Inc()
	default:
		discoveries.WithLabelValues("error").Inc()
		log.Warn("discover chat id", zap.String("kind", telegram.KindOf(err)), zap.Error(err))
	}

	if !r.opts.DefaultChatID.IsZero() {
		return r.opts.DefaultChatID, nil
	}
	return "", ErrNoDestination
}

// current reads the store. Read failures count as "not configured".
func (r *Relay) current(ctx context.Context) (chat.ID, bool) {
	id, err := r.store.Load(ctx)
	switch {
	case err == nil:
		r.setCached(id)
		return id, true
	case errors.Is(err, chat.ErrNotConfigured):
		r.setCached("")
	default:
		obs.WithTrace(ctx, r.log).Error("load chat id", zap.Error(err))
	}
	return "", false
}

func (r *Relay) setCached(id chat.ID) {
	r.mu.Lock()
	r.chatID = id
	r.mu.Unlock()
}
