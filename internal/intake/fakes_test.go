package intake

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/store"
	"github.com/ashureev/briefbot/internal/wizard"
)

type sentMessage struct {
	userID string
	text   string
	kb     *Keyboard
}

type ackCall struct {
	id    string
	alert string
}

type fakeMessenger struct {
	mu         sync.Mutex
	texts      []sentMessage
	edits      []sentMessage
	acks       []ackCall
	channel    []string
	channelErr error
}

func (f *fakeMessenger) SendText(_ context.Context, userID, text string, kb *Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentMessage{userID: userID, text: text, kb: kb})
	return nil
}

func (f *fakeMessenger) EditLastPrompt(_ context.Context, userID, text string, kb *Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{userID: userID, text: text, kb: kb})
	return nil
}

func (f *fakeMessenger) AcknowledgeInteraction(_ context.Context, id, alert string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, ackCall{id: id, alert: alert})
	return nil
}

func (f *fakeMessenger) SendToChannel(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelErr != nil {
		return f.channelErr
	}
	f.channel = append(f.channel, text)
	return nil
}

func (f *fakeMessenger) deliveries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.channel...)
}

func (f *fakeMessenger) lastText() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return sentMessage{}
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeMessenger) lastAck() ackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.acks) == 0 {
		return ackCall{}
	}
	return f.acks[len(f.acks)-1]
}

func (f *fakeMessenger) sentContaining(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.texts {
		if strings.Contains(m.text, substr) {
			return true
		}
	}
	return false
}

type fakeRecorder struct {
	mu         sync.Mutex
	events     map[string]int
	finalized  int
	resent     int
	deliveries map[bool]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{events: map[string]int{}, deliveries: map[bool]int{}}
}

func (r *fakeRecorder) ObserveEvent(kind, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[kind+"/"+outcome]++
}

func (r *fakeRecorder) ObserveFinalize(resend bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resend {
		r.resent++
		return
	}
	r.finalized++
}

func (r *fakeRecorder) ObserveDelivery(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[ok]++
}

type harness struct {
	t     *testing.T
	ctrl  *Controller
	store *store.MemoryStore
	msg   *fakeMessenger
	rec   *fakeRecorder
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	if opts.ChannelID == "" {
		opts.ChannelID = "@operators"
	}
	rec := newFakeRecorder()
	opts.Recorder = rec
	h := &harness{t: t, store: store.NewMemory(), msg: &fakeMessenger{}, rec: rec}
	h.ctrl = NewController(wizard.Default(), h.store, h.msg, opts)
	return h
}

func (h *harness) handle(ev Event) error {
	h.t.Helper()
	return h.ctrl.Handle(context.Background(), ev)
}

func (h *harness) session(userID string) *domain.Session {
	h.t.Helper()
	s, err := h.store.Get(context.Background(), userID)
	require.NoError(h.t, err)
	return s
}

func (h *harness) must(ev Event) {
	h.t.Helper()
	require.NoError(h.t, h.handle(ev), "event %s %s", ev.Kind, ev.Step)
}

func start(u string) Event { return Event{Kind: EventStart, UserID: u} }
func entry(u string) Event {
	return Event{Kind: EventEntry, UserID: u, InteractionID: "cb-entry", Profile: domain.Profile{FirstName: "Ann", Username: "ann"}}
}
func choice(u, step, value string) Event {
	return Event{Kind: EventChoice, UserID: u, InteractionID: "cb-" + step, Step: step, Value: value}
}
func toggle(u, step, key string) Event {
	return Event{Kind: EventToggle, UserID: u, InteractionID: "cb-t", Step: step, Value: key}
}
func done(u, step string) Event {
	return Event{Kind: EventDone, UserID: u, InteractionID: "cb-d", Step: step}
}
func text(u, s string) Event { return Event{Kind: EventText, UserID: u, Text: s} }
func nav(u string, d Direction) Event {
	return Event{Kind: EventNavigate, UserID: u, InteractionID: "cb-nav", Direction: d}
}
func button(u string, kind EventKind) Event {
	return Event{Kind: kind, UserID: u, InteractionID: "cb-" + string(kind)}
}

// walkToContact answers every step up to the contact prompt.
func (h *harness) walkToContact(u string) {
	h.t.Helper()
	h.must(start(u))
	h.must(entry(u))
	h.must(choice(u, "type", "Лендинг"))
	h.must(toggle(u, "features", "Чат-бот"))
	h.must(done(u, "features"))
	h.must(choice(u, "timeline", "Срочно"))
	h.must(choice(u, "budget", "До 1000$"))
	h.must(text(u, "кофейня"))
	h.must(text(u, "Кофе Лаб, с 2019 года"))
	h.must(choice(u, "engine", "Tilda"))
	h.must(text(u, "https://example.com"))
	h.must(text(u, "есть логотип"))
	h.must(text(u, "кофе с собой"))
	h.must(text(u, "Starbucks"))
	h.must(text(u, "быстрый заказ"))
	h.must(choice(u, "goal", "Продажи"))
	h.must(choice(u, "style", "Минимализм"))
	h.must(text(u, "меню, контакты"))
	h.must(text(u, "-"))
	require.Equal(h.t, "contact", h.session(u).CurrentStep)
}
