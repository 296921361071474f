package intake

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/store"
	"github.com/ashureev/briefbot/internal/wizard"
)

// Options configures a Controller.
type Options struct {
	// ChannelID is where finished briefs are delivered.
	ChannelID string
	// EditWindow keeps a finished session for edit-and-resend. Zero deletes
	// sessions right after delivery.
	EditWindow time.Duration
	Recorder   Recorder
}

// Controller is the wizard state machine. It keeps no state of its own:
// every event loads the session, applies the transition and writes it back.
type Controller struct {
	graph      *wizard.Graph
	store      store.SessionStore
	messenger  Messenger
	channelID  string
	editWindow time.Duration
	rec        Recorder
	now        func() time.Time
}

// NewController creates a controller over the given graph and capabilities.
func NewController(graph *wizard.Graph, sessions store.SessionStore, messenger Messenger, opts Options) *Controller {
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Controller{
		graph:      graph,
		store:      sessions,
		messenger:  messenger,
		channelID:  opts.ChannelID,
		editWindow: opts.EditWindow,
		rec:        rec,
		now:        time.Now,
	}
}

// Handle applies one inbound event. User-correctable outcomes are answered
// with a re-prompt and then returned (see IsUserError); other errors are
// internal and the user is told to try again.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	eventID := uuid.NewString()
	slog.Debug("Handling event", "event_id", eventID, "kind", ev.Kind, "user_id", ev.UserID)

	err := c.dispatch(ctx, ev)

	if err != nil && !IsUserError(err) {
		slog.Error("Event handling failed", "event_id", eventID, "kind", ev.Kind, "user_id", ev.UserID, "error", err)
		if ev.InteractionID == "" {
			c.send(ctx, ev.UserID, msgSomethingWrong, nil)
		}
	}
	if ev.InteractionID != "" {
		if ackErr := c.messenger.AcknowledgeInteraction(ctx, ev.InteractionID, alertFor(err)); ackErr != nil {
			slog.Warn("Failed to acknowledge interaction", "event_id", eventID, "user_id", ev.UserID, "error", ackErr)
		}
	}

	c.rec.ObserveEvent(string(ev.Kind), outcome(err))
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsUserError(err):
		return "rejected"
	default:
		return "error"
	}
}

func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventStart:
		return c.HandleStart(ctx, ev)
	case EventEntry:
		return c.HandleEntry(ctx, ev)
	case EventChoice:
		return c.HandleChoice(ctx, ev)
	case EventToggle:
		return c.HandleToggle(ctx, ev)
	case EventDone:
		return c.HandleDone(ctx, ev)
	case EventNavigate:
		return c.HandleNavigate(ctx, ev)
	case EventText:
		return c.HandleFreeText(ctx, ev)
	case EventEdit:
		return c.HandleEdit(ctx, ev)
	case EventRevise:
		return c.HandleRevise(ctx, ev)
	case EventResend:
		return c.HandleResend(ctx, ev)
	case EventCancel:
		return c.HandleCancel(ctx, ev)
	default:
		return c.handleUnknown(ctx, ev)
	}
}

// HandleStart discards any session in progress and shows the welcome. The
// reset is silent on purpose: /start always means "from scratch". No session
// exists until the entry button is pressed.
func (c *Controller) HandleStart(ctx context.Context, ev Event) error {
	if err := c.store.Delete(ctx, ev.UserID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	c.send(ctx, ev.UserID, msgWelcome, nil)

	kb := &Keyboard{}
	kb.row(Button{Text: btnEntry, Data: payloadEntry})
	c.send(ctx, ev.UserID, msgReady, kb)
	return nil
}

// HandleEntry creates a fresh session at the first step.
func (c *Controller) HandleEntry(ctx context.Context, ev Event) error {
	sess := domain.NewSession(ev.UserID, c.graph.Entry, ev.Profile)
	if sess.Profile.UserID == "" {
		sess.Profile.UserID = ev.UserID
	}
	if err := c.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	slog.Info("Brief started", "user_id", ev.UserID)
	return c.show(ctx, ev, sess, sess.CurrentStep)
}

// HandleChoice records a single-choice answer and advances. On a multi-choice
// step it toggles the option instead.
func (c *Controller) HandleChoice(ctx context.Context, ev Event) error {
	sess, step, err := c.current(ctx, ev)
	if err != nil {
		return err
	}
	if ev.Step != step.ID {
		return c.stale(ctx, sess)
	}
	switch step.Kind {
	case wizard.KindMulti:
		return c.toggle(ctx, ev, sess, step)
	case wizard.KindSingle:
	default:
		return c.stale(ctx, sess)
	}

	opt, ok := c.graph.Option(step.ID, ev.Value)
	if !ok {
		return c.stale(ctx, sess)
	}
	sess.Record(step.Field, domain.TextAnswer(opt.Value))
	return c.advance(ctx, ev, sess, step, opt.Value)
}

// HandleToggle flips one option of the current multi-choice step.
func (c *Controller) HandleToggle(ctx context.Context, ev Event) error {
	sess, step, err := c.current(ctx, ev)
	if err != nil {
		return err
	}
	if (ev.Step != "" && ev.Step != step.ID) || step.Kind != wizard.KindMulti {
		return c.stale(ctx, sess)
	}
	return c.toggle(ctx, ev, sess, step)
}

func (c *Controller) toggle(ctx context.Context, ev Event, sess *domain.Session, step *wizard.Step) error {
	opt, ok := c.graph.Option(step.ID, ev.Value)
	if !ok {
		return c.stale(ctx, sess)
	}
	sess.Pending = wizard.Toggle(sess.Pending, opt.Value)
	if err := c.store.Update(ctx, sess.UserID, domain.SessionPatch{Pending: &sess.Pending}); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return c.show(ctx, ev, sess, step.ID)
}

// HandleDone submits the current multi-choice selection.
func (c *Controller) HandleDone(ctx context.Context, ev Event) error {
	sess, step, err := c.current(ctx, ev)
	if err != nil {
		return err
	}
	if (ev.Step != "" && ev.Step != step.ID) || step.Kind != wizard.KindMulti {
		return c.stale(ctx, sess)
	}
	if !wizard.IsComplete(sess.Pending) {
		if ev.InteractionID == "" {
			c.send(ctx, sess.UserID, msgSelectAtLeastOne, nil)
		}
		return ErrIncompleteSelection
	}

	selected := c.graph.Ordered(step.ID, sess.Pending)
	sess.Record(step.Field, domain.SetAnswer(selected))
	return c.advance(ctx, ev, sess, step, "")
}

// HandleFreeText stores a typed answer. The contact step is validated and
// finishes the wizard. Other text answers are stored trimmed with no limits.
func (c *Controller) HandleFreeText(ctx context.Context, ev Event) error {
	sess, step, err := c.current(ctx, ev)
	if err != nil {
		return err
	}
	if step.IsChoice() {
		c.send(ctx, sess.UserID, msgUseButtons, nil)
		if err := c.show(ctx, Event{UserID: ev.UserID}, sess, step.ID); err != nil {
			return err
		}
		return ErrUnexpectedInput
	}

	text := strings.TrimSpace(ev.Text)
	if step.Validate == wizard.ValidatorContact {
		if err := wizard.ValidateContact(text); err != nil {
			c.send(ctx, sess.UserID, msgBadContact, nil)
			return err
		}
	}

	sess.Record(step.Field, domain.TextAnswer(text))
	return c.advance(ctx, ev, sess, step, text)
}

// HandleNavigate moves one step back or forward. Going back keeps the answer
// of the step being left. Going forward requires the current step to have
// been answered already.
func (c *Controller) HandleNavigate(ctx context.Context, ev Event) error {
	sess, step, err := c.current(ctx, ev)
	if err != nil {
		return err
	}

	if ev.Direction == Back {
		prev := c.graph.Predecessor(step.ID, sess.Answers)
		if prev == "" {
			return c.show(ctx, ev, sess, step.ID)
		}
		sess.CurrentStep = prev
		sess.Pending = nil
		empty := []string{}
		if err := c.store.Update(ctx, sess.UserID, domain.SessionPatch{CurrentStep: &prev, Pending: &empty}); err != nil {
			return fmt.Errorf("move back: %w", err)
		}
		return c.show(ctx, ev, sess, prev)
	}

	if ev.Direction != Next {
		return c.show(ctx, ev, sess, step.ID)
	}
	if !sess.Answered(step.Field) {
		if ev.InteractionID == "" {
			c.send(ctx, sess.UserID, msgAnswerFirst, nil)
		}
		if err := c.show(ctx, ev, sess, step.ID); err != nil {
			return err
		}
		return ErrAnswerRequired
	}
	return c.advance(ctx, ev, sess, step, sess.AnswerValue(step.Field))
}

func (c *Controller) handleUnknown(ctx context.Context, ev Event) error {
	sess, err := c.store.Get(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil || !c.graph.Has(sess.CurrentStep) {
		c.send(ctx, ev.UserID, msgNoSession, nil)
		return nil
	}
	if sess.InReview() {
		return c.showReview(ctx, sess)
	}
	return c.show(ctx, Event{UserID: ev.UserID}, sess, sess.CurrentStep)
}

// advance moves past step, answered with value, and persists the session.
// The terminal step hands over to finalize.
func (c *Controller) advance(ctx context.Context, ev Event, sess *domain.Session, step *wizard.Step, value string) error {
	next, err := c.graph.Successor(step.ID, value)
	if err != nil {
		return err
	}
	if next == wizard.Terminal {
		return c.finalize(ctx, sess)
	}

	sess.CurrentStep = next
	sess.Pending = nil
	if err := c.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return c.show(ctx, ev, sess, next)
}

// current loads the user's active session and its step. Users without one
// are told how to start; finished sessions get the review notice.
func (c *Controller) current(ctx context.Context, ev Event) (*domain.Session, *wizard.Step, error) {
	sess, err := c.store.Get(ctx, ev.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		c.send(ctx, ev.UserID, msgNoSession, nil)
		return nil, nil, ErrNoSession
	}
	if sess.InReview() {
		if err := c.showReview(ctx, sess); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrStaleInteraction
	}

	step, err := c.graph.Prompt(sess.CurrentStep)
	if err != nil {
		// The graph changed under a persisted session; only /start recovers.
		return nil, nil, fmt.Errorf("session %s: %w", sess.UserID, err)
	}
	return sess, step, nil
}

// stale re-sends the current prompt as a fresh message.
func (c *Controller) stale(ctx context.Context, sess *domain.Session) error {
	if err := c.show(ctx, Event{UserID: sess.UserID}, sess, sess.CurrentStep); err != nil {
		return err
	}
	return ErrStaleInteraction
}

// show renders the prompt of stepID. Button presses edit the pressed message
// in place; typed messages get a new prompt.
func (c *Controller) show(ctx context.Context, ev Event, sess *domain.Session, stepID string) error {
	step, err := c.graph.Prompt(stepID)
	if err != nil {
		return err
	}
	text := c.promptText(step)
	kb := c.keyboard(sess, step)

	if ev.InteractionID != "" {
		err := c.messenger.EditLastPrompt(ctx, sess.UserID, text, kb)
		if err == nil {
			return nil
		}
		slog.Debug("Prompt edit failed, sending a new one", "user_id", sess.UserID, "step", stepID, "error", err)
	}
	c.send(ctx, sess.UserID, text, kb)
	return nil
}

func (c *Controller) promptText(step *wizard.Step) string {
	pos, total := c.graph.Position(step.ID)
	if pos == 0 {
		return fmt.Sprintf(promptSubstep, html.EscapeString(step.Prompt))
	}
	return fmt.Sprintf(promptNumbered, pos, total, html.EscapeString(step.Prompt))
}

func (c *Controller) keyboard(sess *domain.Session, step *wizard.Step) *Keyboard {
	kb := &Keyboard{}
	for _, o := range step.Options {
		switch step.Kind {
		case wizard.KindSingle:
			kb.row(Button{Text: o.Label, Data: choicePayload(step.ID, o.Key)})
		case wizard.KindMulti:
			label := o.Label
			if slices.Contains(sess.Pending, o.Value) {
				label = checkMark + label
			}
			kb.row(Button{Text: label, Data: togglePayload(step.ID, o.Key)})
		}
	}
	if step.Kind == wizard.KindMulti {
		kb.row(Button{Text: btnDone, Data: donePayload(step.ID)})
	}

	var nav []Button
	if c.graph.Predecessor(step.ID, sess.Answers) != "" {
		nav = append(nav, Button{Text: btnBack, Data: payloadBack})
	}
	if sess.Answered(step.Field) {
		nav = append(nav, Button{Text: btnNext, Data: payloadNext})
	}
	kb.row(nav...)

	if kb.Empty() {
		return nil
	}
	return kb
}

// send delivers a message to the user. Failures are logged: there is nobody
// to report them to.
func (c *Controller) send(ctx context.Context, userID, text string, kb *Keyboard) {
	if err := c.messenger.SendText(ctx, userID, text, kb); err != nil {
		slog.Warn("Failed to send message", "user_id", userID, "error", err)
	}
}
