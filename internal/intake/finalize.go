package intake

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/store"
)

var errNoChannel = errors.New("operator channel not configured")

// finalize numbers, renders and delivers the brief, confirms to the user and
// cleans up. A session in edit mode keeps its number and is re-delivered.
//
// Delivery failures are logged and swallowed: the user has handed over a
// valid contact and gets a confirmation either way.
func (c *Controller) finalize(ctx context.Context, sess *domain.Session) error {
	resend := sess.EditMode && sess.BriefNumber != ""
	if !resend {
		n, err := c.store.IncrementCounter(ctx, store.BriefCounter)
		if err != nil {
			return fmt.Errorf("allocate brief number: %w", err)
		}
		sess.BriefNumber = domain.FormatBriefNumber(n)
	}

	brief := RenderBrief(c.graph, sess, resend)
	if err := c.deliver(ctx, brief); err != nil {
		slog.Error("Brief delivery failed",
			"user_id", sess.UserID,
			"brief_number", sess.BriefNumber,
			"resend", resend,
			"error", fmt.Errorf("%w: %w", ErrDeliveryFailure, err))
		c.rec.ObserveDelivery(false)
	} else {
		slog.Info("Brief delivered", "user_id", sess.UserID, "brief_number", sess.BriefNumber, "resend", resend)
		c.rec.ObserveDelivery(true)
	}
	c.rec.ObserveFinalize(resend)

	number := html.EscapeString(sess.BriefNumber)
	if resend {
		c.send(ctx, sess.UserID, fmt.Sprintf(msgResent, number), nil)
		return c.cleanup(ctx, sess)
	}

	var kb *Keyboard
	if c.editWindow > 0 {
		kb = &Keyboard{}
		kb.row(Button{Text: btnEdit, Data: payloadEdit})
	}
	c.send(ctx, sess.UserID, fmt.Sprintf(msgThanks, number), kb)

	if c.editWindow > 0 {
		return c.retainForReview(ctx, sess)
	}
	return c.cleanup(ctx, sess)
}

func (c *Controller) deliver(ctx context.Context, brief string) error {
	if c.channelID == "" {
		return errNoChannel
	}
	return c.messenger.SendToChannel(ctx, c.channelID, brief)
}

func (c *Controller) cleanup(ctx context.Context, sess *domain.Session) error {
	if err := c.store.Delete(ctx, sess.UserID); err != nil {
		return fmt.Errorf("delete finished session: %w", err)
	}
	return nil
}

func (c *Controller) retainForReview(ctx context.Context, sess *domain.Session) error {
	now := c.now()
	sess.Stage = domain.StageReview
	sess.CompletedAt = &now
	sess.EditMode = false
	sess.Pending = nil
	if err := c.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("retain session for review: %w", err)
	}
	return nil
}

// reviewable loads a finished session still inside its edit window. Expired
// or missing sessions are removed and the user is told to start over.
func (c *Controller) reviewable(ctx context.Context, ev Event) (*domain.Session, error) {
	sess, err := c.store.Get(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess != nil && !sess.InReview() {
		return nil, c.stale(ctx, sess)
	}
	if sess == nil || sess.ReviewExpired(c.editWindow, c.now()) {
		if sess != nil {
			if err := c.store.Delete(ctx, ev.UserID); err != nil {
				return nil, fmt.Errorf("delete expired session: %w", err)
			}
		}
		c.send(ctx, ev.UserID, msgEditClosed, nil)
		return nil, ErrEditUnavailable
	}
	return sess, nil
}

// HandleEdit shows the finished brief with resend, revise and cancel buttons.
func (c *Controller) HandleEdit(ctx context.Context, ev Event) error {
	sess, err := c.reviewable(ctx, ev)
	if err != nil {
		return err
	}

	editMode := true
	if err := c.store.Update(ctx, sess.UserID, domain.SessionPatch{EditMode: &editMode}); err != nil {
		return fmt.Errorf("enter edit mode: %w", err)
	}

	kb := &Keyboard{}
	kb.row(Button{Text: btnResend, Data: payloadResend})
	kb.row(Button{Text: btnRevise, Data: payloadRevise})
	kb.row(Button{Text: btnCancel, Data: payloadCancel})
	c.send(ctx, sess.UserID, RenderBrief(c.graph, sess, false), nil)
	c.send(ctx, sess.UserID, msgEditPreview, kb)
	return nil
}

// HandleRevise reopens the questions of a finished brief at the terminal
// step. The session keeps its number, so completing it again re-delivers.
func (c *Controller) HandleRevise(ctx context.Context, ev Event) error {
	sess, err := c.reviewable(ctx, ev)
	if err != nil {
		return err
	}

	sess.Stage = domain.StageActive
	sess.EditMode = true
	sess.CompletedAt = nil
	sess.CurrentStep = c.graph.TerminalID()
	if err := c.store.Set(ctx, sess); err != nil {
		return fmt.Errorf("reopen session: %w", err)
	}
	return c.show(ctx, ev, sess, sess.CurrentStep)
}

// HandleResend re-delivers the finished brief under its existing number.
func (c *Controller) HandleResend(ctx context.Context, ev Event) error {
	sess, err := c.reviewable(ctx, ev)
	if err != nil {
		return err
	}
	sess.EditMode = true
	return c.finalize(ctx, sess)
}

// HandleCancel drops the session without sending anything further.
func (c *Controller) HandleCancel(ctx context.Context, ev Event) error {
	sess, err := c.store.Get(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := c.store.Delete(ctx, ev.UserID); err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}

	msg := msgCancelledWiz
	if sess != nil && sess.InReview() {
		msg = msgCancelled
	}
	c.send(ctx, ev.UserID, msg, nil)
	return nil
}

// showReview reminds a user whose brief is already sent. Inside the edit
// window the edit button is offered again; afterwards the session is dropped.
func (c *Controller) showReview(ctx context.Context, sess *domain.Session) error {
	number := html.EscapeString(sess.BriefNumber)
	if sess.ReviewExpired(c.editWindow, c.now()) {
		if err := c.store.Delete(ctx, sess.UserID); err != nil {
			return fmt.Errorf("delete expired session: %w", err)
		}
		c.send(ctx, sess.UserID, fmt.Sprintf(msgAlreadySent, number)+"\n"+msgNoSession, nil)
		return nil
	}

	kb := &Keyboard{}
	kb.row(Button{Text: btnEdit, Data: payloadEdit}, Button{Text: btnCancel, Data: payloadCancel})
	c.send(ctx, sess.UserID, fmt.Sprintf(msgAlreadySent, number), kb)
	return nil
}
