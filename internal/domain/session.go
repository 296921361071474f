package domain

import (
	"fmt"
	"slices"
	"time"
)

// Stage tells whether a session is still collecting answers or has been
// finalized and is waiting inside the edit window.
type Stage string

const (
	// StageActive is a session waiting on CurrentStep.
	StageActive Stage = "active"
	// StageReview is a finalized session retained for edit-and-resend.
	StageReview Stage = "review"
)

// BriefPrefix is the literal prefix of every brief number.
const BriefPrefix = "BRF-"

// FormatBriefNumber renders a counter value as BRF-NNN. Values wider than
// three digits are printed in full.
func FormatBriefNumber(n int64) string {
	return fmt.Sprintf("%s%03d", BriefPrefix, n)
}

// Answer is a collected value: a single string for single-choice and
// free-text steps, a set of strings for multi-choice steps.
type Answer struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Multi  bool     `json:"multi,omitempty"`
}

// TextAnswer builds a single-valued answer.
func TextAnswer(v string) Answer {
	return Answer{Value: v}
}

// SetAnswer builds a multi-valued answer. The input slice is copied.
func SetAnswer(vs []string) Answer {
	return Answer{Values: slices.Clone(vs), Multi: true}
}

// Session is the persisted per-user wizard state.
type Session struct {
	UserID      string            `json:"user_id"`
	CurrentStep string            `json:"current_step"`
	Answers     map[string]Answer `json:"answers"`
	// Pending holds the selection of the multi-choice step being answered.
	Pending     []string   `json:"pending,omitempty"`
	BriefNumber string     `json:"brief_number,omitempty"`
	EditMode    bool       `json:"edit_mode,omitempty"`
	Stage       Stage      `json:"stage"`
	Profile     Profile    `json:"profile"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewSession returns an empty active session positioned at step.
func NewSession(userID, step string, profile Profile) *Session {
	now := time.Now()
	return &Session{
		UserID:      userID,
		CurrentStep: step,
		Answers:     make(map[string]Answer),
		Stage:       StageActive,
		Profile:     profile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Answered reports whether field has a recorded answer.
func (s *Session) Answered(field string) bool {
	_, ok := s.Answers[field]
	return ok
}

// Record stores an answer under field.
func (s *Session) Record(field string, a Answer) {
	if s.Answers == nil {
		s.Answers = make(map[string]Answer)
	}
	s.Answers[field] = a
}

// AnswerValue returns the single value stored under field, used for routing.
func (s *Session) AnswerValue(field string) string {
	return s.Answers[field].Value
}

// InReview returns true if the session was finalized and kept for editing.
func (s *Session) InReview() bool {
	return s.Stage == StageReview
}

// ReviewExpired reports whether the edit window has elapsed at now.
func (s *Session) ReviewExpired(window time.Duration, now time.Time) bool {
	if s.CompletedAt == nil || window <= 0 {
		return true
	}
	return now.After(s.CompletedAt.Add(window))
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		v.Values = slices.Clone(v.Values)
		c.Answers[k] = v
	}
	c.Pending = slices.Clone(s.Pending)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// SessionPatch is a partial update; nil fields are left unchanged.
type SessionPatch struct {
	CurrentStep *string
	Pending     *[]string
	EditMode    *bool
	Stage       *Stage
}

// Apply writes the non-nil patch fields onto s.
func (p SessionPatch) Apply(s *Session) {
	if p.CurrentStep != nil {
		s.CurrentStep = *p.CurrentStep
	}
	if p.Pending != nil {
		s.Pending = slices.Clone(*p.Pending)
	}
	if p.EditMode != nil {
		s.EditMode = *p.EditMode
	}
	if p.Stage != nil {
		s.Stage = *p.Stage
	}
	s.UpdatedAt = time.Now()
}
