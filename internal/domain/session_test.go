package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBriefNumber(t *testing.T) {
	cases := map[int64]string{
		1:    "BRF-001",
		7:    "BRF-007",
		128:  "BRF-128",
		1000: "BRF-1000",
	}
	for n, want := range cases {
		assert.Equal(t, want, FormatBriefNumber(n))
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("u1", "site_type", Profile{UserID: "u1"})
	s.Record("features", SetAnswer([]string{"a", "b"}))
	s.Pending = []string{"x"}

	c := s.Clone()
	c.Answers["features"].Values[0] = "changed"
	c.Pending[0] = "y"
	c.Record("budget", TextAnswer("1"))

	assert.Equal(t, "a", s.Answers["features"].Values[0])
	assert.Equal(t, "x", s.Pending[0])
	assert.False(t, s.Answered("budget"))
}

func TestReviewExpired(t *testing.T) {
	now := time.Now()
	completed := now.Add(-10 * time.Minute)
	s := &Session{Stage: StageReview, CompletedAt: &completed}

	assert.False(t, s.ReviewExpired(15*time.Minute, now))
	assert.True(t, s.ReviewExpired(5*time.Minute, now))
	assert.True(t, s.ReviewExpired(0, now))
}

func TestSessionPatchApply(t *testing.T) {
	s := NewSession("u1", "a", Profile{})
	step := "b"
	edit := true
	SessionPatch{CurrentStep: &step, EditMode: &edit}.Apply(s)

	assert.Equal(t, "b", s.CurrentStep)
	assert.True(t, s.EditMode)
	assert.Equal(t, StageActive, s.Stage)
}

func TestProfileHandle(t *testing.T) {
	assert.Equal(t, "", Profile{}.Handle())
	assert.Equal(t, "@dias", Profile{Username: "dias"}.Handle())
	assert.Equal(t, "Ann Lee", Profile{FirstName: "Ann", LastName: "Lee"}.FullName())
}
