package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserCodeValidBoundary(t *testing.T) {
	exp := time.Date(2026, 8, 1, 10, 15, 0, 0, time.UTC)
	u := &User{VerificationCode: "123456", CodeExpiresAt: &exp}

	assert.True(t, u.CodeValid("123456", exp.Add(-time.Millisecond)))
	assert.False(t, u.CodeValid("123456", exp), "expiry instant itself is rejected")
	assert.False(t, u.CodeValid("123456", exp.Add(time.Millisecond)))
	assert.False(t, u.CodeValid("654321", exp.Add(-time.Minute)))

	cleared := &User{}
	assert.False(t, cleared.CodeValid("123456", exp.Add(-time.Minute)))
}

func TestUserIsLocked(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)

	assert.False(t, (&User{}).IsLocked(now))
	assert.True(t, (&User{LockUntil: &until}).IsLocked(now))
	assert.False(t, (&User{LockUntil: &until}).IsLocked(until), "lock expires at its boundary")
}

func TestProgressPercentage(t *testing.T) {
	p := &UserProgress{CompletedLessons: []string{"a", "b"}}
	assert.InDelta(t, 50.0, p.Percentage(4), 0.001)
	assert.Zero(t, p.Percentage(0), "no lessons means zero, not a division error")
	assert.Zero(t, ZeroProgress("u", "c").Percentage(10))
}

func TestCourseSubTopicCount(t *testing.T) {
	c := &Course{Topics: []Topic{
		{SubTopics: []SubTopic{{ID: "a"}, {ID: "b"}}},
		{SubTopics: []SubTopic{{ID: "c"}}},
		{},
	}}
	assert.Equal(t, 3, c.SubTopicCount())
	assert.Zero(t, (&Course{}).SubTopicCount())
}
