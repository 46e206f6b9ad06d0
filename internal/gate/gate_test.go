package gate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) bool { return false }

type banEverything struct{}

func (banEverything) IsBanned(context.Context, string, string, []string) bool { return true }

type rejectCaptcha struct{}

func (rejectCaptcha) Verify(context.Context, string) bool { return false }

func TestCheckAcceptsValidSubmission(t *testing.T) {
	g := New(4000)

	failures, err := g.Check(context.Background(), Submission{
		Author: "alice",
		Body:   "a perfectly ordinary comment",
		Origin: "203.0.113.7",
	}, "ses-1", nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestCheckRejectsEmptyBody(t *testing.T) {
	g := New(4000)

	failures, err := g.Check(context.Background(), Submission{Body: "   "}, "ses-1", nil)
	require.NoError(t, err)
	assert.Contains(t, failures, "body must not be empty")
}

func TestCheckRejectsOverlongBody(t *testing.T) {
	g := New(10)

	failures, err := g.Check(context.Background(), Submission{
		Body: strings.Repeat("x", 11),
	}, "ses-1", nil)
	require.NoError(t, err)
	assert.Contains(t, failures, "body exceeds 10 characters")
}

func TestCheckCountsRunesNotBytes(t *testing.T) {
	g := New(10)

	// Ten multi-byte runes are within a ten-rune budget.
	failures, err := g.Check(context.Background(), Submission{
		Body: strings.Repeat("ü", 10),
	}, "ses-1", nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestCheckRejectsOverlongAuthor(t *testing.T) {
	g := New(4000)

	failures, err := g.Check(context.Background(), Submission{
		Author: strings.Repeat("a", 81),
		Body:   "fine body",
	}, "ses-1", nil)
	require.NoError(t, err)
	assert.Contains(t, failures, "author name is too long")
}

func TestCheckHoneypotTripsRejection(t *testing.T) {
	g := New(4000)

	failures, err := g.Check(context.Background(), Submission{
		Body:    "fine body",
		Website: "http://spam.example",
	}, "ses-1", nil)
	require.NoError(t, err)
	assert.Contains(t, failures, "submission rejected")
}

func TestCheckRateLimited(t *testing.T) {
	g := New(4000, WithRateLimiter(denyLimiter{}))

	_, err := g.Check(context.Background(), Submission{Body: "fine"}, "ses-1", nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCheckBanned(t *testing.T) {
	g := New(4000, WithBanChecker(banEverything{}))

	_, err := g.Check(context.Background(), Submission{Body: "fine"}, "ses-1", nil)
	assert.ErrorIs(t, err, ErrBanned)
}

func TestCheckCaptchaFailure(t *testing.T) {
	g := New(4000, WithCaptchaVerifier(rejectCaptcha{}))

	failures, err := g.Check(context.Background(), Submission{Body: "fine"}, "ses-1", nil)
	require.NoError(t, err)
	assert.Contains(t, failures, "captcha verification failed")
}

func TestValidateBody(t *testing.T) {
	g := New(10)

	assert.Empty(t, g.ValidateBody("short"))
	assert.Contains(t, g.ValidateBody(""), "body must not be empty")
	assert.Contains(t, g.ValidateBody(strings.Repeat("x", 11)), "body exceeds 10 characters")
}
