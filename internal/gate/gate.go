// Package gate runs the submission checks that precede any store mutation.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Collaborator interfaces. Real implementations live outside this service;
// the defaults admit everything so the engine can run without them.

type RateLimiter interface {
	Allow(ctx context.Context, identity string) bool
}

type BanChecker interface {
	IsBanned(ctx context.Context, origin, action string, pageTags []string) bool
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) bool            { return true }
func (allowAll) IsBanned(context.Context, string, string, []string) bool { return false }
func (allowAll) Verify(context.Context, string) bool           { return true }

var (
	ErrRateLimited = errors.New("rate limited")
	ErrBanned      = errors.New("submitter is banned")
)

// Submission carries the user-supplied fields of a comment submission.
// Website is a honeypot: humans never see the field, so any value means a
// bot filled the form.
type Submission struct {
	Author       string `validate:"max=80"`
	Body         string `validate:"required"`
	Website      string
	CaptchaToken string
	Origin       string
}

type Gate struct {
	limiter    RateLimiter
	bans       BanChecker
	captcha    CaptchaVerifier
	validate   *validator.Validate
	maxBodyLen int
}

type Option func(*Gate)

func WithRateLimiter(l RateLimiter) Option   { return func(g *Gate) { g.limiter = l } }
func WithBanChecker(b BanChecker) Option     { return func(g *Gate) { g.bans = b } }
func WithCaptchaVerifier(c CaptchaVerifier) Option { return func(g *Gate) { g.captcha = c } }

func New(maxBodyLen int, opts ...Option) *Gate {
	if maxBodyLen <= 0 {
		maxBodyLen = 4000
	}
	g := &Gate{
		limiter:    allowAll{},
		bans:       allowAll{},
		captcha:    allowAll{},
		validate:   validator.New(),
		maxBodyLen: maxBodyLen,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check runs the full admission chain: rate limit, then ban lookup, then
// field validation. Rate-limit and ban denials return an error; validation
// problems are collected into a list so the user can fix them all at once.
// Either way, nothing has touched the store yet.
func (g *Gate) Check(ctx context.Context, sub Submission, identity string, pageTags []string) ([]string, error) {
	if !g.limiter.Allow(ctx, identity) {
		return nil, ErrRateLimited
	}
	if g.bans.IsBanned(ctx, sub.Origin, "comment", pageTags) {
		return nil, ErrBanned
	}
	return g.validateFields(ctx, sub), nil
}

// ValidateBody checks only the body rules; used for edits, which skip the
// admission chain because ownership was already proven.
func (g *Gate) ValidateBody(body string) []string {
	var failures []string
	if strings.TrimSpace(body) == "" {
		failures = append(failures, "body must not be empty")
	}
	if len([]rune(body)) > g.maxBodyLen {
		failures = append(failures, fmt.Sprintf("body exceeds %d characters", g.maxBodyLen))
	}
	return failures
}

func (g *Gate) validateFields(ctx context.Context, sub Submission) []string {
	var failures []string

	if err := g.validate.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				switch fieldErr.Field() {
				case "Author":
					failures = append(failures, "author name is too long")
				case "Body":
					failures = append(failures, "body must not be empty")
				}
			}
		}
	}

	if strings.TrimSpace(sub.Body) == "" && len(failures) == 0 {
		failures = append(failures, "body must not be empty")
	}
	if len([]rune(sub.Body)) > g.maxBodyLen {
		failures = append(failures, fmt.Sprintf("body exceeds %d characters", g.maxBodyLen))
	}
	if sub.Website != "" {
		failures = append(failures, "submission rejected")
	}
	if !g.captcha.Verify(ctx, sub.CaptchaToken) {
		failures = append(failures, "captcha verification failed")
	}
	return failures
}
