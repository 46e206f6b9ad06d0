package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"codex/api/internal/auth"
	"codex/api/internal/authpw"
	"codex/api/internal/config"
	"codex/api/internal/events"
	"codex/api/internal/gate"
	"codex/api/internal/rbac"
	"codex/api/internal/session"
	"codex/api/internal/store"
	"codex/api/internal/thread"
	"codex/api/internal/util"

	"github.com/sirupsen/logrus"
)

type dataStore interface {
	GetPage(ctx context.Context, pageID string) (store.Page, error)
	EnsurePage(ctx context.Context, page store.Page) error
	CreateComment(ctx context.Context, comment store.Comment) (store.Comment, error)
	GetComment(ctx context.Context, commentID string) (store.Comment, error)
	UpdateCommentBody(ctx context.Context, commentID, body string, resetStatus bool) (store.Comment, error)
	SetCommentStatus(ctx context.Context, commentID, status string) (store.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	ListApprovedForPage(ctx context.Context, pageID string) ([]store.Comment, error)
	CountApprovedRoots(ctx context.Context, pageID string) (int, error)
	ListApprovedRootIDs(ctx context.Context, pageID string, offset, limit int) ([]string, error)
	GetStaffByUsername(ctx context.Context, username string) (store.Staff, error)
	EnsureStaff(ctx context.Context, staff store.Staff) error
	Ping(ctx context.Context) error
}

type tokenStore interface {
	Grant(ctx context.Context, sessionID, commentID, token string) error
	Authorize(ctx context.Context, sessionID, commentID string, legacyID int64, want string) (bool, error)
	Revoke(ctx context.Context, sessionID, commentID string, legacyID int64) error
	Ping(ctx context.Context) error
}

// Actor is the resolved identity of a request: the visitor session that may
// hold edit tokens, plus staff name and role when a staff token was
// presented.
type Actor struct {
	SessionID string
	Name      string
	Role      rbac.Role
}

func (a Actor) isAdmin() bool {
	return a.Role == rbac.RoleAdmin
}

type Service struct {
	cfg    config.Config
	store  dataStore
	tokens tokenStore
	gate   *gate.Gate
	events events.Emitter
	staff  *authpw.Service
	log    *logrus.Logger
}

func New(cfg config.Config, dataStore *store.PostgresStore, tokens *session.EditTokenStore, g *gate.Gate, emitter events.Emitter, log *logrus.Logger) *Service {
	return newService(cfg, dataStore, tokens, g, emitter, log)
}

func newService(cfg config.Config, ds dataStore, tokens tokenStore, g *gate.Gate, emitter events.Emitter, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	if g == nil {
		g = gate.New(cfg.MaxCommentLength)
	}
	return &Service{
		cfg:    cfg,
		store:  ds,
		tokens: tokens,
		gate:   g,
		events: emitter,
		staff:  authpw.NewService(ds),
		log:    log,
	}
}

// Bootstrap seeds the first staff account and a welcome page so a fresh
// install is usable immediately. Both writes are idempotent.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.cfg.AdminUser != "" && s.cfg.AdminPassword != "" {
		hash, err := authpw.HashPassword(s.cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		if err := s.store.EnsureStaff(ctx, store.Staff{
			ID:           util.NewID("stf"),
			Username:     s.cfg.AdminUser,
			PasswordHash: hash,
			Role:         string(rbac.RoleAdmin),
		}); err != nil {
			return err
		}
	}

	return s.store.EnsurePage(ctx, store.Page{
		ID:    "welcome",
		Title: "Welcome to Codex",
		Tags:  []string{"meta"},
	})
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.tokens != nil {
		if err := s.tokens.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// StaffLogin verifies credentials and issues a signed staff token.
func (s *Service) StaffLogin(ctx context.Context, username, password string) (string, store.Staff, time.Time, error) {
	staff, err := s.staff.SignIn(ctx, authpw.SignInRequest{Username: username, Password: password})
	if err != nil {
		return "", store.Staff{}, time.Time{}, err
	}

	expiresAt := time.Now().Add(s.cfg.StaffTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  staff.ID,
		Name: staff.Username,
		Role: staff.Role,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return "", store.Staff{}, time.Time{}, err
	}
	return token, staff, expiresAt, nil
}

// StaffFromToken resolves a bearer token into staff identity fields.
func (s *Service) StaffFromToken(token string) (string, rbac.Role, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return "", rbac.RoleVisitor, err
	}
	return claims.Name, rbac.Normalize(claims.Role), nil
}

type SubmitInput struct {
	PageID       string
	ParentID     string
	Author       string
	Body         string
	Website      string
	CaptchaToken string
	Origin       string
}

// SubmitComment runs the admission gate, applies the moderation initial-state
// rule, stores the comment and grants its edit token to the submitting
// session.
func (s *Service) SubmitComment(ctx context.Context, actor Actor, input SubmitInput) (store.Comment, error) {
	page, err := s.store.GetPage(ctx, input.PageID)
	if err != nil {
		return store.Comment{}, err
	}

	identity := actor.SessionID
	if identity == "" {
		identity = input.Origin
	}
	failures, err := s.gate.Check(ctx, gate.Submission{
		Author:       input.Author,
		Body:         input.Body,
		Website:      input.Website,
		CaptchaToken: input.CaptchaToken,
		Origin:       input.Origin,
	}, identity, page.Tags)
	if errors.Is(err, gate.ErrRateLimited) {
		return store.Comment{}, domainError(http.StatusTooManyRequests, "RATE_LIMITED", "Too many submissions, slow down", nil)
	}
	if errors.Is(err, gate.ErrBanned) {
		return store.Comment{}, domainError(http.StatusForbidden, "FORBIDDEN", "Submissions from this address are not accepted", nil)
	}
	if err != nil {
		return store.Comment{}, err
	}
	if len(failures) > 0 {
		return store.Comment{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Submission failed validation", failures)
	}

	var parentID *string
	if input.ParentID != "" {
		parent, err := s.store.GetComment(ctx, input.ParentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && parent.PageID != input.PageID) {
			return store.Comment{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Submission failed validation", []string{"parent comment not found on this page"})
		}
		if err != nil {
			return store.Comment{}, err
		}
		parentID = &parent.ID
	}

	author := strings.TrimSpace(input.Author)
	if author == "" && actor.Name != "" {
		author = actor.Name
	}

	privileged := rbac.Privileged(actor.Role)
	created, err := s.store.CreateComment(ctx, store.Comment{
		ID:                 util.NewID("cmt"),
		PageID:             page.ID,
		ParentID:           parentID,
		Author:             author,
		Body:               input.Body,
		OriginAddress:      input.Origin,
		EditToken:          util.NewSecret(),
		Status:             store.InitialStatus(privileged),
		IsPrivilegedAuthor: privileged,
	})
	if err != nil {
		return store.Comment{}, err
	}

	if actor.SessionID != "" {
		if err := s.tokens.Grant(ctx, actor.SessionID, created.ID, created.EditToken); err != nil {
			return store.Comment{}, err
		}
	}

	s.events.Emit(ctx, events.Event{
		Kind:          events.KindCreated,
		PageID:        created.PageID,
		CommentID:     created.ID,
		Author:        created.Author,
		BodyPreview:   events.Preview(created.Body),
		Status:        created.Status,
		OriginAddress: created.OriginAddress,
	})
	return created, nil
}

// EditComment replaces a comment's body. Non-admin edits require a matching
// session edit token and send the comment back through the pending queue.
func (s *Service) EditComment(ctx context.Context, actor Actor, commentID, newBody string) (store.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return store.Comment{}, err
	}

	if err := s.authorize(ctx, actor, comment); err != nil {
		return store.Comment{}, err
	}

	if failures := s.gate.ValidateBody(newBody); len(failures) > 0 {
		return store.Comment{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Edit failed validation", failures)
	}

	updated, err := s.store.UpdateCommentBody(ctx, commentID, newBody, !actor.isAdmin())
	if err != nil {
		return store.Comment{}, err
	}

	s.events.Emit(ctx, events.Event{
		Kind:          events.KindEdited,
		PageID:        updated.PageID,
		CommentID:     updated.ID,
		Author:        updated.Author,
		BodyPreview:   events.Preview(updated.Body),
		Status:        updated.Status,
		OriginAddress: updated.OriginAddress,
	})
	return updated, nil
}

// DeleteComment removes a single comment. Deleting a missing comment is a
// no-op, not an error. Children are never cascaded; orphans surface as roots
// on their next reconstruction.
func (s *Service) DeleteComment(ctx context.Context, actor Actor, commentID string) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, actor, comment); err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	if actor.SessionID != "" {
		if err := s.tokens.Revoke(ctx, actor.SessionID, comment.ID, comment.LegacyID); err != nil {
			s.log.WithError(err).WithField("comment_id", comment.ID).Warn("failed to revoke edit token")
		}
	}

	s.events.Emit(ctx, events.Event{
		Kind:          events.KindDeleted,
		PageID:        comment.PageID,
		CommentID:     comment.ID,
		Author:        comment.Author,
		BodyPreview:   events.Preview(comment.Body),
		Status:        comment.Status,
		OriginAddress: comment.OriginAddress,
	})
	return nil
}

// ModerateComment applies a moderator status transition, body untouched.
func (s *Service) ModerateComment(ctx context.Context, actor Actor, commentID, status string) (store.Comment, error) {
	if !rbac.Can(actor.Role, rbac.ActionModerate) {
		return store.Comment{}, domainError(http.StatusForbidden, "FORBIDDEN", "Moderator access required", nil)
	}
	if !store.ValidStatus(status) {
		return store.Comment{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown status", []string{"status must be pending, approved or rejected"})
	}

	updated, err := s.store.SetCommentStatus(ctx, commentID, status)
	if err != nil {
		return store.Comment{}, err
	}

	s.events.Emit(ctx, events.Event{
		Kind:          events.KindModerated,
		PageID:        updated.PageID,
		CommentID:     updated.ID,
		Author:        updated.Author,
		BodyPreview:   events.Preview(updated.Body),
		Status:        updated.Status,
		OriginAddress: updated.OriginAddress,
	})
	return updated, nil
}

// authorize enforces the ownership rule: admins pass unconditionally,
// everyone else must hold a session edit token matching the stored one
// (legacy-keyed entries are accepted and migrated by the token store).
func (s *Service) authorize(ctx context.Context, actor Actor, comment store.Comment) error {
	if actor.isAdmin() {
		return nil
	}
	if actor.SessionID == "" {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Not the comment owner", nil)
	}
	ok, err := s.tokens.Authorize(ctx, actor.SessionID, comment.ID, comment.LegacyID, comment.EditToken)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Not the comment owner", nil)
	}
	return nil
}

// RenderedComment is one node of the payload handed to the presentation
// layer. Edit tokens and origin addresses are deliberately absent.
type RenderedComment struct {
	ID                 string            `json:"id"`
	LegacyID           int64             `json:"legacyId"`
	Author             string            `json:"author,omitempty"`
	Body               string            `json:"body"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          *time.Time        `json:"updatedAt,omitempty"`
	IsPrivilegedAuthor bool              `json:"isPrivilegedAuthor"`
	Depth              int               `json:"depth"`
	Children           []RenderedComment `json:"children"`
}

type RenderPayload struct {
	PageID      string            `json:"pageId"`
	Roots       []RenderedComment `json:"roots"`
	Page        int               `json:"page"`
	PerPage     int               `json:"perPage"`
	Total       int               `json:"total"`
	HasPrevious bool              `json:"hasPrevious"`
	HasNext     bool              `json:"hasNext"`
}

// PageComments returns one paginated window of fully reconstructed threads.
// The read is computed fresh on every request; there is no cache to
// invalidate and the result reflects whatever has committed at query time.
func (s *Service) PageComments(ctx context.Context, pageID string, requestedPage int) (RenderPayload, error) {
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return RenderPayload{}, err
	}

	total, err := s.store.CountApprovedRoots(ctx, page.ID)
	if err != nil {
		return RenderPayload{}, err
	}
	window := thread.PageWindow(total, requestedPage, s.cfg.CommentsPerPage)

	rootIDs, err := s.store.ListApprovedRootIDs(ctx, page.ID, window.Offset, window.PerPage)
	if err != nil {
		return RenderPayload{}, err
	}
	comments, err := s.store.ListApprovedForPage(ctx, page.ID)
	if err != nil {
		return RenderPayload{}, err
	}

	forest, warnings := thread.Build(comments, rootIDs)
	for _, warning := range warnings {
		s.log.WithFields(logrus.Fields{
			"page_id":    page.ID,
			"comment_id": warning.CommentID,
			"problem":    warning.Problem,
		}).Warn("comment thread integrity anomaly")
	}

	return RenderPayload{
		PageID:      page.ID,
		Roots:       renderNodes(forest),
		Page:        window.Page,
		PerPage:     window.PerPage,
		Total:       total,
		HasPrevious: window.HasPrevious,
		HasNext:     window.HasNext,
	}, nil
}

func renderNodes(nodes []*thread.Node) []RenderedComment {
	rendered := make([]RenderedComment, 0, len(nodes))
	for _, node := range nodes {
		rendered = append(rendered, RenderedComment{
			ID:                 node.Comment.ID,
			LegacyID:           node.Comment.LegacyID,
			Author:             node.Comment.Author,
			Body:               node.Comment.Body,
			CreatedAt:          node.Comment.CreatedAt,
			UpdatedAt:          node.Comment.UpdatedAt,
			IsPrivilegedAuthor: node.Comment.IsPrivilegedAuthor,
			Depth:              node.Depth,
			Children:           renderNodes(node.Children),
		})
	}
	return rendered
}
