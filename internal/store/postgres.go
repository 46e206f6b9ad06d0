package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const commentColumns = `id, legacy_id, page_id, parent_id, author, body, origin_address, edit_token, status, is_privileged_author, created_at, updated_at`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var item Comment
	var parentID sql.NullString
	var updatedAt sql.NullTime
	err := row.Scan(
		&item.ID,
		&item.LegacyID,
		&item.PageID,
		&parentID,
		&item.Author,
		&item.Body,
		&item.OriginAddress,
		&item.EditToken,
		&item.Status,
		&item.IsPrivilegedAuthor,
		&item.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return Comment{}, err
	}
	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		item.UpdatedAt = &t
	}
	return item, nil
}

// CreateComment inserts the row and fills in the store-assigned legacy id and
// creation timestamp. The caller assigns ID, EditToken and Status.
func (s *PostgresStore) CreateComment(ctx context.Context, item Comment) (Comment, error) {
	var parentID any
	if item.ParentID != nil {
		parentID = *item.ParentID
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (id, page_id, parent_id, author, body, origin_address, edit_token, status, is_privileged_author)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING legacy_id, created_at
	`, item.ID, item.PageID, parentID, item.Author, item.Body, item.OriginAddress, item.EditToken, item.Status, item.IsPrivilegedAuthor).
		Scan(&item.LegacyID, &item.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, commentID)
	return scanComment(row)
}

// UpdateCommentBody replaces the body and stamps updated_at. When resetStatus
// is true the comment returns to the pending queue; admin edits keep the
// prior status.
func (s *PostgresStore) UpdateCommentBody(ctx context.Context, commentID, body string, resetStatus bool) (Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE comments
		SET body=$2,
		    updated_at=NOW(),
		    status=CASE WHEN $3 THEN 'pending' ELSE status END
		WHERE id=$1
		RETURNING `+commentColumns+`
	`, commentID, body, resetStatus)
	return scanComment(row)
}

func (s *PostgresStore) SetCommentStatus(ctx context.Context, commentID, status string) (Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE comments SET status=$2 WHERE id=$1
		RETURNING `+commentColumns+`
	`, commentID, status)
	return scanComment(row)
}

// DeleteComment removes a single row. Children are left in place on purpose;
// reconstruction surfaces them as roots.
func (s *PostgresStore) DeleteComment(ctx context.Context, commentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListApprovedForPage(ctx context.Context, pageID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE page_id=$1 AND status='approved'
		ORDER BY created_at ASC, id ASC
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		item, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) CountApprovedRoots(ctx context.Context, pageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM comments
		WHERE page_id=$1 AND parent_id IS NULL AND status='approved'
	`, pageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count roots: %w", err)
	}
	return count, nil
}

// ListApprovedRootIDs returns one pagination window of root comment ids,
// oldest first. Ties on created_at fall back to id order, which is itself
// creation-ordered.
func (s *PostgresStore) ListApprovedRootIDs(ctx context.Context, pageID string, offset, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM comments
		WHERE page_id=$1 AND parent_id IS NULL AND status='approved'
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, pageID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list root ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan root id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate root ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) GetPage(ctx context.Context, pageID string) (Page, error) {
	var item Page
	var tags string
	err := s.db.QueryRowContext(ctx, `SELECT id, title, tags, created_at FROM pages WHERE id=$1`, pageID).
		Scan(&item.ID, &item.Title, &tags, &item.CreatedAt)
	if err != nil {
		return Page{}, err
	}
	item.Tags = splitTags(tags)
	return item, nil
}

func (s *PostgresStore) EnsurePage(ctx context.Context, item Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, title, tags)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, item.ID, item.Title, joinTags(item.Tags))
	if err != nil {
		return fmt.Errorf("ensure page: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetStaffByUsername(ctx context.Context, username string) (Staff, error) {
	var item Staff
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at FROM staff WHERE username=$1
	`, username).Scan(&item.ID, &item.Username, &item.PasswordHash, &item.Role, &item.CreatedAt)
	if err != nil {
		return Staff{}, err
	}
	return item, nil
}

func (s *PostgresStore) EnsureStaff(ctx context.Context, item Staff) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
	`, item.ID, item.Username, item.PasswordHash, item.Role)
	if err != nil {
		return fmt.Errorf("ensure staff: %w", err)
	}
	return nil
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
