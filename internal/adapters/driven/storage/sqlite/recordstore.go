package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Ensure recordStore implements the interface.
var _ driven.RecordStore = (*recordStore)(nil)

type recordStore struct {
	store *Store
}

const recordColumns = `account_id, id, kind, post_id, ts_sec, ts_nsec, caption,
	likes, comments, shares, saves, impressions, reach, follower_count,
	audience_gender, audience_age, location, permalink, hashtags,
	media_type, source_format, updated_at`

// Upsert writes each record in its own transaction under the dedup policy.
// A failed record is reported and the batch continues.
func (s *recordStore) Upsert(ctx context.Context, records []domain.CanonicalRecord) (domain.UpsertReport, error) {
	var report domain.UpsertReport

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	for i := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		candidate := &records[i]
		if err := candidate.Validate(); err != nil {
			report.Fail(candidate.Key, fmt.Errorf("%w: %w", domain.ErrStoreWriteFailed, err))
			continue
		}

		decision, err := s.upsertOne(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Fail(candidate.Key, fmt.Errorf("%w: %s: %w", domain.ErrStoreWriteFailed, candidate.Key, err))
			continue
		}
		report.Record(decision)
	}
	return report, nil
}

func (s *recordStore) upsertOne(ctx context.Context, candidate *domain.CanonicalRecord) (domain.Decision, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE account_id = ? AND id = ?`,
		candidate.Key.AccountID, candidate.Key.ID)

	var existing *domain.CanonicalRecord
	prev, err := scanRecord(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, err
	default:
		existing = prev
	}

	decision, rec, write := domain.Plan(candidate, existing)
	if !write {
		return decision, nil
	}
	rec.UpdatedAt = time.Now().UTC()

	hashtags, err := marshalHashtags(rec.Hashtags)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, id) DO UPDATE SET
			kind = excluded.kind,
			post_id = excluded.post_id,
			ts_sec = excluded.ts_sec,
			ts_nsec = excluded.ts_nsec,
			caption = excluded.caption,
			likes = excluded.likes,
			comments = excluded.comments,
			shares = excluded.shares,
			saves = excluded.saves,
			impressions = excluded.impressions,
			reach = excluded.reach,
			follower_count = excluded.follower_count,
			audience_gender = excluded.audience_gender,
			audience_age = excluded.audience_age,
			location = excluded.location,
			permalink = excluded.permalink,
			hashtags = excluded.hashtags,
			media_type = excluded.media_type,
			source_format = excluded.source_format,
			updated_at = excluded.updated_at
	`, rec.Key.AccountID, rec.Key.ID, string(rec.Key.Kind), rec.PostID,
		rec.Timestamp.Unix(), rec.Timestamp.Nanosecond(), rec.Caption,
		rec.Metrics.Likes, rec.Metrics.Comments, rec.Metrics.Shares,
		rec.Metrics.Saves, rec.Metrics.Impressions, rec.Metrics.Reach,
		rec.FollowerCount, rec.AudienceGender, rec.AudienceAge,
		rec.Location, rec.Permalink, hashtags,
		string(rec.MediaType), string(rec.SourceFormat), rec.UpdatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("saving record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return decision, nil
}

// Get retrieves a record by key.
func (s *recordStore) Get(ctx context.Context, key domain.IdentityKey) (*domain.CanonicalRecord, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE account_id = ? AND id = ?`,
		key.AccountID, key.ID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Scan returns matching records, newest first.
func (s *recordStore) Scan(ctx context.Context, filter domain.QuerySpec) ([]domain.CanonicalRecord, error) {
	filter = filter.Normalise()

	var (
		where []string
		args  []any
	)
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "(ts_sec, ts_nsec) >= (?, ?)")
		args = append(args, filter.Since.Unix(), filter.Since.Nanosecond())
	}
	if !filter.Until.IsZero() {
		where = append(where, "(ts_sec, ts_nsec) < (?, ?)")
		args = append(args, filter.Until.Unix(), filter.Until.Nanosecond())
	}
	if filter.MediaType != "" {
		where = append(where, "media_type = ?")
		args = append(args, string(filter.MediaType))
	}
	if filter.Format != "" {
		where = append(where, "source_format = ?")
		args = append(args, string(filter.Format))
	}
	if filter.Hashtag != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM json_each(records.hashtags)
			WHERE json_extract(json_each.value, '$.normalised') = ?)`)
		args = append(args, filter.Hashtag)
	}

	query := `SELECT ` + recordColumns + ` FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts_sec DESC, ts_nsec DESC, account_id || '/' || id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []domain.CanonicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *recordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.CanonicalRecord, error) {
	var (
		rec       domain.CanonicalRecord
		kind      string
		tsSec     int64
		tsNsec    int64
		hashtags  string
		media     string
		format    string
		updatedAt int64
	)
	err := row.Scan(&rec.Key.AccountID, &rec.Key.ID, &kind, &rec.PostID, &tsSec, &tsNsec, &rec.Caption,
		&rec.Metrics.Likes, &rec.Metrics.Comments, &rec.Metrics.Shares,
		&rec.Metrics.Saves, &rec.Metrics.Impressions, &rec.Metrics.Reach,
		&rec.FollowerCount, &rec.AudienceGender, &rec.AudienceAge,
		&rec.Location, &rec.Permalink, &hashtags, &media, &format, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	rec.Key.Kind = domain.IdentityKind(kind)
	rec.AccountID = rec.Key.AccountID
	rec.Timestamp = time.Unix(tsSec, tsNsec).UTC()
	rec.MediaType = domain.MediaType(media)
	rec.SourceFormat = domain.SourceFormat(format)
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()

	if err := json.Unmarshal([]byte(hashtags), &rec.Hashtags); err != nil {
		return nil, fmt.Errorf("unmarshaling hashtags: %w", err)
	}
	if len(rec.Hashtags) == 0 {
		rec.Hashtags = nil
	}
	return &rec, nil
}

func marshalHashtags(tags []domain.Hashtag) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshalling hashtags: %w", err)
	}
	return string(b), nil
}
