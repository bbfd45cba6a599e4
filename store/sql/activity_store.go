package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityStore persists one row per proxied vendor call.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*activityRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	vendor := strings.TrimSpace(string(entry.Vendor))
	if vendor == "" {
		return fmt.Errorf("sqlstore: activity vendor is required")
	}
	occurredAt := entry.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	record := &activityRecord{
		ID:         uuid.NewString(),
		Vendor:     vendor,
		Operation:  strings.TrimSpace(entry.Operation),
		Method:     strings.ToUpper(strings.TrimSpace(entry.Method)),
		Host:       strings.ToLower(strings.TrimSpace(entry.Host)),
		Path:       stripQuery(entry.Path),
		StatusCode: entry.StatusCode,
		Outcome:    strings.TrimSpace(string(entry.Outcome)),
		DurationMS: entry.Duration.Milliseconds(),
		TextCode:   strings.TrimSpace(entry.TextCode),
		Metadata:   core.RedactSensitiveMap(entry.Metadata),
		OccurredAt: occurredAt,
	}
	if record.Operation == "" {
		record.Operation = "proxy"
	}
	if record.Outcome == "" {
		record.Outcome = string(core.ActivityOutcomeSuccess)
	}

	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *ActivityStore) ListActivity(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	page, perPage := core.PageBounds(filter.Page, filter.PerPage)
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("occurred_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if vendor := strings.TrimSpace(string(filter.Vendor)); vendor != "" {
		selectors = append(selectors, repository.SelectBy("vendor", "=", vendor))
	}
	if outcome := strings.TrimSpace(string(filter.Outcome)); outcome != "" {
		selectors = append(selectors, repository.SelectBy("outcome", "=", outcome))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, err
	}
	items := make([]core.ActivityRecord, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.ActivityPage{Items: items, Pagination: core.NewPagination(page, perPage, total)}, nil
}

// Prune applies the TTL first, then trims the oldest rows above RowCap.
func (s *ActivityStore) Prune(ctx context.Context, policy core.ActivityRetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: activity store is not configured")
	}
	deleted := 0
	now := time.Now().UTC()

	if policy.TTL > 0 {
		cutoff := now.Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*activityRecord)(nil)).
			Where("occurred_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*activityRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM vendor_activity WHERE id IN (SELECT id FROM vendor_activity ORDER BY occurred_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func stripQuery(path string) string {
	path = strings.TrimSpace(path)
	if index := strings.IndexAny(path, "?#"); index >= 0 {
		path = path[:index]
	}
	return path
}
