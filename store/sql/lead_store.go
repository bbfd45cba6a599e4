package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-vendorgate/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LeadStore keeps one row per (source, external_id); saving the same vendor
// record again updates it in place.
type LeadStore struct {
	db   *bun.DB
	repo repository.Repository[*leadRecord]
}

func NewLeadStore(db *bun.DB) (*LeadStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*leadRecord](db, leadHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid lead repository wiring: %w", err)
		}
	}
	return &LeadStore{db: db, repo: repo}, nil
}

func (s *LeadStore) SaveLead(ctx context.Context, in core.SaveLeadInput) (core.SavedLead, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.SavedLead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	source, externalID := recordIdentity(in.Lead.Source, in.Lead.ID)
	now := time.Now().UTC()

	var saved core.SavedLead
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &leadRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.source = ?", source).
			Where("?TableAlias.external_id = ?", externalID).
			Limit(1).
			Scan(ctx)
		switch {
		case err == nil:
			existing.apply(in.Lead, in.Notes)
			existing.UpdatedAt = now
			if _, err := tx.NewUpdate().Model(existing).WherePK().Exec(ctx); err != nil {
				return err
			}
			saved = existing.toDomain()
			return nil
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		record := &leadRecord{
			ID:         uuid.NewString(),
			Source:     source,
			ExternalID: externalID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		record.apply(in.Lead, in.Notes)
		created, err := s.repo.CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}
		saved = created.toDomain()
		return nil
	})
	if err != nil {
		return core.SavedLead{}, err
	}
	return saved, nil
}

func (s *LeadStore) GetLead(ctx context.Context, id string) (core.SavedLead, error) {
	if s == nil || s.db == nil {
		return core.SavedLead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	record := &leadRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SavedLead{}, core.NotFoundError("lead not found", map[string]any{"id": id})
		}
		return core.SavedLead{}, err
	}
	return record.toDomain(), nil
}

func (s *LeadStore) ListLeads(ctx context.Context, filter core.RecordFilter) (core.SavedLeadPage, error) {
	if s == nil || s.repo == nil {
		return core.SavedLeadPage{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	page, perPage := filter.Bounds()
	selectors := listSelectors(filter.Query, page, perPage, "name", "email", "company", "title")

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.SavedLeadPage{}, err
	}
	items := make([]core.SavedLead, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.SavedLeadPage{Items: items, Pagination: core.NewPagination(page, perPage, total)}, nil
}

func (s *LeadStore) DeleteLead(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: lead store is not configured")
	}
	return deleteByID(ctx, s.db, (*leadRecord)(nil), "lead", id)
}

// recordIdentity falls back to a random external id when the vendor record
// has none, so such records are never merged.
func recordIdentity(source, externalID string) (string, string) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = "manual"
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		externalID = uuid.NewString()
	}
	return source, externalID
}

func listSelectors(query string, page, perPage int, columns ...string) []repository.SelectCriteria {
	selectors := []repository.SelectCriteria{
		repository.OrderBy("updated_at DESC"),
		repository.SelectPaginate(perPage, (page-1)*perPage),
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(columns) == 0 {
		return selectors
	}
	pattern := "%" + escapeLike(query) + "%"
	selectors = append(selectors, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for i, column := range columns {
				clause := "LOWER(?TableAlias." + column + ") LIKE ? ESCAPE '\\'"
				if i == 0 {
					q = q.Where(clause, pattern)
					continue
				}
				q = q.WhereOr(clause, pattern)
			}
			return q
		})
	}))
	return selectors
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func deleteByID(ctx context.Context, db bun.IDB, model any, kind string, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.BadRequestError(kind+" id is required", nil)
	}
	res, err := db.NewDelete().Model(model).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return core.NotFoundError(kind+" not found", map[string]any{"id": id})
	}
	return nil
}
