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

type CompanyStore struct {
	db   *bun.DB
	repo repository.Repository[*companyRecord]
}

func NewCompanyStore(db *bun.DB) (*CompanyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*companyRecord](db, companyHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid company repository wiring: %w", err)
		}
	}
	return &CompanyStore{db: db, repo: repo}, nil
}

func (s *CompanyStore) SaveCompany(ctx context.Context, in core.SaveCompanyInput) (core.SavedCompany, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.SavedCompany{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	source, externalID := recordIdentity(in.Company.Source, in.Company.ID)
	now := time.Now().UTC()

	var saved core.SavedCompany
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &companyRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.source = ?", source).
			Where("?TableAlias.external_id = ?", externalID).
			Limit(1).
			Scan(ctx)
		switch {
		case err == nil:
			existing.apply(in.Company, in.Notes)
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

		record := &companyRecord{
			ID:         uuid.NewString(),
			Source:     source,
			ExternalID: externalID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		record.apply(in.Company, in.Notes)
		created, err := s.repo.CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}
		saved = created.toDomain()
		return nil
	})
	if err != nil {
		return core.SavedCompany{}, err
	}
	return saved, nil
}

func (s *CompanyStore) GetCompany(ctx context.Context, id string) (core.SavedCompany, error) {
	if s == nil || s.db == nil {
		return core.SavedCompany{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	record := &companyRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SavedCompany{}, core.NotFoundError("company not found", map[string]any{"id": id})
		}
		return core.SavedCompany{}, err
	}
	return record.toDomain(), nil
}

func (s *CompanyStore) ListCompanies(ctx context.Context, filter core.RecordFilter) (core.SavedCompanyPage, error) {
	if s == nil || s.repo == nil {
		return core.SavedCompanyPage{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	page, perPage := filter.Bounds()
	selectors := listSelectors(filter.Query, page, perPage, "name", "domain", "industry")

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.SavedCompanyPage{}, err
	}
	items := make([]core.SavedCompany, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.SavedCompanyPage{Items: items, Pagination: core.NewPagination(page, perPage, total)}, nil
}

func (s *CompanyStore) DeleteCompany(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: company store is not configured")
	}
	return deleteByID(ctx, s.db, (*companyRecord)(nil), "company", id)
}
