package services

import (
	"context"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/repositories"
)

// ArchiveService is the read-only view over locked snapshots.
type ArchiveService struct {
	Snapshots SnapshotStore
}

type ArchivePage struct {
	Items      []models.Snapshot `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}

func (s ArchiveService) List(ctx context.Context, f repositories.ArchiveFilter, p domain.Pagination) (ArchivePage, error) {
	var err error
	if f.From != "" {
		if f.From, err = domain.NormalizePayDate(f.From); err != nil {
			return ArchivePage{}, domain.ValidationError{Field: "from", Msg: "must be YYYY-MM-DD"}
		}
	}
	if f.To != "" {
		if f.To, err = domain.NormalizePayDate(f.To); err != nil {
			return ArchivePage{}, domain.ValidationError{Field: "to", Msg: "must be YYYY-MM-DD"}
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return ArchivePage{}, domain.ValidationError{Field: "from", Msg: "must not be after to"}
	}
	if f.MinPercent.Valid && f.MaxPercent.Valid && f.MinPercent.Decimal.GreaterThan(f.MaxPercent.Decimal) {
		return ArchivePage{}, domain.ValidationError{Field: "min_percent", Msg: "must not exceed max_percent"}
	}

	items, page, err := s.Snapshots.Archive(ctx, f, p)
	if err != nil {
		return ArchivePage{}, err
	}
	return ArchivePage{Items: items, Pagination: page}, nil
}
