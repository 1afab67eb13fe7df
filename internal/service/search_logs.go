package service

import (
	"context"

	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/repository"
)

const (
	defaultDemandLimit = 50
	maxDemandLimit     = 200
)

// SearchLogService reports on searches that came back nearly empty.
type SearchLogService struct {
	repo repository.SearchLogsRepository
}

// NewSearchLogService creates a new instance of SearchLogService.
func NewSearchLogService(repo repository.SearchLogsRepository) *SearchLogService {
	return &SearchLogService{repo: repo}
}

// Demand aggregates logged searches per query, most frequent first.
func (s *SearchLogService) Demand(ctx context.Context, filter dto.SearchLogFilter) ([]entity.SearchDemand, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultDemandLimit
	}
	if filter.Limit > maxDemandLimit {
		filter.Limit = maxDemandLimit
	}

	demand, err := s.repo.Demand(ctx, filter)
	if err != nil {
		return nil, err
	}
	if demand == nil {
		demand = []entity.SearchDemand{}
	}
	return demand, nil
}
