package reports

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peoplefi/campaign-portal/campaign-portal-backend/internal/reports/dashboard"
	"peoplefi/campaign-portal/campaign-portal-backend/internal/reports/export"
)

const (
	statsCacheKey      = "stats"
	fundingCachePrefix = "funding:"
)

var investmentColumns = []string{"investor_id", "amount", "invested_at", "share_percent"}

// Service provides business logic for reporting operations
type Service struct {
	repo   Repository
	cache  *dashboard.AggregateCache
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new reports service. cache may be nil to disable
// caching.
func NewService(repo Repository, cache *dashboard.AggregateCache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// GetPlatformStats returns platform wide funding totals
func (s *Service) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	v, err := s.cached(statsCacheKey, func() (interface{}, error) {
		stats, err := s.repo.GetPlatformStats(ctx)
		if err != nil {
			return nil, err
		}
		stats.GeneratedAt = s.now().UTC()
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PlatformStats), nil
}

// GetCampaignFunding returns one campaign's funding summary
func (s *Service) GetCampaignFunding(ctx context.Context, campaignID uuid.UUID) (*CampaignFunding, error) {
	v, err := s.cached(fundingCachePrefix+campaignID.String(), func() (interface{}, error) {
		funding, err := s.repo.GetCampaignFunding(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		funding.HeldAmount = funding.RaisedAmount - funding.ReleasedAmount
		if funding.GoalAmount > 0 {
			funding.FundedPercent = percent(funding.RaisedAmount, funding.GoalAmount)
		}
		return funding, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CampaignFunding), nil
}

// ExportInvestments writes the campaign's investment ledger to w and
// returns the content type of what was written.
func (s *Service) ExportInvestments(ctx context.Context, campaignID uuid.UUID, format ExportFormat, w io.Writer) (string, error) {
	if format != ExportFormatCSV && format != ExportFormatExcel {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	rows, err := s.repo.ListInvestmentRows(ctx, campaignID)
	if err != nil {
		return "", err
	}
	var total int64
	for _, r := range rows {
		total += r.Amount
	}
	table := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		table = append(table, []interface{}{r.InvestorID, r.Amount, r.InvestedAt, percent(r.Amount, total)})
	}

	switch format {
	case ExportFormatExcel:
		opts := export.DefaultExcelOptions()
		opts.SheetName = "Investments"
		exporter, err := export.NewExcelExporter(opts)
		if err != nil {
			return "", err
		}
		if err := exporter.Export(w, investmentColumns, table); err != nil {
			return "", err
		}
		s.logger.Info("investments exported", zap.String("campaign_id", campaignID.String()), zap.String("format", string(format)), zap.Int("rows", len(rows)))
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		if err := export.NewCSVExporter(w, export.DefaultCSVOptions()).Export(investmentColumns, table); err != nil {
			return "", err
		}
		s.logger.Info("investments exported", zap.String("campaign_id", campaignID.String()), zap.String("format", string(format)), zap.Int("rows", len(rows)))
		return "text/csv", nil
	}
}

// Invalidate drops the cached funding summary for campaignID and the
// platform totals it feeds into.
func (s *Service) Invalidate(campaignID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.DeleteByPrefix(fundingCachePrefix + campaignID.String())
	s.cache.Delete(statsCacheKey)
}

// CampaignChanged lets the service observe campaign writes
func (s *Service) CampaignChanged(campaignID uuid.UUID) {
	s.Invalidate(campaignID)
}

// CacheStats reports cache usage, or zero values when caching is off
func (s *Service) CacheStats() dashboard.CacheStats {
	if s.cache == nil {
		return dashboard.CacheStats{}
	}
	return s.cache.Stats()
}

func (s *Service) cached(key string, compute func() (interface{}, error)) (interface{}, error) {
	if s.cache == nil {
		return compute()
	}
	return s.cache.GetOrSet(key, compute)
}

// percent rounds part/whole to two decimals
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
