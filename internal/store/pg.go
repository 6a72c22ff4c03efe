package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/store/schema"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	// resultBatchSize keeps bulk inserts well under PostgreSQL's
	// 65535-parameter limit (customer_results has ~25 columns)
	resultBatchSize = 2000
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Open connects to PostgreSQL with exponential backoff, giving the database
// up to connectTimeout to become reachable before failing
func Open(ctx context.Context, dsn string, connectTimeout time.Duration) (*gorm.DB, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = connectTimeout

	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		return sqlDB.PingContext(ctx)
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the snapshot tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Run{},
		&schema.CustomerResult{},
		&schema.SegmentSummary{},
		&schema.CohortRetention{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

func (s *pgStore) SaveRun(ctx context.Context, result *domain.RunResult) error {
	run, err := runToSchema(result)
	if err != nil {
		return domain.NewStageError(domain.StagePersist, result.RunID, err)
	}

	customerRows := make([]schema.CustomerResult, 0, len(result.Customers))
	for _, cr := range result.Customers {
		customerRows = append(customerRows, customerResultToSchema(result.RunID, cr))
	}
	segmentRows := make([]schema.SegmentSummary, 0, len(result.Segments))
	for _, ss := range result.Segments {
		segmentRows = append(segmentRows, segmentSummaryToSchema(result.RunID, ss))
	}
	cohortRows := make([]schema.CohortRetention, 0, len(result.Cohorts))
	for _, cr := range result.Cohorts {
		cohortRows = append(cohortRows, cohortRetentionToSchema(result.RunID, cr))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if len(customerRows) > 0 {
			if err := tx.CreateInBatches(customerRows, resultBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create customer results: %w", err)
			}
		}
		if len(segmentRows) > 0 {
			if err := tx.Create(segmentRows).Error; err != nil {
				return fmt.Errorf("failed to create segment summaries: %w", err)
			}
		}
		if len(cohortRows) > 0 {
			if err := tx.CreateInBatches(cohortRows, resultBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create cohort retentions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewStageError(domain.StagePersist, result.RunID, err)
	}
	return nil
}

// GetRun retrieves the run header. The Customers, Segments and Cohorts
// slices are left empty; callers page through them with the list methods.
func (s *pgStore) GetRun(ctx context.Context, runID string) (*domain.RunResult, error) {
	var run schema.Run
	err := s.db.WithContext(ctx).
		Where("id = ?", runID).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return runFromSchema(&run)
}

func (s *pgStore) GetLatestRun(ctx context.Context) (*domain.RunResult, error) {
	var run schema.Run
	err := s.db.WithContext(ctx).
		Order("generated_at DESC, id DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runFromSchema(&run)
}

func (s *pgStore) ListCustomerResults(ctx context.Context, runID string, filter CustomerResultFilter) ([]domain.CustomerResult, uint64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := s.db.WithContext(ctx).
		Model(&schema.CustomerResult{}).
		Where("run_id = ?", runID)
	if filter.Segment != "" {
		query = query.Where("segment = ?", filter.Segment)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer results: %w", err)
	}

	var rows []schema.CustomerResult
	err := query.
		Order("customer_id ASC").
		Limit(limit).
		Offset(int(filter.Offset)).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customer results: %w", err)
	}

	results := make([]domain.CustomerResult, 0, len(rows))
	for i := range rows {
		results = append(results, customerResultFromSchema(&rows[i]))
	}
	return results, uint64(total), nil
}

func (s *pgStore) GetSegmentSummaries(ctx context.Context, runID string) ([]domain.SegmentSummary, error) {
	var rows []schema.SegmentSummary
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get segment summaries: %w", err)
	}

	summaries := make([]domain.SegmentSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, segmentSummaryFromSchema(&rows[i]))
	}
	return summaries, nil
}

func (s *pgStore) GetCohortRetention(ctx context.Context, runID string) ([]domain.CohortRetention, error) {
	var rows []schema.CohortRetention
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("cohort_id ASC, period_offset ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cohort retention: %w", err)
	}

	cohorts := make([]domain.CohortRetention, 0, len(rows))
	for _, row := range rows {
		cohorts = append(cohorts, domain.CohortRetention{
			CohortID:      row.CohortID,
			PeriodOffset:  row.PeriodOffset,
			CohortSize:    row.CohortSize,
			RetainedCount: row.RetainedCount,
			RetentionRate: row.RetentionRate,
		})
	}
	return cohorts, nil
}

func (s *pgStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var rows []schema.Transaction
	err := s.db.WithContext(ctx).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, domain.Transaction{
			ID:              row.ID,
			CustomerID:      row.CustomerID,
			Timestamp:       row.Timestamp,
			Amount:          row.Amount,
			ProductCategory: row.ProductCategory,
		})
	}
	return txs, nil
}

func (s *pgStore) LoadCustomers(ctx context.Context) ([]domain.Customer, error) {
	var rows []schema.Customer
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, domain.Customer{
			ID:               row.ID,
			Name:             row.Name,
			RegistrationDate: row.RegistrationDate,
			Location:         row.Location,
		})
	}
	return customers, nil
}

func runToSchema(result *domain.RunResult) (*schema.Run, error) {
	freqJSON, err := json.Marshal(result.Boundaries.Frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frequency boundaries: %w", err)
	}
	monJSON, err := json.Marshal(result.Boundaries.Monetary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal monetary boundaries: %w", err)
	}

	return &schema.Run{
		ID:                  result.RunID,
		AsOf:                result.Params.AsOf,
		LookbackDays:        result.Params.LookbackDays,
		Granularity:         string(result.Params.Granularity),
		HorizonYears:        result.Params.HorizonYears,
		CustomerCount:       len(result.Customers),
		FrequencyBoundaries: string(freqJSON),
		MonetaryBoundaries:  string(monJSON),
		GeneratedAt:         result.GeneratedAt,
	}, nil
}

func runFromSchema(run *schema.Run) (*domain.RunResult, error) {
	var boundaries domain.QuantileBoundaries
	if run.FrequencyBoundaries != "" {
		if err := json.Unmarshal([]byte(run.FrequencyBoundaries), &boundaries.Frequency); err != nil {
			return nil, fmt.Errorf("failed to unmarshal frequency boundaries: %w", err)
		}
	}
	if run.MonetaryBoundaries != "" {
		if err := json.Unmarshal([]byte(run.MonetaryBoundaries), &boundaries.Monetary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal monetary boundaries: %w", err)
		}
	}

	return &domain.RunResult{
		RunID: run.ID,
		Params: domain.RunParams{
			AsOf:         run.AsOf,
			LookbackDays: run.LookbackDays,
			Granularity:  domain.CohortGranularity(run.Granularity),
			HorizonYears: run.HorizonYears,
		},
		GeneratedAt: run.GeneratedAt,
		Boundaries:  boundaries,
	}, nil
}

func customerResultToSchema(runID string, cr domain.CustomerResult) schema.CustomerResult {
	return schema.CustomerResult{
		RunID:             runID,
		CustomerID:        cr.CustomerID,
		RecencyDays:       cr.Profile.RecencyDays,
		Frequency:         cr.Profile.Frequency,
		Monetary:          cr.Profile.Monetary,
		AvgOrderValue:     cr.Profile.AvgOrderValue,
		LifespanDays:      cr.Profile.LifespanDays,
		ActivePeriods:     cr.Profile.ActivePeriods,
		CategoryDiversity: cr.Profile.CategoryDiversity,
		SpendVolatility:   cr.Profile.SpendVolatility,
		RecencyScore:      cr.Score.Recency,
		FrequencyScore:    cr.Score.Frequency,
		MonetaryScore:     cr.Score.Monetary,
		Segment:           string(cr.Assignment.Segment),
		ValueTier:         string(cr.Assignment.ValueTier),
		EngagementLevel:   string(cr.Assignment.EngagementLevel),
		ChurnRisk:         string(cr.Assignment.ChurnRisk),
		BusinessPriority:  string(cr.Assignment.BusinessPriority),
		HistoricalValue:   cr.Forecast.HistoricalValue,
		PredictedValue:    cr.Forecast.PredictedValue,
		RiskMultiplier:    cr.Forecast.RiskMultiplier,
		RiskAdjustedValue: cr.Forecast.RiskAdjustedValue,
		LTVTier:           string(cr.Forecast.Tier),
	}
}

func customerResultFromSchema(row *schema.CustomerResult) domain.CustomerResult {
	return domain.CustomerResult{
		CustomerID: row.CustomerID,
		Profile: domain.RFMProfile{
			CustomerID:        row.CustomerID,
			RecencyDays:       row.RecencyDays,
			Frequency:         row.Frequency,
			Monetary:          row.Monetary,
			AvgOrderValue:     row.AvgOrderValue,
			LifespanDays:      row.LifespanDays,
			ActivePeriods:     row.ActivePeriods,
			CategoryDiversity: row.CategoryDiversity,
			SpendVolatility:   row.SpendVolatility,
		},
		Score: domain.RFMScore{
			Recency:   row.RecencyScore,
			Frequency: row.FrequencyScore,
			Monetary:  row.MonetaryScore,
		},
		Assignment: domain.SegmentAssignment{
			CustomerID:       row.CustomerID,
			Segment:          domain.Segment(row.Segment),
			ValueTier:        domain.ValueTier(row.ValueTier),
			EngagementLevel:  domain.EngagementLevel(row.EngagementLevel),
			ChurnRisk:        domain.ChurnRisk(row.ChurnRisk),
			BusinessPriority: domain.BusinessPriority(row.BusinessPriority),
		},
		Forecast: domain.LTVForecast{
			CustomerID:        row.CustomerID,
			HistoricalValue:   row.HistoricalValue,
			PredictedValue:    row.PredictedValue,
			RiskMultiplier:    row.RiskMultiplier,
			RiskAdjustedValue: row.RiskAdjustedValue,
			Tier:              domain.LTVTier(row.LTVTier),
		},
	}
}

func segmentSummaryToSchema(runID string, ss domain.SegmentSummary) schema.SegmentSummary {
	return schema.SegmentSummary{
		RunID:             runID,
		Segment:           string(ss.Segment),
		BusinessPriority:  string(ss.Priority),
		CustomerCount:     ss.CustomerCount,
		PopulationShare:   ss.PopulationShare,
		TotalMonetary:     ss.TotalMonetary,
		AvgMonetary:       ss.AvgMonetary,
		AvgRecencyScore:   ss.AvgRecencyScore,
		AvgFrequencyScore: ss.AvgFrequencyScore,
		AvgMonetaryScore:  ss.AvgMonetaryScore,
		ChurnRiskShare:    ss.ChurnRiskShare,
		EngagedShare:      ss.EngagedShare,
	}
}

func segmentSummaryFromSchema(row *schema.SegmentSummary) domain.SegmentSummary {
	return domain.SegmentSummary{
		Segment:           domain.Segment(row.Segment),
		Priority:          domain.BusinessPriority(row.BusinessPriority),
		CustomerCount:     row.CustomerCount,
		PopulationShare:   row.PopulationShare,
		TotalMonetary:     row.TotalMonetary,
		AvgMonetary:       row.AvgMonetary,
		AvgRecencyScore:   row.AvgRecencyScore,
		AvgFrequencyScore: row.AvgFrequencyScore,
		AvgMonetaryScore:  row.AvgMonetaryScore,
		ChurnRiskShare:    row.ChurnRiskShare,
		EngagedShare:      row.EngagedShare,
	}
}

func cohortRetentionToSchema(runID string, cr domain.CohortRetention) schema.CohortRetention {
	return schema.CohortRetention{
		RunID:         runID,
		CohortID:      cr.CohortID,
		PeriodOffset:  cr.PeriodOffset,
		CohortSize:    cr.CohortSize,
		RetainedCount: cr.RetainedCount,
		RetentionRate: cr.RetentionRate,
	}
}
