package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// PrizeRepository defines data operations for prize records.
type PrizeRepository interface {
	CreateBatch(ctx context.Context, records []models.PrizeRecord) error
	ListByContest(ctx context.Context, contestID uint) ([]models.PrizeRecord, error)
	GetByUserAndContest(ctx context.Context, contestID, userID uint) (models.PrizeRecord, error)
	CountByContest(ctx context.Context, contestID uint) (int64, error)
	MarkAwarded(ctx context.Context, contestID, userID uint, awardedAt time.Time) error
}

type prizeRepository struct {
	db *gorm.DB
}

// NewPrizeRepository instantiates the repository.
func NewPrizeRepository(db *gorm.DB) PrizeRepository {
	return &prizeRepository{db: db}
}

// CreateBatch inserts the records, silently skipping (user, contest) pairs that
// already hold a prize so reissuing a leaderboard is idempotent.
func (r *prizeRepository) CreateBatch(ctx context.Context, records []models.PrizeRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contest_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&records).Error
}

func (r *prizeRepository) ListByContest(ctx context.Context, contestID uint) ([]models.PrizeRecord, error) {
	var records []models.PrizeRecord
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("rank ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *prizeRepository) GetByUserAndContest(ctx context.Context, contestID, userID uint) (models.PrizeRecord, error) {
	var record models.PrizeRecord
	if err := r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&record).Error; err != nil {
		return models.PrizeRecord{}, err
	}

	return record, nil
}

func (r *prizeRepository) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PrizeRecord{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// MarkAwarded flips a pending record to awarded. The status guard keeps the
// transition one-way: a record already awarded reports zero affected rows.
func (r *prizeRepository) MarkAwarded(ctx context.Context, contestID, userID uint, awardedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.PrizeRecord{}).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Where("status = ?", models.PrizeStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PrizeStatusAwarded,
			"awarded_at": awardedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
