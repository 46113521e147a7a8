package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// ContestFilter narrows contest listing queries.
type ContestFilter struct {
	Tiers           []string
	IncludeInactive bool
}

// ContestRepository defines data operations for contests.
type ContestRepository interface {
	List(ctx context.Context, filter ContestFilter) ([]models.Contest, error)
	GetByID(ctx context.Context, id uint) (models.Contest, error)
	Create(ctx context.Context, contest *models.Contest) error
	Update(ctx context.Context, contest *models.Contest, fields ...string) error
	UpdateStatus(ctx context.Context, id uint, status string, override bool) error
	Deactivate(ctx context.Context, id uint) error
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository instantiates the repository.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) List(ctx context.Context, filter ContestFilter) ([]models.Contest, error) {
	query := r.db.WithContext(ctx).Model(&models.Contest{})

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if len(filter.Tiers) > 0 {
		query = query.Where("tier IN ?", filter.Tiers)
	}

	var contests []models.Contest
	if err := query.Order("start_time ASC").Find(&contests).Error; err != nil {
		return nil, err
	}

	return contests, nil
}

func (r *contestRepository) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	var contest models.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		return models.Contest{}, err
	}

	return contest, nil
}

func (r *contestRepository) Create(ctx context.Context, contest *models.Contest) error {
	return r.db.WithContext(ctx).Create(contest).Error
}

// Update writes only the named columns. current_participants is owned by the
// join transaction and must never pass through here, or a concurrent join
// would be overwritten with the stale value the caller read.
func (r *contestRepository) Update(ctx context.Context, contest *models.Contest, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(contest).Select(fields).Updates(contest)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contestRepository) UpdateStatus(ctx context.Context, id uint, status string, override bool) error {
	result := r.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"status_override": override,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *contestRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Contest{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
