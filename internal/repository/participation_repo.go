package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// ErrCapacityExceeded signals that the contest participant counter could not be
// incremented because the contest is full.
var ErrCapacityExceeded = errors.New("contest capacity exceeded")

// ErrAlreadyFinalized signals that a participation has already been scored and
// its answer set is immutable.
var ErrAlreadyFinalized = errors.New("participation already finalized")

// ParticipationRepository defines data operations for participations.
type ParticipationRepository interface {
	GetByUserAndContest(ctx context.Context, userID, contestID uint) (models.Participation, error)
	CreateWithinCapacity(ctx context.Context, participation *models.Participation) error
	FinalizeSubmission(ctx context.Context, participation *models.Participation) error
	ListCompleted(ctx context.Context, contestID uint, limit int) ([]models.Participation, error)
	ListByUser(ctx context.Context, userID uint, contestIDs []uint) ([]models.Participation, error)
	CountAhead(ctx context.Context, contestID uint, score int, submittedAt time.Time) (int64, error)
	CountByContest(ctx context.Context, contestID uint) (int64, error)
}

type participationRepository struct {
	db *gorm.DB
}

// NewParticipationRepository instantiates the repository.
func NewParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

func (r *participationRepository) GetByUserAndContest(ctx context.Context, userID, contestID uint) (models.Participation, error) {
	var participation models.Participation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("contest_id = ?", contestID).
		First(&participation).Error; err != nil {
		return models.Participation{}, err
	}

	return participation, nil
}

// CreateWithinCapacity performs the join as a single atomic unit: the
// capacity-guarded counter increment and the participation insert either both
// apply or neither does. The unique (user_id, contest_id) index surfaces
// concurrent duplicate joins as gorm.ErrDuplicatedKey and rolls back the
// increment.
func (r *participationRepository) CreateWithinCapacity(ctx context.Context, participation *models.Participation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Contest{}).
			Where("id = ?", participation.ContestID).
			Where("is_active = ?", true).
			Where("current_participants < max_participants").
			UpdateColumn("current_participants", gorm.Expr("current_participants + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCapacityExceeded
		}

		return tx.Create(participation).Error
	})
}

// FinalizeSubmission writes the graded answer set exactly once. The guard on
// is_completed makes a concurrent second submit a no-op that reports
// ErrAlreadyFinalized instead of overwriting the stored score.
func (r *participationRepository) FinalizeSubmission(ctx context.Context, participation *models.Participation) error {
	result := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("id = ?", participation.ID).
		Where("is_completed = ?", false).
		Updates(map[string]interface{}{
			"answers":            participation.Answers,
			"score":              participation.Score,
			"correct_count":      participation.CorrectCount,
			"wrong_count":        participation.WrongCount,
			"is_completed":       true,
			"submitted_at":       participation.SubmittedAt,
			"time_taken_seconds": participation.TimeTakenSeconds,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFinalized
	}

	return nil
}

func (r *participationRepository) ListCompleted(ctx context.Context, contestID uint, limit int) ([]models.Participation, error) {
	query := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("contest_id = ?", contestID).
		Where("is_completed = ?", true).
		Order("score DESC").
		Order("submitted_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var participations []models.Participation
	if err := query.Find(&participations).Error; err != nil {
		return nil, err
	}

	return participations, nil
}

func (r *participationRepository) ListByUser(ctx context.Context, userID uint, contestIDs []uint) ([]models.Participation, error) {
	query := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("user_id = ?", userID)

	if len(contestIDs) > 0 {
		query = query.Where("contest_id IN ?", contestIDs)
	}

	var participations []models.Participation
	if err := query.Find(&participations).Error; err != nil {
		return nil, err
	}

	return participations, nil
}

// CountAhead counts completed participations strictly ahead under the ranking
// rule: higher score, or equal score with an earlier submission.
func (r *participationRepository) CountAhead(ctx context.Context, contestID uint, score int, submittedAt time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("contest_id = ?", contestID).
		Where("is_completed = ?", true).
		Where("score > ? OR (score = ? AND submitted_at < ?)", score, score, submittedAt).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *participationRepository) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Participation{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
