package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// memoryStore backs contest and participation repositories with one shared
// mutex so the capacity increment and the participation insert stay atomic,
// mirroring the transactional store behavior.
type memoryStore struct {
	mu             sync.Mutex
	contests       map[uint]models.Contest
	participations []models.Participation
	nextContestID  uint
	nextPartID     uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{contests: make(map[uint]models.Contest)}
}

func (m *memoryStore) addContest(contest models.Contest) models.Contest {
	m.mu.Lock()
	defer m.mu.Unlock()

	if contest.ID == 0 {
		m.nextContestID++
		contest.ID = m.nextContestID
	} else if contest.ID > m.nextContestID {
		m.nextContestID = contest.ID
	}
	m.contests[contest.ID] = contest
	return contest
}

func (m *memoryStore) addParticipation(participation models.Participation) models.Participation {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPartID++
	participation.ID = m.nextPartID
	m.participations = append(m.participations, participation)
	return participation
}

func (m *memoryStore) List(ctx context.Context, filter repository.ContestFilter) ([]models.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	contests := make([]models.Contest, 0, len(m.contests))
	for _, contest := range m.contests {
		if !filter.IncludeInactive && !contest.IsActive {
			continue
		}
		if len(filter.Tiers) > 0 && !containsString(filter.Tiers, contest.Tier) {
			continue
		}
		contests = append(contests, contest)
	}

	sort.Slice(contests, func(i, j int) bool {
		return contests[i].StartTime.Before(contests[j].StartTime)
	})
	return contests, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	contest, ok := m.contests[id]
	if !ok {
		return models.Contest{}, gorm.ErrRecordNotFound
	}
	return contest, nil
}

func (m *memoryStore) Create(ctx context.Context, contest *models.Contest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextContestID++
	contest.ID = m.nextContestID
	contest.CreatedAt = time.Now()
	contest.UpdatedAt = contest.CreatedAt
	m.contests[contest.ID] = *contest
	return nil
}

func (m *memoryStore) Update(ctx context.Context, contest *models.Contest, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.contests[contest.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	for _, field := range fields {
		switch field {
		case "name":
			stored.Name = contest.Name
		case "description":
			stored.Description = contest.Description
		case "tier":
			stored.Tier = contest.Tier
		case "prize":
			stored.Prize = contest.Prize
		case "start_time":
			stored.StartTime = contest.StartTime
		case "end_time":
			stored.EndTime = contest.EndTime
		case "max_participants":
			stored.MaxParticipants = contest.MaxParticipants
		case "questions":
			stored.Questions = contest.Questions
		case "status":
			stored.Status = contest.Status
		}
	}
	stored.UpdatedAt = time.Now()
	m.contests[contest.ID] = stored
	return nil
}

func (m *memoryStore) UpdateStatus(ctx context.Context, id uint, status string, override bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contest, ok := m.contests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contest.Status = status
	contest.StatusOverride = override
	m.contests[id] = contest
	return nil
}

func (m *memoryStore) Deactivate(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contest, ok := m.contests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contest.IsActive = false
	m.contests[id] = contest
	return nil
}

func (m *memoryStore) GetByUserAndContest(ctx context.Context, userID, contestID uint) (models.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, participation := range m.participations {
		if participation.UserID == userID && participation.ContestID == contestID {
			return participation, nil
		}
	}
	return models.Participation{}, gorm.ErrRecordNotFound
}

func (m *memoryStore) CreateWithinCapacity(ctx context.Context, participation *models.Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contest, ok := m.contests[participation.ContestID]
	if !ok || !contest.IsActive || contest.CurrentParticipants >= contest.MaxParticipants {
		return repository.ErrCapacityExceeded
	}

	for _, existing := range m.participations {
		if existing.UserID == participation.UserID && existing.ContestID == participation.ContestID {
			return gorm.ErrDuplicatedKey
		}
	}

	contest.CurrentParticipants++
	m.contests[contest.ID] = contest

	m.nextPartID++
	participation.ID = m.nextPartID
	m.participations = append(m.participations, *participation)
	return nil
}

func (m *memoryStore) FinalizeSubmission(ctx context.Context, participation *models.Participation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.participations {
		if existing.ID != participation.ID {
			continue
		}
		if existing.IsCompleted {
			return repository.ErrAlreadyFinalized
		}

		existing.Answers = participation.Answers
		existing.Score = participation.Score
		existing.CorrectCount = participation.CorrectCount
		existing.WrongCount = participation.WrongCount
		existing.IsCompleted = true
		existing.SubmittedAt = participation.SubmittedAt
		existing.TimeTakenSeconds = participation.TimeTakenSeconds
		m.participations[i] = existing
		return nil
	}
	return repository.ErrAlreadyFinalized
}

func (m *memoryStore) ListCompleted(ctx context.Context, contestID uint, limit int) ([]models.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	completed := make([]models.Participation, 0, len(m.participations))
	for _, participation := range m.participations {
		if participation.ContestID == contestID && participation.IsCompleted {
			completed = append(completed, participation)
		}
	}

	sort.Slice(completed, func(i, j int) bool {
		if completed[i].Score != completed[j].Score {
			return completed[i].Score > completed[j].Score
		}
		return completed[i].SubmittedAt.Before(*completed[j].SubmittedAt)
	})

	if limit > 0 && len(completed) > limit {
		completed = completed[:limit]
	}
	return completed, nil
}

func (m *memoryStore) ListByUser(ctx context.Context, userID uint, contestIDs []uint) ([]models.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]models.Participation, 0, len(m.participations))
	for _, participation := range m.participations {
		if participation.UserID != userID {
			continue
		}
		if len(contestIDs) > 0 && !containsUint(contestIDs, participation.ContestID) {
			continue
		}
		matched = append(matched, participation)
	}
	return matched, nil
}

func (m *memoryStore) CountAhead(ctx context.Context, contestID uint, score int, submittedAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, participation := range m.participations {
		if participation.ContestID != contestID || !participation.IsCompleted || participation.SubmittedAt == nil {
			continue
		}
		if participation.Score > score || (participation.Score == score && participation.SubmittedAt.Before(submittedAt)) {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, participation := range m.participations {
		if participation.ContestID == contestID {
			count++
		}
	}
	return count, nil
}

type memoryPrizeRepo struct {
	mu      sync.Mutex
	records []models.PrizeRecord
	nextID  uint
}

func (m *memoryPrizeRepo) CreateBatch(ctx context.Context, records []models.PrizeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		if m.holds(record.ContestID, record.UserID) {
			continue
		}
		m.nextID++
		record.ID = m.nextID
		m.records = append(m.records, record)
	}
	return nil
}

func (m *memoryPrizeRepo) ListByContest(ctx context.Context, contestID uint) ([]models.PrizeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]models.PrizeRecord, 0, len(m.records))
	for _, record := range m.records {
		if record.ContestID == contestID {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Rank < matched[j].Rank })
	return matched, nil
}

func (m *memoryPrizeRepo) GetByUserAndContest(ctx context.Context, contestID, userID uint) (models.PrizeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.ContestID == contestID && record.UserID == userID {
			return record, nil
		}
	}
	return models.PrizeRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryPrizeRepo) CountByContest(ctx context.Context, contestID uint) (int64, error) {
	records, _ := m.ListByContest(ctx, contestID)
	return int64(len(records)), nil
}

func (m *memoryPrizeRepo) MarkAwarded(ctx context.Context, contestID, userID uint, awardedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, record := range m.records {
		if record.ContestID != contestID || record.UserID != userID || record.Status != models.PrizeStatusPending {
			continue
		}
		record.Status = models.PrizeStatusAwarded
		record.AwardedAt = &awardedAt
		m.records[i] = record
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryPrizeRepo) holds(contestID, userID uint) bool {
	for _, record := range m.records {
		if record.ContestID == contestID && record.UserID == userID {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func containsUint(values []uint, target uint) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
