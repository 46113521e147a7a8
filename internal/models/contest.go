package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Contest tiers control who may see and join a contest.
const (
	ContestTierNormal = "NORMAL"
	ContestTierVIP    = "VIP"
)

// Contest statuses describe where a contest sits in its temporal lifecycle.
const (
	ContestStatusUpcoming = "UPCOMING"
	ContestStatusOngoing  = "ONGOING"
	ContestStatusEnded    = "ENDED"
)

// Question types supported by the grader.
const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeMultiChoice  = "multi_choice"
	QuestionTypeTrueFalse    = "true_false"
)

// Contest represents a timed multiple-choice contest with an embedded question set.
type Contest struct {
	ID                  uint                          `gorm:"primaryKey" json:"id"`
	Name                string                        `gorm:"size:255;not null" json:"name"`
	Description         string                        `gorm:"type:text" json:"description"`
	Tier                string                        `gorm:"size:16;not null;default:NORMAL" json:"tier"`
	StartTime           time.Time                     `gorm:"not null" json:"start_time"`
	EndTime             time.Time                     `gorm:"not null" json:"end_time"`
	Prize               string                        `gorm:"type:text" json:"prize"`
	Questions           datatypes.JSONSlice[Question] `gorm:"type:json" json:"questions"`
	MaxParticipants     int                           `gorm:"not null" json:"max_participants"`
	CurrentParticipants int                           `gorm:"not null;default:0" json:"current_participants"`
	Status              string                        `gorm:"size:16;not null;default:UPCOMING" json:"status"`
	StatusOverride      bool                          `gorm:"not null;default:false" json:"status_override"`
	IsActive            bool                          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time                     `json:"created_at"`
	UpdatedAt           time.Time                     `json:"updated_at"`
}

// Question is an embedded sub-document owned by exactly one contest.
type Question struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []Option `json:"options"`
	Points  int      `json:"points"`
}

// Option is a single answer choice within a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// DeriveStatus computes the natural status of the contest at the given instant.
func (c Contest) DeriveStatus(now time.Time) string {
	switch {
	case now.Before(c.StartTime):
		return ContestStatusUpcoming
	case now.After(c.EndTime):
		return ContestStatusEnded
	default:
		return ContestStatusOngoing
	}
}

// EffectiveStatus returns the stored status when an administrative override is
// in effect, otherwise the time-derived status. Joins, submissions and listings
// must consult this value, never the raw timestamps alone.
func (c Contest) EffectiveStatus(now time.Time) string {
	if c.StatusOverride {
		return c.Status
	}
	return c.DeriveStatus(now)
}

// CanMutateFull reports whether schedule and content fields may still change.
func (c Contest) CanMutateFull(now time.Time) bool {
	return now.Before(c.StartTime)
}

// CanMutateQuestions shares the pre-open rule with CanMutateFull.
func (c Contest) CanMutateQuestions(now time.Time) bool {
	return c.CanMutateFull(now)
}

// CanDelete reports whether the contest may be removed. Contests with any
// participation history are never deleted, regardless of time.
func (c Contest) CanDelete(participationCount int64) bool {
	return participationCount == 0
}

// ValidStatus reports whether the value is one of the enumerated statuses.
func ValidStatus(status string) bool {
	switch status {
	case ContestStatusUpcoming, ContestStatusOngoing, ContestStatusEnded:
		return true
	}
	return false
}

// CorrectOptionIndices returns the indices of the options flagged correct.
func (q Question) CorrectOptionIndices() []int {
	indices := make([]int, 0, len(q.Options))
	for i, option := range q.Options {
		if option.IsCorrect {
			indices = append(indices, i)
		}
	}
	return indices
}

// Validate enforces the per-question invariants. It runs at contest creation
// and again on every question edit.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question text must not be empty")
	}

	switch q.Type {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeTrueFalse:
	default:
		return fmt.Errorf("unsupported question type %q", q.Type)
	}

	if len(q.Options) < 2 {
		return fmt.Errorf("question requires at least two options")
	}

	if q.Type == QuestionTypeTrueFalse && len(q.Options) != 2 {
		return fmt.Errorf("true/false question requires exactly two options")
	}

	if q.Points < 1 {
		return fmt.Errorf("question points must be at least 1")
	}

	correct := len(q.CorrectOptionIndices())
	if correct == 0 {
		return fmt.Errorf("question requires at least one correct option")
	}

	if q.Type != QuestionTypeMultiChoice && correct != 1 {
		return fmt.Errorf("%s question requires exactly one correct option", q.Type)
	}

	for i, option := range q.Options {
		if option.Text == "" {
			return fmt.Errorf("option %d text must not be empty", i)
		}
	}

	return nil
}
