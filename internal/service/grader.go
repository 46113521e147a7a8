package service

import (
	"fmt"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// gradeQuestion evaluates one answer against one question. Pure function:
// single_choice and true_false are correct iff the lone selected option is
// flagged correct; multi_choice requires the selected index set to equal the
// correct index set exactly, regardless of order. Points are all-or-nothing.
func gradeQuestion(question models.Question, selected []int) (bool, int) {
	var correct bool

	switch question.Type {
	case models.QuestionTypeMultiChoice:
		correct = sameIndexSet(selected, question.CorrectOptionIndices())
	default:
		correct = len(selected) == 1 && question.Options[selected[0]].IsCorrect
	}

	if !correct {
		return false, 0
	}

	return true, question.Points
}

// gradeAnswers grades a validated answer sheet and returns the populated
// answer records together with the aggregate score and tallies.
func gradeAnswers(questions []models.Question, answers []models.AnswerRecord) ([]models.AnswerRecord, int, int, int) {
	var score, correctCount, wrongCount int

	graded := make([]models.AnswerRecord, len(answers))
	for i, answer := range answers {
		isCorrect, points := gradeQuestion(questions[answer.QuestionIndex], answer.SelectedOptions)
		answer.IsCorrect = isCorrect
		answer.PointsEarned = points
		graded[i] = answer

		score += points
		if isCorrect {
			correctCount++
		} else {
			wrongCount++
		}
	}

	return graded, score, correctCount, wrongCount
}

// validateAnswerSheet checks the structural shape of a submission before any
// grading happens. A single violation rejects the whole sheet; partial grading
// is not permitted.
func validateAnswerSheet(questions []models.Question, answers []models.AnswerRecord) error {
	seen := make(map[int]struct{}, len(answers))

	for _, answer := range answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= len(questions) {
			return fmt.Errorf("question index %d out of range", answer.QuestionIndex)
		}
		if _, duplicate := seen[answer.QuestionIndex]; duplicate {
			return fmt.Errorf("duplicate answer for question %d", answer.QuestionIndex)
		}
		seen[answer.QuestionIndex] = struct{}{}

		question := questions[answer.QuestionIndex]
		if len(answer.SelectedOptions) == 0 {
			return fmt.Errorf("question %d has no selected options", answer.QuestionIndex)
		}

		if question.Type != models.QuestionTypeMultiChoice && len(answer.SelectedOptions) != 1 {
			return fmt.Errorf("question %d accepts exactly one selected option", answer.QuestionIndex)
		}

		selected := make(map[int]struct{}, len(answer.SelectedOptions))
		for _, option := range answer.SelectedOptions {
			if option < 0 || option >= len(question.Options) {
				return fmt.Errorf("question %d option index %d out of range", answer.QuestionIndex, option)
			}
			if _, duplicate := selected[option]; duplicate {
				return fmt.Errorf("question %d selects option %d more than once", answer.QuestionIndex, option)
			}
			selected[option] = struct{}{}
		}
	}

	return nil
}

func sameIndexSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	set := make(map[int]struct{}, len(a))
	for _, index := range a {
		set[index] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}

	for _, index := range b {
		if _, ok := set[index]; !ok {
			return false
		}
	}

	return true
}
