package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

func intp(i int) *int { return &i }

func twoQuestionQuiz() []models.QuizQuestion {
	return []models.QuizQuestion{
		{Prompt: "q1", Options: []string{"a", "b", "c"}, CorrectIndex: 1},
		{Prompt: "q2", Options: []string{"a", "b", "c"}, CorrectIndex: 2},
	}
}

func TestQuizScore_AllCorrect(t *testing.T) {
	answers := []models.SessionAnswer{{OptionIndex: intp(1)}, {OptionIndex: intp(2)}}
	score := QuizScore(twoQuestionQuiz(), answers, 100)
	assert.Equal(t, 100, score)
	assert.True(t, Passed(score, 100))
}

func TestQuizScore_HalfCorrectFailsThreshold(t *testing.T) {
	answers := []models.SessionAnswer{{OptionIndex: intp(1)}, {OptionIndex: intp(0)}}
	score := QuizScore(twoQuestionQuiz(), answers, 100)
	assert.Equal(t, 50, score)
	assert.False(t, Passed(score, 100), "50 is below the 60%% threshold")
}

func TestQuizScore_MissingAnswersScoreZero(t *testing.T) {
	score := QuizScore(twoQuestionQuiz(), nil, 100)
	assert.Equal(t, 0, score)

	// Text answers on a quiz question count as unanswered.
	answers := []models.SessionAnswer{{Text: "b"}, {OptionIndex: intp(2)}}
	assert.Equal(t, 50, QuizScore(twoQuestionQuiz(), answers, 100))
}

func TestQuizScore_RoundsOddQuestionCounts(t *testing.T) {
	questions := []models.QuizQuestion{
		{CorrectIndex: 0}, {CorrectIndex: 0}, {CorrectIndex: 0},
	}
	// 2 of 3 correct at maxScore 100 is 66.67, rounds to 67.
	answers := []models.SessionAnswer{{OptionIndex: intp(0)}, {OptionIndex: intp(0)}, {OptionIndex: intp(1)}}
	assert.Equal(t, 67, QuizScore(questions, answers, 100))
}

func TestAverageScore(t *testing.T) {
	evals := []models.AnswerEvaluation{{Score: 80}, {Score: 40}, {Score: 70}}
	got := AverageScore(evals)
	assert.Equal(t, 63, got, "(80+40+70)/3 rounds to 63")
	assert.True(t, Passed(got, 100))

	assert.Equal(t, 0, AverageScore(nil))
}

func TestPassed_ThresholdBoundary(t *testing.T) {
	assert.True(t, Passed(60, 100))
	assert.False(t, Passed(59, 100))
	assert.False(t, Passed(10, 0), "zero max score never passes")
}
