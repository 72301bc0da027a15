package services

import (
	"math"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

// QuizScore grades a static quiz submission against the definition's question
// set. Each correct answer contributes maxScore/questionCount; the sum is
// rounded to the nearest integer. Missing or out-of-range answers score zero.
func QuizScore(questions []models.QuizQuestion, answers []models.SessionAnswer, maxScore int) int {
	if len(questions) == 0 {
		return 0
	}
	perQuestion := float64(maxScore) / float64(len(questions))
	var total float64
	for i, q := range questions {
		if i >= len(answers) || answers[i].OptionIndex == nil {
			continue
		}
		if *answers[i].OptionIndex == q.CorrectIndex {
			total += perQuestion
		}
	}
	return int(math.Round(total))
}

// AverageScore is the unweighted mean of per-question oracle scores, rounded
// to the nearest integer.
func AverageScore(evaluations []models.AnswerEvaluation) int {
	if len(evaluations) == 0 {
		return 0
	}
	var sum int
	for _, e := range evaluations {
		sum += e.Score
	}
	return int(math.Round(float64(sum) / float64(len(evaluations))))
}

// Passed applies the fixed pass threshold to a score out of maxScore.
func Passed(score, maxScore int) bool {
	if maxScore <= 0 {
		return false
	}
	return float64(score)/float64(maxScore) >= models.PassThreshold
}
