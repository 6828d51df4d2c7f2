package service

import (
	"math"

	"github.com/nbgrade/nbgrade-api/internal/models"
)

// Sharing bonus contributions and the late-penalty rate are fixed by the
// course rules, not configuration.
const (
	discordBonusPoints     = 1.0
	socialMediaBonusPoints = 2.0
	latePenaltyPerDay      = 0.20
	presentationBudgetMin  = 5.0
)

// calculateDurationPenalty derives the deduction for a presentation that runs
// past the five-minute budget: 10% of the base score per started minute over,
// capped at the base score so the penalty can never flip into a bonus.
func calculateDurationPenalty(durationSeconds int, baseScore float64) float64 {
	minutes := float64(durationSeconds) / 60

	if minutes <= presentationBudgetMin {
		return 0
	}

	minutesOver := math.Ceil(minutes - presentationBudgetMin)
	penaltyPerMinute := baseScore * 0.1
	return math.Min(baseScore, minutesOver*penaltyPerMinute)
}

// aggregate combines already-graded inputs into the final GradingResult. It is
// a single deterministic pass: category sums, fixed maxima, late penalty,
// sharing bonus, floor clamp at zero. The total is deliberately not capped at
// the max score, so a bonus can push the percentage past 100.
func aggregate(
	activities []models.Activity,
	questions []models.Question,
	presentation models.PresentationBreakdown,
	daysLate int,
	sharing models.SharingBonus,
) models.GradingResult {
	var activitiesScore float64
	for _, activity := range activities {
		if activity.AIScore != nil {
			activitiesScore += *activity.AIScore
		}
	}

	var questionsScore float64
	for _, question := range questions {
		if question.AIScore != nil {
			questionsScore += *question.AIScore
		}
	}

	maxScore := models.ActivitiesMaxScore + models.QuestionsMaxScore + models.PresentationMaxScore

	var bonusPoints float64
	if sharing.Discord {
		bonusPoints += discordBonusPoints
	}
	if sharing.SocialMedia {
		bonusPoints += socialMediaBonusPoints
	}
	sharing.BonusPoints = bonusPoints

	subtotal := activitiesScore + questionsScore + presentation.Score

	penaltyFraction := float64(daysLate) * latePenaltyPerDay
	penaltyPoints := maxScore * penaltyFraction

	totalScore := math.Max(0, subtotal-penaltyPoints+bonusPoints)

	finalPercentage := 0.0
	if maxScore > 0 {
		finalPercentage = totalScore / maxScore * 100
	}

	return models.GradingResult{
		Activities: models.ActivityBreakdown{
			Score:    activitiesScore,
			MaxScore: models.ActivitiesMaxScore,
			Details:  activities,
		},
		Questions: models.QuestionBreakdown{
			Score:    questionsScore,
			MaxScore: models.QuestionsMaxScore,
			Details:  questions,
		},
		Presentation: presentation,
		LatePenalty: models.LatePenalty{
			DaysLate:          daysLate,
			PenaltyPercentage: penaltyFraction * 100,
			PenaltyPoints:     penaltyPoints,
		},
		SharingBonus:    sharing,
		TotalScore:      totalScore,
		MaxScore:        maxScore,
		FinalPercentage: finalPercentage,
	}
}
