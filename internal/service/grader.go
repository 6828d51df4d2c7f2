package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nbgrade/nbgrade-api/internal/models"
	"github.com/nbgrade/nbgrade-api/pkg/ai"
)

const itemGradingSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"}
	},
	"required": ["score", "reason"],
	"additionalProperties": false
}`

const presentationGradingSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 5},
		"reason": {"type": "string"}
	},
	"required": ["score", "reason"],
	"additionalProperties": false
}`

type gradeOutcome struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// gradeActivity scores one coding activity. Degenerate inputs short-circuit to
// zero without touching the model; those are valid grades, not failures.
func (s *gradingService) gradeActivity(ctx context.Context, activity models.Activity, totalActivities int) (gradeOutcome, error) {
	if strings.TrimSpace(activity.Description) == "" {
		return gradeOutcome{Score: 0, Reason: "No activity description provided"}, nil
	}

	if strings.TrimSpace(activity.Code) == "" {
		return gradeOutcome{Score: 0, Reason: "No code implementation provided"}, nil
	}

	outcome, err := s.generateGrade(ctx, "activity_grade", itemGradingSchema, buildActivityPrompt(activity))
	if err != nil {
		return gradeOutcome{}, err
	}

	pointsPerActivity := models.ActivitiesMaxScore / float64(totalActivities)
	outcome.Score *= pointsPerActivity
	return outcome, nil
}

// gradeQuestion scores one short-answer question with the same lifecycle as
// gradeActivity.
func (s *gradingService) gradeQuestion(ctx context.Context, question models.Question, totalQuestions int) (gradeOutcome, error) {
	if strings.TrimSpace(question.Question) == "" {
		return gradeOutcome{Score: 0, Reason: "No question provided"}, nil
	}

	if strings.TrimSpace(question.Answer) == "" {
		return gradeOutcome{Score: 0, Reason: "No answer provided"}, nil
	}

	outcome, err := s.generateGrade(ctx, "question_grade", itemGradingSchema, buildQuestionPrompt(question))
	if err != nil {
		return gradeOutcome{}, err
	}

	pointsPerQuestion := models.QuestionsMaxScore / float64(totalQuestions)
	outcome.Score *= pointsPerQuestion
	return outcome, nil
}

// gradePresentation always consults the model; the no-video case is handled by
// the caller before this point.
func (s *gradingService) gradePresentation(ctx context.Context, transcript string, durationSeconds int, notebookDescription string) (gradeOutcome, error) {
	prompt := buildPresentationPrompt(transcript, durationSeconds, notebookDescription)
	return s.generateGrade(ctx, "presentation_grade", presentationGradingSchema, prompt)
}

func (s *gradingService) generateGrade(ctx context.Context, schemaName, schema, prompt string) (gradeOutcome, error) {
	raw, err := s.client.GenerateObject(ctx, ai.GenerateRequest{
		Model:      s.model,
		SchemaName: schemaName,
		Schema:     schema,
		Prompt:     prompt,
		TopP:       s.topP,
	})
	if err != nil {
		return gradeOutcome{}, err
	}

	var outcome gradeOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return gradeOutcome{}, fmt.Errorf("parse grade response: %w", err)
	}

	return outcome, nil
}

func buildActivityPrompt(activity models.Activity) string {
	builder := strings.Builder{}
	builder.WriteString("Grade this student's coding activity on a scale of 0-1 (where 1 is fully correct, 0.5 is partially correct, etc).\n\n")
	builder.WriteString("Activity description: ")
	builder.WriteString(activity.Description)
	builder.WriteString("\n\nStudent's code implementation:\n```\n")
	builder.WriteString(activity.Code)
	builder.WriteString("\n```\n\n")
	builder.WriteString("Grading criteria:\n")
	builder.WriteString("- Code correctness and functionality (40%)\n")
	builder.WriteString("- Code quality and style (30%)\n")
	builder.WriteString("- Completeness of implementation (30%)\n\n")
	builder.WriteString("Check if the code correctly implements what was asked in the activity description.\n")
	builder.WriteString("Be fair but strict. Only give full score (1.0) for correct, clean, and complete implementations.\n")
	builder.WriteString("Give partial credit (0.1-0.9) for partially correct solutions.\n\n")
	builder.WriteString(`Respond ONLY with a JSON object: {"score": <number 0 to 1>, "reason": "<brief explanation>"}`)
	return builder.String()
}

func buildQuestionPrompt(question models.Question) string {
	builder := strings.Builder{}
	builder.WriteString("Grade this student's answer on a scale of 0-1 (where 1 is fully correct, 0.5 is partially correct, etc).\n\n")
	builder.WriteString("Question: ")
	builder.WriteString(question.Question)
	builder.WriteString("\n\nStudent's answer: ")
	builder.WriteString(question.Answer)
	builder.WriteString("\n\nGrading criteria:\n")
	builder.WriteString("- Correctness and accuracy (70%)\n")
	builder.WriteString("- Completeness of explanation (30%)\n\n")
	builder.WriteString("Be fair but strict. Only give full score (1.0) for accurate, complete, and well-explained answers.\n")
	builder.WriteString("Give partial credit (0.1-0.9) for partially correct answers.\n\n")
	builder.WriteString(`Respond ONLY with a JSON object: {"score": <number 0 to 1>, "reason": "<brief explanation>"}`)
	return builder.String()
}

func buildPresentationPrompt(transcript string, durationSeconds int, notebookDescription string) string {
	builder := strings.Builder{}
	builder.WriteString("Grade this video presentation on a scale of 0-5 points. Be generous and supportive - we want to encourage students who make an effort to explain their work.\n\n")
	builder.WriteString("Notebook Description: ")
	builder.WriteString(notebookDescription)
	builder.WriteString("\n\nPresentation transcript: ")
	builder.WriteString(transcript)
	builder.WriteString(fmt.Sprintf("\nDuration: %d minutes %d seconds\n\n", durationSeconds/60, durationSeconds%60))
	builder.WriteString("Grading criteria (BE LENIENT AND ENCOURAGING):\n")
	builder.WriteString("- Did they attempt to walk through the notebook? (2 points) - Give full points if they mention the main topics\n")
	builder.WriteString("- Do they show understanding of the concepts? (2 points) - Give full points if they explain any of the key ideas\n")
	builder.WriteString("- Did they make an effort to present? (1 point) - Give full points if they speak clearly and try to explain\n\n")
	builder.WriteString("IMPORTANT:\n")
	builder.WriteString("- Give at least 4/5 if they made a genuine attempt to present the notebook; only if the video is not about the notebook give 0.\n")
	builder.WriteString("- Only deduct points for major issues like:\n")
	builder.WriteString("  * Not talking about the notebook content at all\n")
	builder.WriteString("  * Completely unclear or incomprehensible presentation\n")
	builder.WriteString("  * Extremely short presentation (under 1 minute)\n")
	builder.WriteString("- Focus on effort and understanding, not presentation quality\n")
	builder.WriteString("- Be encouraging in your feedback\n\n")
	builder.WriteString("Note: Duration penalty will be applied separately if over 5 minutes.\n\n")
	builder.WriteString(`Respond ONLY with a JSON object: {"score": <number 0 to 5>, "reason": "<encouraging feedback>"}`)
	return builder.String()
}
