package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/skillforge/assessment-engine/internal/llm"
	"github.com/skillforge/assessment-engine/internal/models"
)

// ===== ANSWER PAYLOADS =====

type boolAnswer struct {
	Answer bool `json:"answer"`
}

type choiceAnswer struct {
	Answer string `json:"answer"`
}

type multiAnswer struct {
	Answers []string `json:"answers"`
}

type textAnswer struct {
	Text string `json:"text"`
}

// ===== OBJECTIVE GRADING =====

// GradeObjectiveAnswer compares a candidate answer against the question's
// canonical answer. Comparison is exact after normalization; there is no
// partial credit.
func (s *gradingService) GradeObjectiveAnswer(questionType models.QuestionType, questionContent, candidateAnswer []byte) (bool, error) {
	if len(candidateAnswer) == 0 {
		return false, nil
	}

	switch questionType {
	case models.TrueFalse:
		return s.gradeTrueFalse(questionContent, candidateAnswer)
	case models.MultipleChoice:
		return s.gradeMultipleChoice(questionContent, candidateAnswer)
	case models.MultipleAnswer:
		return s.gradeMultipleAnswer(questionContent, candidateAnswer)
	case models.ShortAnswer:
		return false, ErrGradingNotAllowed
	default:
		return false, fmt.Errorf("unsupported question type: %s", questionType)
	}
}

func (s *gradingService) gradeTrueFalse(questionContent, candidateAnswer []byte) (bool, error) {
	var content models.TrueFalseContent
	if err := json.Unmarshal(questionContent, &content); err != nil {
		return false, fmt.Errorf("invalid true_false content: %w", err)
	}

	var answer boolAnswer
	if err := json.Unmarshal(candidateAnswer, &answer); err != nil {
		// A bare JSON boolean is also accepted.
		var bare bool
		if err2 := json.Unmarshal(candidateAnswer, &bare); err2 != nil {
			return false, fmt.Errorf("invalid true_false answer: %w", err)
		}
		answer.Answer = bare
	}

	return answer.Answer == content.CorrectAnswer, nil
}

func (s *gradingService) gradeMultipleChoice(questionContent, candidateAnswer []byte) (bool, error) {
	var content models.MultipleChoiceContent
	if err := json.Unmarshal(questionContent, &content); err != nil {
		return false, fmt.Errorf("invalid multiple_choice content: %w", err)
	}

	var answer choiceAnswer
	if err := json.Unmarshal(candidateAnswer, &answer); err != nil {
		var bare string
		if err2 := json.Unmarshal(candidateAnswer, &bare); err2 != nil {
			return false, fmt.Errorf("invalid multiple_choice answer: %w", err)
		}
		answer.Answer = bare
	}

	return normalizeToken(answer.Answer) == normalizeToken(content.CorrectAnswer), nil
}

func (s *gradingService) gradeMultipleAnswer(questionContent, candidateAnswer []byte) (bool, error) {
	var content models.MultipleAnswerContent
	if err := json.Unmarshal(questionContent, &content); err != nil {
		return false, fmt.Errorf("invalid multiple_answer content: %w", err)
	}

	var answer multiAnswer
	if err := json.Unmarshal(candidateAnswer, &answer); err != nil {
		var bare []string
		if err2 := json.Unmarshal(candidateAnswer, &bare); err2 != nil {
			return false, fmt.Errorf("invalid multiple_answer answer: %w", err)
		}
		answer.Answers = bare
	}

	// Order-independent exact set match. A subset or superset scores zero.
	got := normalizeSet(answer.Answers)
	want := normalizeSet(content.CorrectAnswers)
	if len(got) != len(want) {
		return false, nil
	}
	for i := range got {
		if got[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}

// normalizeToken trims surrounding whitespace and case-folds.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeSet normalizes each value, drops empties and duplicates, and
// sorts lexicographically so comparison is order-independent.
func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		token := normalizeToken(v)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// ===== SUBJECTIVE GRADING =====

// evaluateSubjective asks the AI grader to judge a short answer. Every
// failure path degrades to a zero-score evaluation flagged for review so
// the surrounding grading run keeps going.
func (s *gradingService) evaluateSubjective(ctx context.Context, question *models.Question, sub *models.Submission) models.AIEvaluation {
	answerText := extractAnswerText(sub.Answer)
	if answerText == "" {
		return models.AIEvaluation{
			Quality:   0,
			Reasoning: "no answer provided",
		}
	}

	if s.grader == nil {
		return degradedEvaluation("AI grader not configured")
	}

	var content models.ShortAnswerContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		s.logger.Warn("Invalid short_answer content",
			"question_id", question.ID,
			"error", err)
		return degradedEvaluation("question content unreadable")
	}

	rubric := ""
	if content.Rubric != nil {
		rubric = *content.Rubric
	}

	result, err := s.grader.Evaluate(ctx, llm.EvaluationRequest{
		QuestionText:    question.Text,
		ReferenceAnswer: content.ReferenceAnswer,
		Rubric:          rubric,
		KeyWords:        content.KeyWords,
		CandidateAnswer: answerText,
	})
	if err != nil {
		s.logger.Error("AI evaluation failed",
			"submission_id", sub.ID,
			"question_id", question.ID,
			"error", err)
		return degradedEvaluation(fmt.Sprintf("AI evaluation failed: %v", err))
	}

	return models.AIEvaluation{
		Quality:     result.Quality,
		Passed:      result.Quality >= 60,
		Reasoning:   result.Reasoning,
		Suggestions: result.Suggestions,
	}
}

// degradedEvaluation is the zero-score fallback used when the AI grader is
// unavailable or returns garbage.
func degradedEvaluation(reason string) models.AIEvaluation {
	return models.AIEvaluation{
		Quality:     0,
		Passed:      false,
		Reasoning:   reason,
		NeedsReview: true,
	}
}

// extractAnswerText pulls the free-text answer out of its JSON envelope,
// accepting both {"text": "..."} and a bare JSON string.
func extractAnswerText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var wrapped textAnswer
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Text != "" {
		return strings.TrimSpace(wrapped.Text)
	}

	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return strings.TrimSpace(bare)
	}

	return ""
}
