package service

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/tutorium/tutorium-backend/internal/model"
)

// GradeOutcome is the raw grading result before it is wrapped into a
// persisted report.
type GradeOutcome struct {
	Results        []model.QuestionResult
	CorrectAnswers int
	CategoryScores map[string]model.CategoryScore
}

// Grade scores the submitted answers against the resolved question list.
// When adminPath is set the answer key for question i is session_q{i+1};
// otherwise it is the question's own id.
func Grade(questions []model.Question, answers map[string]any, adminPath bool) GradeOutcome {
	outcome := GradeOutcome{
		Results:        make([]model.QuestionResult, 0, len(questions)),
		CategoryScores: make(map[string]model.CategoryScore),
	}

	type tally struct{ correct, total int }
	categories := make(map[string]*tally)

	for i, q := range questions {
		key := q.ID
		if adminPath {
			key = SyntheticQuestionID(i + 1)
		}

		raw, present := answers[key]
		display, answered := displayAnswer(raw, present, q)

		correct := answered && isCorrectAnswer(raw, q)
		if correct {
			outcome.CorrectAnswers++
		}

		if q.Category != "" {
			c, ok := categories[q.Category]
			if !ok {
				c = &tally{}
				categories[q.Category] = c
			}
			c.total++
			if correct {
				c.correct++
			}
		}

		outcome.Results = append(outcome.Results, model.QuestionResult{
			QuestionID:    key,
			QuestionText:  q.Text,
			UserAnswer:    display,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Points:        q.Points,
		})
	}

	for cat, c := range categories {
		outcome.CategoryScores[cat] = model.CategoryScore{
			Correct:    c.correct,
			Total:      c.total,
			Percentage: roundPercent(c.correct, c.total),
		}
	}

	return outcome
}

// roundPercent converts correct/total into a rounded 0-100 percentage.
func roundPercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// displayAnswer normalizes a submitted value into its display form and
// reports whether the question counts as answered. A numeric zero or a
// false boolean is still an answer; only nil, absent, empty strings and
// empty arrays are not.
func displayAnswer(raw any, present bool, q model.Question) (string, bool) {
	if !present || raw == nil {
		return model.NotAnsweredMarker, false
	}

	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			return model.NotAnsweredMarker, false
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ", "), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return model.NotAnsweredMarker, false
		}
		return trimmed, true
	case float64:
		// A numeric answer that indexes into the option list displays as
		// the option text, not the raw index.
		if idx, ok := optionIndex(v, q.Options); ok {
			return q.Options[idx], true
		}
		return formatNumber(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return stringify(v), true
	}
}

// isCorrectAnswer applies the comparison rules. Correct answers are
// stored as text, so a numeric submission against an option list is
// resolved to the option text before comparing, never compared as a
// raw index.
func isCorrectAnswer(raw any, q model.Question) bool {
	if f, ok := raw.(float64); ok && len(q.Options) > 0 {
		idx, ok := optionIndex(f, q.Options)
		if !ok {
			return false
		}
		return valuesEqual(q.Options[idx], q.CorrectAnswer)
	}
	return valuesEqual(raw, q.CorrectAnswer)
}

// valuesEqual compares a submitted value with the stored correct answer:
// strings are trimmed, numbers compared numerically, and anything else
// falls back to deep equality (arrays serialized identically match).
func valuesEqual(a, b any) bool {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.TrimSpace(as) == strings.TrimSpace(bs)
	}

	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		return af == bf
	}

	return reflect.DeepEqual(a, b)
}

// optionIndex reports whether f is a valid integral index into options.
func optionIndex(f float64, options []string) (int, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	idx := int(f)
	if idx < 0 || idx >= len(options) {
		return 0, false
	}
	return idx, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
