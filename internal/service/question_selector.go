package service

import (
	"fmt"
	"math/rand/v2"
	"regexp"

	"github.com/tutorium/tutorium-backend/internal/model"
)

// SessionQuestionPrefix is the prefix of the synthetic, session-scoped
// question ids handed to clients. Decoupling these ids from the question
// bank prevents answer lookups against previously seen tests.
const SessionQuestionPrefix = "session_q"

// sessionKeyPattern matches answer keys produced by a cached session.
var sessionKeyPattern = regexp.MustCompile(`^session_q\d+$`)

// SyntheticQuestionID returns the session-scoped id for the n-th
// question (1-based).
func SyntheticQuestionID(n int) string {
	return fmt.Sprintf("%s%d", SessionQuestionPrefix, n)
}

// IsSessionAnswerKey reports whether key follows the session_qN naming.
func IsSessionAnswerKey(key string) bool {
	return sessionKeyPattern.MatchString(key)
}

// Selection is the outcome of picking questions for one session.
// Questions carry synthetic ids but retain their answer keys; the
// original question-bank ids are kept separately for backup recovery.
type Selection struct {
	Questions   []model.Question
	OriginalIDs []string
}

// SelectQuestions picks min(count, len(pool)) questions from pool.
// With randomize set and a pool larger than count, a Fisher-Yates
// shuffle runs over the full pool before taking the first count
// entries. Smaller pools are never padded or repeated.
func SelectQuestions(pool []model.Question, count int, randomize bool) Selection {
	picked := make([]model.Question, len(pool))
	copy(picked, pool)

	if randomize {
		rand.Shuffle(len(picked), func(i, j int) {
			picked[i], picked[j] = picked[j], picked[i]
		})
	}
	if count < len(picked) {
		picked = picked[:count]
	}

	sel := Selection{
		Questions:   picked,
		OriginalIDs: make([]string, len(picked)),
	}
	for i := range picked {
		sel.OriginalIDs[i] = picked[i].ID
		picked[i].ID = SyntheticQuestionID(i + 1)
	}
	return sel
}

// StripForClient projects the selected questions into their
// answer-stripped client form.
func (s Selection) StripForClient() []model.StudentQuestion {
	out := make([]model.StudentQuestion, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.ForStudent()
	}
	return out
}
