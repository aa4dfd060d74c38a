package model

// Question represents a single test question including its answer key.
// This form is grading-authoritative and must never be sent to clients.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer any      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Points        int      `json:"points,omitempty"`
}

// StudentQuestion is the client-facing projection of a Question.
// CorrectAnswer and Explanation are stripped so the answer key cannot
// leak through the session payload.
type StudentQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options,omitempty"`
	Category   string   `json:"category,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Points     int      `json:"points,omitempty"`
}

// ForStudent returns the answer-stripped projection of the question.
func (q Question) ForStudent() StudentQuestion {
	return StudentQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Points:     q.Points,
	}
}
