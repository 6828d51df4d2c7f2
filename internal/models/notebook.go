package models

// Activity is a graded coding exercise extracted from a notebook: a task
// description paired with the student's implementation.
type Activity struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Completed   bool     `json:"completed"`
	AIScore     *float64 `json:"ai_score,omitempty"`
	AIReason    string   `json:"ai_reason,omitempty"`
}

// Question is a graded short-answer item extracted from a notebook.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	AIScore  *float64 `json:"ai_score,omitempty"`
	AIReason string   `json:"ai_reason,omitempty"`
}
