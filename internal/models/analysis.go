package models

// CodeIssue: одно замечание анализа кода.
type CodeIssue struct {
	Line       int    `json:"line"`
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CodeAnalysis: структурированный результат анализа исходного кода.
type CodeAnalysis struct {
	Language string      `json:"language"`
	Summary  string      `json:"summary"`
	Score    int         `json:"score"`
	Issues   []CodeIssue `json:"issues"`
}

// ReviewRequest: данные для отправки файла на ревью.
type ReviewRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Language string `json:"language" validate:"required,max=32"`
	Source   string `json:"source" validate:"required"`
}

// ReviewResult: ответ на отправку ревью.
type ReviewResult struct {
	SessionID string         `json:"sessionId"`
	Analysis  *CodeAnalysis  `json:"analysis"`
	Warning   SessionWarning `json:"warning"`
}
