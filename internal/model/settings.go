package model

// AISettings selects the model the generator talks to. Stored as
// individual settings rows so partial updates never clobber the rest.
type AISettings struct {
	Type      string `json:"type"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key,omitempty"`
	BaseURL   string `json:"base_url"`
}

// Feedback is one user-submitted report about generated content.
type Feedback struct {
	ID           int64  `json:"id"`
	Subject      string `json:"subject"`
	Chapter      string `json:"chapter"`
	Concept      string `json:"concept"`
	FeedbackType string `json:"feedback_type"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at"`
}

// Explanation is a persisted AI explanation of one concept.
type Explanation struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Chapter     string `json:"chapter"`
	Concept     string `json:"concept"`
	ConceptType string `json:"concept_type"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}
