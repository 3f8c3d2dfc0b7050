package api

// CreateRepositoryRequest is the body of POST /repository. reponame and
// language are registered by newValidator.
type CreateRepositoryRequest struct {
	Name        string `json:"name" validate:"required,reponame"`
	Description string `json:"description" validate:"max=1000"`
	Private     bool   `json:"private"`
	Language    string `json:"language" validate:"required,language"`
	Framework   string `json:"framework" validate:"required"`
}

// Envelope wraps every JSON answer of the dashboard API.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
