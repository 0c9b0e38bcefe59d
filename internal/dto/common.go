package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Policy    string `json:"policy"`
	Judge     string `json:"judge"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
