package usecase

const (
	StatusCreated = "created"
	StatusSuccess = "success"
)

// Response is returned by every operation on success.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}
