package response_models

type CopyResponse struct {
	ID        string `json:"id"`
	PlaceID   string `json:"place_id"`
	CopyType  string `json:"copy_type"`
	Tone      string `json:"tone,omitempty"`
	Content   string `json:"content"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}
