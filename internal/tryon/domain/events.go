package domain

// Completed is published through the outbox with the terminal COMPLETED
// transition.
type Completed struct {
	SessionID      string `json:"sessionId"`
	GarmentID      string `json:"garmentId"`
	ResultImageURL string `json:"resultImageUrl"`
}

// Failed is published with the terminal FAILED transition.
type Failed struct {
	SessionID    string `json:"sessionId"`
	GarmentID    string `json:"garmentId"`
	ErrorMessage string `json:"errorMessage"`
}
