package entity

type VideoProcessingStatus struct {
	IsProcessing   bool   `json:"is_processing"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DetectionCount int    `json:"detection_count"`
	OutputPath     string `json:"output_path"`
	Thumbnail      string `json:"thumbnail,omitempty"`
}
