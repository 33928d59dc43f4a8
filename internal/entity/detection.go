package entity

const (
	HelmetStatus   = "helmet"
	NoHelmetStatus = "no_helmet"
)

type Detection struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	Class      string    `json:"class"`
	Model      string    `json:"model,omitempty"`
}

type RiderPair struct {
	Rider   Detection  `json:"rider"`
	Helmet  *Detection `json:"helmet,omitempty"`
	Status  string     `json:"status,omitempty"`
	Overlap float64    `json:"iou,omitempty"`
}

type HelmetResult struct {
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	HelmetConfidence   float64 `json:"helmet_confidence"`
	NoHelmetConfidence float64 `json:"no_helmet_confidence"`
}

// DetectionResult is produced by the detection backend for a single image or frame.
// Detections is the legacy field name some backend builds still emit.
type DetectionResult struct {
	Timestamp     string         `json:"timestamp"`
	AllDetections []Detection    `json:"all_detections"`
	Detections    []Detection    `json:"detections,omitempty"`
	RiderPairs    []RiderPair    `json:"rider_pairs"`
	HelmetResults []HelmetResult `json:"helmet_results"`
	Warning       string         `json:"warning,omitempty"`
	Image         string         `json:"image,omitempty"`
	HasHelmet     *bool          `json:"has_helmet,omitempty"`
	HasMotorcycle *bool          `json:"has_motorcycle,omitempty"`
	HasPerson     *bool          `json:"has_person,omitempty"`
}

// Normalize folds legacy fields into the current shape.
func (r *DetectionResult) Normalize() {
	if len(r.AllDetections) == 0 && len(r.Detections) > 0 {
		r.AllDetections = r.Detections
	}
	r.Detections = nil
	if r.AllDetections == nil {
		r.AllDetections = []Detection{}
	}
	if r.RiderPairs == nil {
		r.RiderPairs = []RiderPair{}
	}
	if r.HelmetResults == nil {
		r.HelmetResults = []HelmetResult{}
	}
}

func (r *DetectionResult) CountStatus(status string) int {
	n := 0
	for _, hr := range r.HelmetResults {
		if hr.Status == status {
			n++
		}
	}
	return n
}
