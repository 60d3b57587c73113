package domain

// ArtifactCategoryOption describes one expected output category of a
// completed run. Marker is the substring that identifies files of this
// category after extraction.
type ArtifactCategoryOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Marker      string `json:"marker"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Present     bool   `json:"present"`
	LocalPath   string `json:"localPath,omitempty"`
}

// ResultCategories returns the expected output categories of a completed run
// in display order. A retrieval is complete only when at least one file of
// each category is present. The returned slice is a fresh copy; callers may
// stamp Present and LocalPath freely.
func ResultCategories() []ArtifactCategoryOption {
	return []ArtifactCategoryOption{
		{
			ID:          "detailed",
			Name:        "Detailed transcript",
			Marker:      "detailed",
			Format:      "json",
			Description: "Segment-level transcript with timestamps and speaker labels.",
		},
		{
			ID:          "conversation",
			Name:        "Conversation view",
			Marker:      "conversation",
			Format:      "txt",
			Description: "Readable dialogue grouped by speaker turns.",
		},
		{
			ID:          "transcript",
			Name:        "Plain transcript",
			Marker:      "transcript",
			Format:      "txt",
			Description: "Flat transcript text without speaker structure.",
		},
	}
}
