package models

// ImageRecord represents one discovered file in the dataset
type ImageRecord struct {
	Directory string   `json:"directory" yaml:"directory"`
	Filename  string   `json:"filename" yaml:"filename"`
	FNumber   *float64 `json:"f_number" yaml:"f_number"`
	FileSize  int64    `json:"file_size" yaml:"file_size"`
}

// HasFNumber reports whether the aperture was found in the file metadata
func (r ImageRecord) HasFNumber() bool {
	return r.FNumber != nil
}

// FNumberOr returns the aperture, or fallback when it is absent
func (r ImageRecord) FNumberOr(fallback float64) float64 {
	if r.FNumber == nil {
		return fallback
	}
	return *r.FNumber
}

// ListRecordsRequest parameters accepted by the records endpoint
type ListRecordsRequest struct {
	Directory string `form:"directory"`
}
