package dto

// TranscriptionResponse describes the outcome of transcribing an uploaded video.
type TranscriptionResponse struct {
	Transcript       string `json:"transcript"`
	Duration         int    `json:"duration"`
	OriginalSize     int64  `json:"original_size"`
	AudioSize        int64  `json:"audio_size"`
	CompressionRatio int    `json:"compression_ratio"`
}
