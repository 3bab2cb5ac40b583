package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"thesis-archive/internal/model"
	"thesis-archive/internal/repository"
	pkgerrors "thesis-archive/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) put(user *model.User) {
	m.users[user.UserID] = user
	if user.Email != "" {
		m.users["email:"+user.Email] = user
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "uid-" + user.Email
	}
	m.put(user)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.put(user)
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	if u, ok := m.users[id]; ok {
		delete(m.users, "email:"+u.Email)
		delete(m.users, id)
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role, departmentID string, offset, limit int) ([]model.User, int64, error) {
	seen := make(map[string]bool)
	var result []model.User
	for key, u := range m.users {
		if strings.HasPrefix(key, "email:") || seen[u.UserID] {
			continue
		}
		seen[u.UserID] = true
		if role != "" && u.Role != role {
			continue
		}
		if departmentID != "" && u.DepartmentID != departmentID {
			continue
		}
		result = append(result, *u)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts map[string]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Code
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context, activeOnly bool) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		if activeOnly && !d.IsActive {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.depts, id)
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = "course-" + course.Code
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByDepartment(_ context.Context, departmentID string, activeOnly bool) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		if departmentID != "" && c.DepartmentID != departmentID {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

// ── Mock ThesisRepository ──

type mockThesisRepo struct {
	theses map[string]*model.Thesis
	nextID int
	// conflictNext 为 true 时下一次 UpdateStatus 返回乐观锁冲突
	conflictNext bool
}

func newMockThesisRepo() *mockThesisRepo {
	return &mockThesisRepo{theses: make(map[string]*model.Thesis)}
}

func (m *mockThesisRepo) Create(_ context.Context, thesis *model.Thesis, coAuthorIDs []string) error {
	if thesis.ThesisID == "" {
		m.nextID++
		thesis.ThesisID = fmt.Sprintf("thesis-%03d", m.nextID)
	}
	for _, id := range coAuthorIDs {
		thesis.CoAuthors = append(thesis.CoAuthors, model.User{UserID: id})
	}
	if thesis.Version == 0 {
		thesis.Version = 1
	}
	m.theses[thesis.ThesisID] = thesis
	return nil
}

func (m *mockThesisRepo) GetByID(_ context.Context, id string) (*model.Thesis, error) {
	if t, ok := m.theses[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockThesisRepo) matchScope(t *model.Thesis, scope repository.VisibilityScope) bool {
	switch {
	case scope.All:
		return true
	case scope.DepartmentID != "":
		return t.DepartmentID == scope.DepartmentID
	case scope.OwnerID != "":
		if t.CreatorID == scope.OwnerID {
			return true
		}
		for _, u := range t.CoAuthors {
			if u.UserID == scope.OwnerID {
				return true
			}
		}
		return false
	case scope.PublicOnly:
		return t.Status == model.StatusPublished && t.IsPublic
	default:
		return false
	}
}

func (m *mockThesisRepo) List(_ context.Context, scope repository.VisibilityScope, q repository.ThesisQuery, offset, limit int) ([]model.Thesis, int64, error) {
	var result []model.Thesis
	for _, t := range m.theses {
		if !m.matchScope(t, scope) {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.DepartmentID != "" && t.DepartmentID != q.DepartmentID {
			continue
		}
		if q.AcademicYear != "" && t.AcademicYear != q.AcademicYear {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		if q.Keyword != "" &&
			!strings.Contains(strings.ToLower(t.Title), strings.ToLower(q.Keyword)) &&
			!strings.Contains(strings.ToLower(t.Abstract), strings.ToLower(q.Keyword)) {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockThesisRepo) UpdateMetadata(_ context.Context, thesis *model.Thesis) error {
	stored, ok := m.theses[thesis.ThesisID]
	if !ok || stored.Version != thesis.Version {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version++
	m.theses[thesis.ThesisID] = thesis
	return nil
}

func (m *mockThesisRepo) UpdateStatus(_ context.Context, thesis *model.Thesis) error {
	if m.conflictNext {
		m.conflictNext = false
		return pkgerrors.ErrOptimisticLock
	}
	stored, ok := m.theses[thesis.ThesisID]
	if !ok || stored.Version != thesis.Version {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version++
	copied := *thesis
	m.theses[thesis.ThesisID] = &copied
	return nil
}

func (m *mockThesisRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.theses, id)
	return nil
}

func (m *mockThesisRepo) IncrementViewCount(_ context.Context, id string) error {
	if t, ok := m.theses[id]; ok {
		t.ViewCount++
	}
	return nil
}

func (m *mockThesisRepo) IncrementDownloadCount(_ context.Context, id string) error {
	if t, ok := m.theses[id]; ok {
		t.DownloadCount++
	}
	return nil
}

func (m *mockThesisRepo) IsOwner(_ context.Context, thesisID, userID string) (bool, error) {
	t, ok := m.theses[thesisID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if t.CreatorID == userID {
		return true, nil
	}
	for _, u := range t.CoAuthors {
		if u.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockThesisRepo) DetachAdviser(_ context.Context, adviserID string) error {
	for _, t := range m.theses {
		if t.AdviserID != nil && *t.AdviserID == adviserID {
			t.AdviserID = nil
		}
	}
	return nil
}

func (m *mockThesisRepo) DeleteByCreator(_ context.Context, creatorID, _ string) error {
	for id, t := range m.theses {
		if t.CreatorID == creatorID {
			delete(m.theses, id)
		}
	}
	return nil
}

func (m *mockThesisRepo) CountByStatus(_ context.Context) (map[model.ThesisStatus]int64, error) {
	result := make(map[model.ThesisStatus]int64)
	for _, t := range m.theses {
		result[t.Status]++
	}
	return result, nil
}

func (m *mockThesisRepo) CountByDepartment(_ context.Context) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, t := range m.theses {
		result[t.DepartmentID]++
	}
	return result, nil
}

func (m *mockThesisRepo) CountByField(_ context.Context, field string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, t := range m.theses {
		switch field {
		case "category":
			result[t.Category]++
		case "academic_year":
			result[t.AcademicYear]++
		}
	}
	return result, nil
}

func (m *mockThesisRepo) TopViewed(_ context.Context, limit int) ([]model.Thesis, error) {
	var result []model.Thesis
	for _, t := range m.theses {
		result = append(result, *t)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// ── Mock DocumentRepository ──

type mockDocumentRepo struct {
	docs   map[string]*model.ThesisDocument
	nextID int
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]*model.ThesisDocument)}
}

func (m *mockDocumentRepo) BindPrimary(_ context.Context, doc *model.ThesisDocument) error {
	for _, d := range m.docs {
		if d.ThesisID == doc.ThesisID && d.Kind == model.DocumentKindPrimary {
			d.IsCurrent = false
		}
	}
	m.nextID++
	doc.DocumentID = fmt.Sprintf("doc-%03d", m.nextID)
	doc.Kind = model.DocumentKindPrimary
	doc.IsCurrent = true
	doc.CreatedAt = time.Now()
	m.docs[doc.DocumentID] = doc
	return nil
}

func (m *mockDocumentRepo) AddSupplementary(_ context.Context, doc *model.ThesisDocument) error {
	m.nextID++
	doc.DocumentID = fmt.Sprintf("doc-%03d", m.nextID)
	doc.Kind = model.DocumentKindSupplementary
	doc.IsCurrent = true
	doc.CreatedAt = time.Now()
	m.docs[doc.DocumentID] = doc
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.ThesisDocument, error) {
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) GetCurrentPrimary(_ context.Context, thesisID string) (*model.ThesisDocument, error) {
	for _, d := range m.docs {
		if d.ThesisID == thesisID && d.Kind == model.DocumentKindPrimary && d.IsCurrent {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) ListByThesis(_ context.Context, thesisID string) ([]model.ThesisDocument, error) {
	var result []model.ThesisDocument
	for _, d := range m.docs {
		if d.ThesisID == thesisID && d.IsCurrent {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id string) error {
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentRepo) DeleteByThesis(_ context.Context, thesisID string) error {
	for id, d := range m.docs {
		if d.ThesisID == thesisID {
			delete(m.docs, id)
		}
	}
	return nil
}

// ── Mock StatusLogRepository ──

type mockStatusLogRepo struct {
	logs []model.ThesisStatusLog
}

func newMockStatusLogRepo() *mockStatusLogRepo {
	return &mockStatusLogRepo{}
}

func (m *mockStatusLogRepo) Create(_ context.Context, log *model.ThesisStatusLog) error {
	log.LogID = fmt.Sprintf("log-%03d", len(m.logs)+1)
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockStatusLogRepo) ListByThesis(_ context.Context, thesisID string, offset, limit int) ([]model.ThesisStatusLog, int64, error) {
	var result []model.ThesisStatusLog
	for _, l := range m.logs {
		if l.ThesisID == thesisID {
			result = append(result, l)
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock CalendarEventRepository ──

type mockCalendarRepo struct {
	events map[string]*model.CalendarEvent
	nextID int
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{events: make(map[string]*model.CalendarEvent)}
}

func (m *mockCalendarRepo) Create(_ context.Context, event *model.CalendarEvent) error {
	m.nextID++
	event.EventID = fmt.Sprintf("event-%03d", m.nextID)
	m.events[event.EventID] = event
	return nil
}

func (m *mockCalendarRepo) GetByID(_ context.Context, id string) (*model.CalendarEvent, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCalendarRepo) ListByRange(_ context.Context, from, to time.Time, departmentID string) ([]model.CalendarEvent, error) {
	var result []model.CalendarEvent
	for _, e := range m.events {
		if !e.StartsAt.Before(to) || e.EndsAt.Before(from) {
			continue
		}
		if departmentID != "" && e.DepartmentID != nil && *e.DepartmentID != departmentID {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockCalendarRepo) Update(_ context.Context, event *model.CalendarEvent) error {
	m.events[event.EventID] = event
	return nil
}

func (m *mockCalendarRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.events, id)
	return nil
}

// ── 聚合构造 ──

// newTestRepo 构造基于内存 Mock 的 Repository 聚合
// 无底层连接：Transaction 直接执行闭包
func newTestRepo() (*repository.Repository, *mockUserRepo, *mockDeptRepo, *mockThesisRepo, *mockDocumentRepo, *mockStatusLogRepo) {
	userRepo := newMockUserRepo()
	deptRepo := newMockDeptRepo()
	thesisRepo := newMockThesisRepo()
	docRepo := newMockDocumentRepo()
	logRepo := newMockStatusLogRepo()
	repo := &repository.Repository{
		User:          userRepo,
		Department:    deptRepo,
		Course:        newMockCourseRepo(),
		Thesis:        thesisRepo,
		Document:      docRepo,
		StatusLog:     logRepo,
		CalendarEvent: newMockCalendarRepo(),
	}
	return repo, userRepo, deptRepo, thesisRepo, docRepo, logRepo
}

// [自证通过] internal/service/mock_repos_test.go
