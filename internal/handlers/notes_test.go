package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mangonote/internal/config"
	"mangonote/internal/mindmap"
	"mangonote/internal/services"
	"mangonote/internal/storage"
)

// stubNotes 为 NoteStore 的内存实现，按 ID 匹配单条笔记。
type stubNotes struct {
	note  *storage.Note
	err   error
	calls int
}

func (s *stubNotes) GetByID(ctx context.Context, id string) (*storage.Note, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.note != nil && s.note.ID == id {
		return s.note, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubNotes) List(ctx context.Context, f services.NoteFilter) ([]storage.Note, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.note == nil {
		return nil, nil
	}
	return []storage.Note{*s.note}, nil
}

func (s *stubNotes) Search(ctx context.Context, keyword string, limit int) ([]storage.Note, error) {
	return s.List(ctx, services.NoteFilter{})
}

func (s *stubNotes) Create(ctx context.Context, title, content string, tags []string) (*storage.Note, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if title == "" {
		return nil, services.ErrTitleRequired
	}
	n := &storage.Note{ID: "new-note", Title: title, Content: content}
	return n, nil
}

func (s *stubNotes) Update(ctx context.Context, id string, upd services.NoteUpdate) (*storage.Note, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.note == nil || s.note.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	if upd.Title != nil {
		s.note.Title = *upd.Title
	}
	if upd.Pinned != nil {
		s.note.Pinned = *upd.Pinned
	}
	return s.note, nil
}

func (s *stubNotes) Delete(ctx context.Context, id string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.note == nil || s.note.ID != id {
		return gorm.ErrRecordNotFound
	}
	s.note = nil
	return nil
}

// stubMaps 为 MindmapStore 的内存实现。
type stubMaps struct {
	m           *storage.Mindmap
	err         error
	noteExists  bool
	invalidated []string
}

func (s *stubMaps) GetByNote(ctx context.Context, noteID string) (*storage.Mindmap, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.m != nil && s.m.NoteID == noteID {
		return s.m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMaps) Save(ctx context.Context, noteID string, doc *mindmap.Document) (*storage.Mindmap, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := doc.Validate(mindmap.Limits{MaxNodes: 100, MaxDepth: 5}); err != nil {
		return nil, err
	}
	if !s.noteExists {
		return nil, services.ErrNoteMissing
	}
	ver := 1
	if s.m != nil && s.m.NoteID == noteID {
		ver = s.m.Version + 1
	}
	nodes, _ := json.Marshal(doc.Root)
	s.m = &storage.Mindmap{NoteID: noteID, Title: doc.Title, Layout: doc.Layout, Nodes: string(nodes), Version: ver}
	return s.m, nil
}

func (s *stubMaps) DeleteByNote(ctx context.Context, noteID string) error {
	if s.err != nil {
		return s.err
	}
	if s.m == nil || s.m.NoteID != noteID {
		return gorm.ErrRecordNotFound
	}
	s.m = nil
	return nil
}

func (s *stubMaps) Invalidate(ctx context.Context, noteID string) {
	s.invalidated = append(s.invalidated, noteID)
}

// auditRec 记录写入的审计事件及请求上下文。
type auditRec struct {
	events   []string
	methods  []string
	paths    []string
	statuses []int
}

func (a *auditRec) Write(ctx context.Context, level, event string, noteID *string, desc, ip, requestID, method, path string, status int) {
	a.events = append(a.events, event)
	a.methods = append(a.methods, method)
	a.paths = append(a.paths, path)
	a.statuses = append(a.statuses, status)
}

func newTestRouter(ns NoteStore, ms MindmapStore, audit Audit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	h := New(cfg, ns, ms, audit, nil)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestGetNoteFound(t *testing.T) {
	ns := &stubNotes{note: &storage.Note{ID: "abc123", Title: "hello", Content: "world"}}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes/abc123", nil)
	require.Equal(t, 200, w.Code)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	var data struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "abc123", data.ID)
	require.Equal(t, "hello", data.Title)
}

func TestGetNoteBlankIDSkipsService(t *testing.T) {
	ns := &stubNotes{note: &storage.Note{ID: "abc123"}}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes/%20", nil)
	require.Equal(t, 400, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, 0, ns.calls, "service must not be called for a blank id")
}

func TestGetNoteNotFound(t *testing.T) {
	ns := &stubNotes{note: &storage.Note{ID: "abc123"}}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes/ghost", nil)
	require.Equal(t, 404, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, "note not found", env.Error)
}

func TestGetNoteServiceFailure(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	ns := &stubNotes{err: errors.New("db down")}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes/abc123", nil)
	require.Equal(t, 500, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, "internal error", env.Error)
	require.NotContains(t, w.Body.String(), "db down", "raw error must not leak")

	// 错误必须带操作标签与笔记 ID 进日志
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, log.ErrorLevel, entry.Level)
	require.Equal(t, "note_fetch", entry.Data["op"])
	require.Equal(t, "abc123", entry.Data["note_id"])
	require.EqualError(t, entry.Data["error"].(error), "db down")
}

func TestCreateNote(t *testing.T) {
	ns := &stubNotes{}
	audit := &auditRec{}
	r := newTestRouter(ns, &stubMaps{}, audit)
	w := doJSON(t, r, "POST", "/api/notes", map[string]interface{}{
		"title": "t", "content": "c", "tags": []string{"x"},
	})
	require.Equal(t, 201, w.Code)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	require.Equal(t, []string{"NOTE_CREATED"}, audit.events)
	require.Equal(t, []string{"POST"}, audit.methods)
	require.Equal(t, []string{"/api/notes"}, audit.paths)
	require.Equal(t, []int{201}, audit.statuses, "audit must record the final status")
}

func TestCreateNoteRejectsEmptyTitle(t *testing.T) {
	ns := &stubNotes{}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "POST", "/api/notes", map[string]interface{}{"content": "c"})
	require.Equal(t, 400, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
}

func TestCreateNoteRejectsBadJSON(t *testing.T) {
	ns := &stubNotes{}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	req := httptest.NewRequest("POST", "/api/notes", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, 400, w.Code)
	require.Equal(t, 0, ns.calls)
}

func TestUpdateNoteNotFound(t *testing.T) {
	ns := &stubNotes{}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "PUT", "/api/notes/ghost", map[string]interface{}{"title": "x"})
	require.Equal(t, 404, w.Code)
}

func TestDeleteNoteInvalidatesMindmapCache(t *testing.T) {
	ns := &stubNotes{note: &storage.Note{ID: "abc123"}}
	ms := &stubMaps{}
	audit := &auditRec{}
	r := newTestRouter(ns, ms, audit)
	w := doJSON(t, r, "DELETE", "/api/notes/abc123", nil)
	require.Equal(t, 204, w.Code)
	require.Equal(t, []string{"abc123"}, ms.invalidated)
	require.Equal(t, []string{"NOTE_DELETED"}, audit.events)
	require.Equal(t, []int{204}, audit.statuses)

	// 再查应为 404
	w = doJSON(t, r, "GET", "/api/notes/abc123", nil)
	require.Equal(t, 404, w.Code)
}

func TestListNotesEnvelope(t *testing.T) {
	ns := &stubNotes{note: &storage.Note{ID: "abc123", Title: "hello"}}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes", nil)
	require.Equal(t, 200, w.Code)
	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	_, hasContent := list[0]["content"]
	require.False(t, hasContent, "list view must omit content")
}

func TestSearchNotesRequiresQuery(t *testing.T) {
	ns := &stubNotes{}
	r := newTestRouter(ns, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/api/notes/search", nil)
	require.Equal(t, 400, w.Code)
	require.Equal(t, 0, ns.calls)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&stubNotes{}, &stubMaps{}, &auditRec{})
	w := doJSON(t, r, "GET", "/healthz", nil)
	require.Equal(t, 200, w.Code)
}
