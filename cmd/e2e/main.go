package main

// 端到端巡检客户端：对运行中的服务跑一遍笔记与导图的完整用例，
// 用于部署后的冒烟验证。只依赖对外 HTTP 接口。

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var verbose bool
var baseURL *url.URL

// scenario 封装一次端到端巡检过程中共享的资源。
type scenario struct {
	client *http.Client
	noteID string
}

func banner(title string) {
	log.Printf("\n=== %s ===", title)
}

func step(format string, args ...interface{}) {
	log.Printf(" • "+format, args...)
}

// envelope 对应服务端统一的响应信封。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func main() {
	var base string
	flag.StringVar(&base, "base", "http://127.0.0.1:8080", "service base url")
	flag.BoolVar(&verbose, "v", false, "dump response bodies")
	flag.Parse()

	var err error
	baseURL, err = url.Parse(base)
	if err != nil {
		log.Fatalf("bad base url: %v", err)
	}
	s := &scenario{client: &http.Client{Timeout: 10 * time.Second}}

	banner("health")
	s.mustGet("/healthz", 200)

	banner("note lifecycle")
	s.createNote()
	s.fetchNote(200)
	s.updateNote()
	s.searchNote()

	banner("mindmap lifecycle")
	s.fetchMindmap(404)
	s.saveMindmap()
	s.fetchMindmap(200)
	// 第二次读取应命中缓存，结果需一致
	s.fetchMindmap(200)
	s.deleteMindmap()
	s.fetchMindmap(404)

	banner("cleanup")
	s.deleteNote()
	s.fetchNote(404)

	banner("edge cases")
	s.mustGet("/api/notes/ ", 400)
	s.mustGet("/api/notes/no-such-note", 404)

	log.Println("\nall checks passed")
}

func (s *scenario) do(method, path string, body interface{}, wantStatus int) envelope {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	u := *baseURL
	u.Path = path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.Path = path[:i]
		u.RawQuery = path[i+1:]
	}
	req, err := http.NewRequest(method, u.String(), rd)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if verbose {
		log.Printf("   %s %s -> %d %s", method, path, resp.StatusCode, string(raw))
	}
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: want status %d, got %d (%s)", method, path, wantStatus, resp.StatusCode, string(raw))
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Fatalf("%s %s: bad envelope: %v", method, path, err)
		}
	}
	return env
}

func (s *scenario) mustGet(path string, wantStatus int) {
	step("GET %s expecting %d", path, wantStatus)
	s.do("GET", path, nil, wantStatus)
}

func (s *scenario) createNote() {
	step("create note")
	env := s.do("POST", "/api/notes", map[string]interface{}{
		"title":   fmt.Sprintf("e2e note %d", time.Now().Unix()),
		"content": "# heading\n\nbody text",
		"tags":    []string{"e2e"},
	}, 201)
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.ID == "" {
		log.Fatalf("create note: no id in response")
	}
	s.noteID = data.ID
	step("note id: %s", s.noteID)
}

func (s *scenario) fetchNote(wantStatus int) {
	step("fetch note expecting %d", wantStatus)
	s.do("GET", "/api/notes/"+s.noteID, nil, wantStatus)
}

func (s *scenario) updateNote() {
	step("pin note")
	pinned := true
	env := s.do("PUT", "/api/notes/"+s.noteID, map[string]interface{}{"pinned": pinned}, 200)
	var data struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || !data.Pinned {
		log.Fatalf("update note: pinned flag not applied")
	}
}

func (s *scenario) searchNote() {
	step("search note")
	env := s.do("GET", "/api/notes/search?q=e2e", nil, 200)
	if !env.Success {
		log.Fatalf("search: envelope not successful")
	}
}

func (s *scenario) saveMindmap() {
	step("save mindmap")
	doc := map[string]interface{}{
		"title":  "e2e map",
		"layout": "right",
		"root": map[string]interface{}{
			"id":    "root",
			"label": "center",
			"children": []map[string]interface{}{
				{"id": "a", "label": "first"},
				{"id": "b", "label": "second"},
			},
		},
	}
	env := s.do("PUT", "/api/notes/"+s.noteID+"/mindmap", doc, 200)
	var data struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Version < 1 {
		log.Fatalf("save mindmap: missing version")
	}
}

func (s *scenario) fetchMindmap(wantStatus int) {
	step("fetch mindmap expecting %d", wantStatus)
	s.do("GET", "/api/notes/"+s.noteID+"/mindmap", nil, wantStatus)
}

func (s *scenario) deleteMindmap() {
	step("delete mindmap")
	s.do("DELETE", "/api/notes/"+s.noteID+"/mindmap", nil, 204)
}

func (s *scenario) deleteNote() {
	step("delete note")
	s.do("DELETE", "/api/notes/"+s.noteID, nil, 204)
}
