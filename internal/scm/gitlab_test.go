package scm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"crosswalk.app/api/core/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GitLab gateway", func() {
	var (
		ctx     context.Context
		mock    *gitlabRepoMock
		gateway Gateway
	)

	BeforeEach(func() {
		ctx = context.Background()
		mock = newGitLabRepoMock()
		mock.start()
		DeferCleanup(mock.close)

		var err error
		gateway, err = NewGitLabGateway(config.SCMConfig{
			Provider: "gitlab",
			Token:    "glpat-test",
			BaseURL:  mock.server.URL,
			Project:  "42",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("CreateBranch", func() {
		It("is idempotent", func() {
			first, err := gateway.CreateBranch(ctx, "vibe/alice-k2j")
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Name).To(Equal("vibe/alice-k2j"))
			Expect(first.SHA).To(Equal("main-sha"))

			second, err := gateway.CreateBranch(ctx, "vibe/alice-k2j")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.SHA).To(Equal(first.SHA))
			Expect(mock.branchCreates).To(Equal(2))
		})

		It("fails on other host errors", func() {
			mock.failBranchCreate = http.StatusForbidden

			_, err := gateway.CreateBranch(ctx, "vibe/bob-1")

			var scmErr *Error
			Expect(errors.As(err, &scmErr)).To(BeTrue())
			Expect(scmErr.Op).To(Equal("create branch"))
		})
	})

	Describe("CreatePullRequest", func() {
		It("returns the same merge request when one is already open", func() {
			_, err := gateway.CreateBranch(ctx, "vibe/alice-k2j")
			Expect(err).NotTo(HaveOccurred())

			first, err := gateway.CreatePullRequest(ctx, "vibe/alice-k2j", "Vibe: blue header", "")
			Expect(err).NotTo(HaveOccurred())
			second, err := gateway.CreatePullRequest(ctx, "vibe/alice-k2j", "Vibe: blue header", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Number).To(Equal(first.Number))
			Expect(mock.mrCreates).To(Equal(1))
		})
	})

	Describe("GetFile", func() {
		It("decodes the file content", func() {
			mock.files["main:src/App.tsx"] = "export default App"

			f, err := gateway.GetFile(ctx, "src/App.tsx", "main")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Content).To(Equal("export default App"))
		})

		It("returns nil without error when absent", func() {
			f, err := gateway.GetFile(ctx, "src/Missing.tsx", "main")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(BeNil())
		})
	})

	Describe("CommitFiles", func() {
		It("creates new files, updates existing ones and deletes without content", func() {
			mock.files["vibe/a:src/App.tsx"] = "old"
			mock.files["vibe/a:src/Old.tsx"] = "old"

			c, err := gateway.CommitFiles(ctx, "vibe/a", []FileChange{
				{Path: "src/App.tsx", Content: "new", Action: ActionUpsert},
				{Path: "src/New.tsx", Content: "fresh", Action: ActionUpsert},
				{Path: "src/Old.tsx", Action: ActionDelete},
			}, "Update app")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ShortSHA()).To(Equal("abcdef1"))

			Expect(mock.lastActions).To(HaveLen(3))
			Expect(mock.lastActions[0]).To(Equal(commitAction{Action: "update", FilePath: "src/App.tsx", Content: "new"}))
			Expect(mock.lastActions[1]).To(Equal(commitAction{Action: "create", FilePath: "src/New.tsx", Content: "fresh"}))
			Expect(mock.lastActions[2]).To(Equal(commitAction{Action: "delete", FilePath: "src/Old.tsx"}))
		})
	})

	Describe("CompareBranch", func() {
		It("counts commits both ways and lists changed files", func() {
			mock.compare = map[string]compareResult{
				"main..vibe/a": {commits: 2, files: []string{"src/App.tsx"}},
				"vibe/a..main": {commits: 1},
			}

			cmp := gateway.CompareBranch(ctx, "vibe/a")
			Expect(cmp).To(Equal(Comparison{AheadBy: 2, BehindBy: 1, Files: []string{"src/App.tsx"}}))
		})

		It("degrades to an empty comparison on host failure", func() {
			mock.failCompare = true
			Expect(gateway.CompareBranch(ctx, "vibe/a")).To(Equal(Comparison{}))
		})
	})

	Describe("ListFiles", func() {
		It("maps trees to directories", func() {
			mock.tree["src"] = []treeNode{
				{Name: "components", Path: "src/components", Type: "tree"},
				{Name: "App.tsx", Path: "src/App.tsx", Type: "blob"},
			}

			entries := gateway.ListFiles(ctx, "src", "vibe/a")
			Expect(entries).To(Equal([]Entry{
				{Name: "components", Path: "src/components", Kind: EntryDir},
				{Name: "App.tsx", Path: "src/App.tsx", Kind: EntryFile},
			}))
		})

		It("returns an empty list for a missing path", func() {
			Expect(gateway.ListFiles(ctx, "nope", "vibe/a")).To(BeEmpty())
		})
	})

	Describe("ResetBranchToProduction", func() {
		It("recreates the branch from production", func() {
			mock.branches["vibe/a"] = "stale-sha"

			Expect(gateway.ResetBranchToProduction(ctx, "vibe/a")).To(Succeed())
			Expect(mock.branches["vibe/a"]).To(Equal("main-sha"))
		})

		It("refuses to touch production", func() {
			Expect(gateway.ResetBranchToProduction(ctx, "main")).To(HaveOccurred())
		})
	})

	It("builds tree URLs from the instance and project", func() {
		Expect(gateway.TreeURL("vibe/a")).To(Equal(mock.server.URL + "/42/-/tree/vibe%2Fa"))
	})
})

// --- test fixtures ---

type commitAction struct {
	Action   string `json:"action"`
	FilePath string `json:"file_path"`
	Content  string `json:"content,omitempty"`
}

type treeNode struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

type compareResult struct {
	commits int
	files   []string
}

type gitlabRepoMock struct {
	server           *httptest.Server
	branches         map[string]string
	files            map[string]string
	tree             map[string][]treeNode
	compare          map[string]compareResult
	lastActions      []commitAction
	mrs              map[string]int
	branchCreates    int
	mrCreates        int
	failBranchCreate int
	failCompare      bool
	mu               sync.Mutex
}

func newGitLabRepoMock() *gitlabRepoMock {
	return &gitlabRepoMock{
		branches: map[string]string{"main": "main-sha"},
		files:    map[string]string{},
		tree:     map[string][]treeNode{},
		compare:  map[string]compareResult{},
		mrs:      map[string]int{},
	}
}

const projectPrefix = "/api/v4/projects/42"

func (m *gitlabRepoMock) start() {
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, projectPrefix)
		switch {
		case path == "/repository/branches" && r.Method == http.MethodPost:
			m.handleCreateBranch(w, r)
		case strings.HasPrefix(path, "/repository/branches/") && r.Method == http.MethodGet:
			m.handleGetBranch(w, strings.TrimPrefix(path, "/repository/branches/"))
		case strings.HasPrefix(path, "/repository/branches/") && r.Method == http.MethodDelete:
			delete(m.branches, strings.TrimPrefix(path, "/repository/branches/"))
			w.WriteHeader(http.StatusNoContent)
		case strings.HasPrefix(path, "/repository/files/"):
			m.handleFile(w, r, strings.TrimPrefix(path, "/repository/files/"))
		case path == "/repository/commits" && r.Method == http.MethodPost:
			m.handleCommit(w, r)
		case path == "/repository/compare":
			m.handleCompare(w, r)
		case path == "/repository/tree":
			m.handleTree(w, r)
		case path == "/merge_requests" && r.Method == http.MethodGet:
			m.handleListMRs(w, r)
		case path == "/merge_requests" && r.Method == http.MethodPost:
			m.handleCreateMR(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
}

func (m *gitlabRepoMock) close() {
	m.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *gitlabRepoMock) branchJSON(name string) map[string]any {
	return map[string]any{"name": name, "commit": map[string]any{"id": m.branches[name]}}
}

func (m *gitlabRepoMock) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	m.branchCreates++
	if m.failBranchCreate != 0 {
		writeJSON(w, m.failBranchCreate, map[string]string{"message": "forbidden"})
		return
	}

	var body struct {
		Branch string `json:"branch"`
		Ref    string `json:"ref"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if _, ok := m.branches[body.Branch]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Branch already exists"})
		return
	}
	m.branches[body.Branch] = m.branches[body.Ref]
	writeJSON(w, http.StatusCreated, m.branchJSON(body.Branch))
}

func (m *gitlabRepoMock) handleGetBranch(w http.ResponseWriter, name string) {
	if _, ok := m.branches[name]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 Branch Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, m.branchJSON(name))
}

func (m *gitlabRepoMock) handleFile(w http.ResponseWriter, r *http.Request, filePath string) {
	content, ok := m.files[r.URL.Query().Get("ref")+":"+filePath]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 File Not Found"})
		return
	}
	w.Header().Set("X-Gitlab-File-Path", filePath)
	w.Header().Set("X-Gitlab-Blob-Id", "blob-1")
	w.Header().Set("X-Gitlab-Size", strconv.Itoa(len(content)))
	w.Header().Set("X-Gitlab-Execute-Filemode", "false")
	writeJSON(w, http.StatusOK, map[string]any{
		"file_path": filePath,
		"encoding":  "base64",
		"content":   base64.StdEncoding.EncodeToString([]byte(content)),
		"blob_id":   "blob-1",
	})
}

func (m *gitlabRepoMock) handleCommit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Branch  string         `json:"branch"`
		Actions []commitAction `json:"actions"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	m.lastActions = body.Actions
	writeJSON(w, http.StatusCreated, map[string]any{"id": "abcdef1234567890", "web_url": "https://gitlab.test/c/abcdef1"})
}

func (m *gitlabRepoMock) handleCompare(w http.ResponseWriter, r *http.Request) {
	if m.failCompare {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "403 Forbidden"})
		return
	}
	res := m.compare[r.URL.Query().Get("from")+".."+r.URL.Query().Get("to")]
	commits := make([]map[string]any, res.commits)
	for i := range commits {
		commits[i] = map[string]any{"id": "c"}
	}
	diffs := make([]map[string]any, 0, len(res.files))
	for _, f := range res.files {
		diffs = append(diffs, map[string]any{"old_path": f, "new_path": f})
	}
	writeJSON(w, http.StatusOK, map[string]any{"commits": commits, "diffs": diffs})
}

func (m *gitlabRepoMock) handleTree(w http.ResponseWriter, r *http.Request) {
	nodes, ok := m.tree[r.URL.Query().Get("path")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 Tree Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (m *gitlabRepoMock) handleListMRs(w http.ResponseWriter, r *http.Request) {
	out := []map[string]any{}
	if iid, ok := m.mrs[r.URL.Query().Get("source_branch")]; ok && r.URL.Query().Get("state") == "opened" {
		out = append(out, map[string]any{"iid": iid, "web_url": "https://gitlab.test/mr/1"})
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *gitlabRepoMock) handleCreateMR(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourceBranch string `json:"source_branch"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	m.mrCreates++
	iid := len(m.mrs) + 1
	m.mrs[body.SourceBranch] = iid
	writeJSON(w, http.StatusCreated, map[string]any{"iid": iid, "web_url": "https://gitlab.test/mr/1"})
}
