package dto

import "crosswalk.app/api/internal/scm"

type CreateVibeRequest struct {
	Name string `json:"name" binding:"max=100"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type CreatePullRequestRequest struct {
	Title string `json:"title" binding:"max=256"`
	Body  string `json:"body"`
}

type PullRequestResponse struct {
	Number int64  `json:"pr_number"`
	URL    string `json:"pr_url"`
}

func ToPullRequestResponse(pr *scm.PullRequest) PullRequestResponse {
	return PullRequestResponse{Number: pr.Number, URL: pr.URL}
}

type FilesResponse struct {
	Files []scm.Entry `json:"files"`
}

type FileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type RevertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
