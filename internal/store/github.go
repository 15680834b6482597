package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const githubAPIURL = "https://api.github.com"

type GitHubConfig struct {
	APIURL  string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Timeout time.Duration
}

// GitHubStore keeps documents as files of a GitHub repository through the
// contents API. The blob SHA of a file is its revision.
type GitHubStore struct {
	client *resty.Client
	owner  string
	repo   string
	branch string
	tracer trace.Tracer
}

func NewGitHubStore(tracer trace.Tracer, cfg GitHubConfig) *GitHubStore {
	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = githubAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &GitHubStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		tracer: tracer,
	}
}

type contentResponse struct {
	Type     string `json:"type"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (s *GitHubStore) Get(ctx context.Context, path string) (*Document, error) {
	ctx, span := s.tracer.Start(ctx, "github-store.get")
	defer span.End()
	span.SetAttributes(attribute.String("store.path", path))

	req := s.client.R().SetContext(ctx)
	if s.branch != "" {
		req.SetQueryParam("ref", s.branch)
	}
	resp, err := req.Get(s.contentsPath(path))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get %s: %w", path, statusError(resp))
	}

	var body contentResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if body.Type != "" && body.Type != "file" {
		return nil, fmt.Errorf("get %s: %w", path, &APIError{StatusCode: resp.StatusCode(), Message: "not a file: " + body.Type})
	}

	var content []byte
	switch {
	case body.Encoding == "base64":
		content, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode %s content: %w", path, err)
		}
	case body.Size == 0:
		content = []byte{}
	default:
		// Files above 1MB come back without inline content.
		content, err = s.getRaw(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	return &Document{Path: path, Content: content, Revision: body.SHA}, nil
}

func (s *GitHubStore) getRaw(ctx context.Context, path string) ([]byte, error) {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github.raw+json")
	if s.branch != "" {
		req.SetQueryParam("ref", s.branch)
	}
	resp, err := req.Get(s.contentsPath(path))
	if err != nil {
		return nil, fmt.Errorf("get raw %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get raw %s: %w", path, statusError(resp))
	}
	return resp.Body(), nil
}

func (s *GitHubStore) Put(ctx context.Context, path string, content []byte, expectedRevision, message string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "github-store.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.path", path),
		attribute.Bool("store.create", expectedRevision == ""),
	)

	body := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.branch,
		SHA:     expectedRevision,
	}
	resp, err := s.client.R().SetContext(ctx).SetBody(body).Put(s.contentsPath(path))
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", fmt.Errorf("put %s: %s: %w", path, errorMessage(resp), ErrConflict)
	case http.StatusNotFound:
		if expectedRevision != "" {
			return "", fmt.Errorf("put %s: document missing: %w", path, ErrConflict)
		}
		return "", fmt.Errorf("put %s: %w", path, statusError(resp))
	default:
		return "", fmt.Errorf("put %s: %w", path, statusError(resp))
	}

	var out putResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode put response for %s: %w", path, err)
	}
	return out.Content.SHA, nil
}

func (s *GitHubStore) contentsPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(s.owner), url.PathEscape(s.repo), strings.Join(segments, "/"))
}

func statusError(resp *resty.Response) error {
	msg := errorMessage(resp)
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	default:
		return &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
}

func errorMessage(resp *resty.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(resp.Body()))
}
