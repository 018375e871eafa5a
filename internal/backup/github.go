package backup

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubStorage хранит копию файла в репозитории через contents API.
// Маркером ревизии служит sha блоба: PUT без актуального sha
// отклоняется, что защищает от потерянных обновлений.
type GitHubStorage struct {
	client  *http.Client
	baseURL string
	repo    string
	path    string
	token   string
}

func NewGitHubStorage(repo, path, token string) *GitHubStorage {
	return &GitHubStorage{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultGitHubAPI,
		repo:    repo,
		path:    path,
		token:   token,
	}
}

func (g *GitHubStorage) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", g.baseURL, g.repo, g.path)
}

func (g *GitHubStorage) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// Fetch получает текущее содержимое и sha удаленного файла
func (g *GitHubStorage) Fetch(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	// API отдает base64 с переводами строк внутри
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode content: %w", err)
	}

	return raw, contents.SHA, nil
}

type uploadRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

// Upload записывает содержимое поверх ревизии sha
func (g *GitHubStorage) Upload(ctx context.Context, content []byte, revision string) error {
	payload, err := json.Marshal(uploadRequest{
		Message: "database backup " + time.Now().UTC().Format(time.RFC3339),
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     revision,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return nil
}
