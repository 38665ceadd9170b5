package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	fastshot "github.com/opus-domini/fast-shot"

	"github.com/csvguard/csvguard-backend/internal/editor"
	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// Client talks to the project API over HTTP and implements
// editor.Collaborator. The bearer token is taken from the identity at
// construction time.
type Client struct {
	http fastshot.ClientHttpMethods
}

// New builds a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, identity editor.Identity) *Client {
	b := fastshot.NewClient(baseURL)
	if identity != nil && identity.Token() != "" {
		b.Auth().BearerToken(identity.Token())
	}
	return &Client{
		http: b.Config().SetTimeout(30 * time.Second).
			Config().SetFollowRedirects(true).
			Build(),
	}
}

type envelope struct {
	OK             bool               `json:"ok"`
	Error          string             `json:"error"`
	Errors         map[string]string  `json:"errors"`
	Message        string             `json:"message"`
	ProjectID      int64              `json:"project_id"`
	Project        *editor.RemoteProject `json:"project"`
	Projects       []domain.Project   `json:"projects"`
	Validations    []catalogEntry     `json:"validaciones"`
	RowErrors      []domain.RowError  `json:"errores"`
	ExpectedFields []string           `json:"campos_esperados"`
}

type catalogEntry struct {
	RuleName string `json:"nombre_regla"`
}

func (c *Client) FetchProject(ctx context.Context, id int64) (*editor.RemoteProject, error) {
	resp, err := c.http.GET(fmt.Sprintf("/api/v1/projects/projectsById/%d", id)).
		Context().Set(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	defer resp.Body().Close()

	env, err := decode(resp)
	if err != nil {
		return nil, err
	}
	if env.Project == nil {
		return nil, fmt.Errorf("fetch project: empty response")
	}
	return env.Project, nil
}

func (c *Client) FetchRuleCatalog(ctx context.Context) ([]string, error) {
	resp, err := c.http.GET("/api/v1/validations/").
		Context().Set(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body().Close()

	env, err := decode(resp)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(env.Validations))
	for _, entry := range env.Validations {
		names = append(names, entry.RuleName)
	}
	return names, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	resp, err := c.http.GET("/api/v1/projects/projects").
		Context().Set(ctx).
		Send()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer resp.Body().Close()

	env, err := decode(resp)
	if err != nil {
		return nil, err
	}
	return env.Projects, nil
}

func (c *Client) CreateProject(ctx context.Context, p *domain.Project) (int64, error) {
	resp, err := c.http.PUT("/api/v1/projects/").
		Context().Set(ctx).
		Body().AsJSON(p).
		Send()
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	defer resp.Body().Close()

	env, err := decode(resp)
	if err != nil {
		return 0, err
	}
	return env.ProjectID, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int64, p *domain.Project) error {
	resp, err := c.http.PUT(fmt.Sprintf("/api/v1/projects/%d", id)).
		Context().Set(ctx).
		Body().AsJSON(p).
		Send()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	defer resp.Body().Close()

	_, err = decode(resp)
	return err
}

func (c *Client) DeleteProjects(ctx context.Context, ids []int64) error {
	resp, err := c.http.DELETE("/api/v1/projects/delete").
		Context().Set(ctx).
		Body().AsJSON(map[string][]int64{"project_ids": ids}).
		Send()
	if err != nil {
		return fmt.Errorf("delete projects: %w", err)
	}
	defer resp.Body().Close()

	_, err = decode(resp)
	return err
}

func (c *Client) UploadDataset(ctx context.Context, projectID int64, filename string, file []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("upload dataset: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return fmt.Errorf("upload dataset: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload dataset: %w", err)
	}

	resp, err := c.http.POST(fmt.Sprintf("/api/v1/projects/upload/%d", projectID)).
		Context().Set(ctx).
		Header().Add("Content-Type", w.FormDataContentType()).
		Body().AsReader(&buf).
		Send()
	if err != nil {
		return fmt.Errorf("upload dataset: %w", err)
	}
	defer resp.Body().Close()

	if resp.Status().IsError() {
		var env envelope
		if err := resp.Body().AsJSON(&env); err != nil {
			return fmt.Errorf("upload dataset: status %d", resp.Status().Code())
		}
		switch resp.Status().Code() {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", editor.ErrNotFound, env.Error)
		case http.StatusBadRequest:
			return &editor.IngestRejection{
				Message:        env.Error,
				RowErrors:      env.RowErrors,
				ExpectedFields: env.ExpectedFields,
			}
		default:
			return fmt.Errorf("upload dataset: %s", env.Error)
		}
	}
	return nil
}

// decode parses the common response envelope and maps error statuses onto
// the collaborator error types.
func decode(resp *fastshot.Response) (*envelope, error) {
	var env envelope
	if err := resp.Body().AsJSON(&env); err != nil {
		if resp.Status().IsError() {
			return nil, fmt.Errorf("request failed: status %d", resp.Status().Code())
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if resp.Status().IsError() {
		switch resp.Status().Code() {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", editor.ErrNotFound, env.Error)
		case http.StatusBadRequest:
			return nil, &editor.RemoteRejection{Message: env.Error, FieldErrors: env.Errors}
		default:
			if env.Error != "" {
				return nil, fmt.Errorf("request failed: %s", env.Error)
			}
			return nil, fmt.Errorf("request failed: status %d", resp.Status().Code())
		}
	}
	return &env, nil
}
