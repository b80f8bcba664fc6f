package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/notero-sync/internal/notion"
	"github.com/MKhiriev/notero-sync/models"
)

const (
	defaultNotionBaseURL = "https://api.notion.com/v1"
	notionAPIVersion     = "2022-06-28"
	notionPageSize       = 100
)

// NotionClientConfig configures the Notion HTTP client.
type NotionClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type notionClient struct {
	client *resty.Client
}

// NewNotionClient constructs a NotionAdapter backed by the Notion REST API.
func NewNotionClient(cfg NotionClientConfig) NotionAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNotionBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Notion-Version", notionAPIVersion).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() == http.StatusTooManyRequests
		})

	return &notionClient{client: cli}
}

func (n *notionClient) GetPage(ctx context.Context, pageID string) (models.Page, error) {
	resp, err := n.client.R().
		SetContext(ctx).
		Get("/pages/" + pageID)
	if err != nil {
		return models.Page{}, fmt.Errorf("get page request: %w", err)
	}
	if err = mapNotionError(resp); err != nil {
		return models.Page{}, err
	}

	var page models.Page
	if err = json.Unmarshal(resp.Body(), &page); err != nil {
		return models.Page{}, fmt.Errorf("decode page response: %w", err)
	}
	return page, nil
}

func (n *notionClient) GetPageProperties(ctx context.Context, pageID string) (models.PageProperties, error) {
	page, err := n.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return notion.ExtractPageProperties(page.Properties), nil
}

type blockChildrenResponse struct {
	Results    []models.Block `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

func (n *notionClient) GetBlockChildren(ctx context.Context, blockID string, recursive bool) ([]models.Block, error) {
	var blocks []models.Block
	cursor := ""

	for {
		req := n.client.R().
			SetContext(ctx).
			SetQueryParam("page_size", fmt.Sprint(notionPageSize))
		if cursor != "" {
			req.SetQueryParam("start_cursor", cursor)
		}

		resp, err := req.Get("/blocks/" + blockID + "/children")
		if err != nil {
			return nil, fmt.Errorf("get block children request: %w", err)
		}
		if err = mapNotionError(resp); err != nil {
			return nil, err
		}

		var page blockChildrenResponse
		if err = json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("decode block children response: %w", err)
		}

		blocks = append(blocks, page.Results...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if recursive {
		for i := range blocks {
			if !blocks[i].HasChildren {
				continue
			}
			children, err := n.GetBlockChildren(ctx, blocks[i].ID, true)
			if err != nil {
				return nil, err
			}
			blocks[i].Children = children
		}
	}

	return blocks, nil
}

type databaseQueryRequest struct {
	PageSize    int             `json:"page_size"`
	StartCursor string          `json:"start_cursor,omitempty"`
	Filter      json.RawMessage `json:"filter,omitempty"`
}

type databaseQueryResponse struct {
	Results    []models.Page `json:"results"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor"`
}

func (n *notionClient) QueryAllPages(ctx context.Context, databaseID string) ([]models.Page, error) {
	return n.queryPages(ctx, databaseID, nil)
}

func (n *notionClient) QueryPagesChangedSince(ctx context.Context, databaseID string, since string) ([]models.Page, error) {
	filter, err := json.Marshal(map[string]any{
		"timestamp": "last_edited_time",
		"last_edited_time": map[string]string{
			"on_or_after": since,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode changed-since filter: %w", err)
	}
	return n.queryPages(ctx, databaseID, filter)
}

func (n *notionClient) queryPages(ctx context.Context, databaseID string, filter json.RawMessage) ([]models.Page, error) {
	var pages []models.Page
	cursor := ""

	for {
		body := databaseQueryRequest{PageSize: notionPageSize, StartCursor: cursor, Filter: filter}

		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(body).
			Post("/databases/" + databaseID + "/query")
		if err != nil {
			return nil, fmt.Errorf("query database request: %w", err)
		}
		if err = mapNotionError(resp); err != nil {
			return nil, err
		}

		var page databaseQueryResponse
		if err = json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("decode database query response: %w", err)
		}

		pages = append(pages, page.Results...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	return pages, nil
}

func mapNotionError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL)
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}
	return fmt.Errorf("notion http %d: %s", code, body)
}
