package adapter

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/notero-sync/models"
)

const (
	defaultZoteroBaseURL = "https://api.zotero.org"
	zoteroPageSize       = 100
	versionHeader        = "Last-Modified-Version"
	unmodifiedHeader     = "If-Unmodified-Since-Version"
)

// ZoteroClientConfig configures the Zotero HTTP client.
type ZoteroClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type zoteroClient struct {
	client *resty.Client
	apiKey string

	mu           sync.Mutex
	cachedUserID int64
}

// NewZoteroClient constructs a ZoteroAdapter backed by the Zotero Web API.
// Rate-limited requests (429) are retried after the server-announced delay.
func NewZoteroClient(cfg ZoteroClientConfig) ZoteroAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultZoteroBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Zotero-API-Key", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(1).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if after := resp.Header().Get("Retry-After"); after != "" {
				if secs, err := strconv.Atoi(after); err == nil {
					return time.Duration(secs) * time.Second, nil
				}
			}
			return 5 * time.Second, nil
		})

	return &zoteroClient{client: cli, apiKey: cfg.APIKey}
}

// resolveLibraryID replaces library id 0 in user-library references with the
// numeric user id of the configured API key (resolved once, then cached).
func (z *zoteroClient) resolveLibraryID(ctx context.Context, libraryType string, libraryID int64) (int64, error) {
	if libraryType != "users" || libraryID != 0 {
		return libraryID, nil
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	if z.cachedUserID != 0 {
		return z.cachedUserID, nil
	}

	resp, err := z.client.R().
		SetContext(ctx).
		Get("/keys/" + z.apiKey)
	if err != nil {
		return 0, fmt.Errorf("resolve user id request: %w", err)
	}
	if err = mapZoteroError(resp); err != nil {
		return 0, err
	}

	var key struct {
		UserID int64 `json:"userID"`
	}
	if err = json.Unmarshal(resp.Body(), &key); err != nil {
		return 0, fmt.Errorf("decode key response: %w", err)
	}

	z.cachedUserID = key.UserID
	return key.UserID, nil
}

func (z *zoteroClient) GetItem(ctx context.Context, libraryType string, libraryID int64, itemKey string) (models.ZoteroItem, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return models.ZoteroItem{}, err
	}

	resp, err := z.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s/%d/items/%s", libraryType, libraryID, itemKey))
	if err != nil {
		return models.ZoteroItem{}, fmt.Errorf("get item request: %w", err)
	}
	if err = mapZoteroError(resp); err != nil {
		return models.ZoteroItem{}, err
	}

	return decodeItem(resp)
}

func (z *zoteroClient) PatchItem(ctx context.Context, libraryType string, libraryID int64, itemKey string, patch models.ItemPatch, version int64) (int64, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return 0, err
	}

	resp, err := z.client.R().
		SetContext(ctx).
		SetHeader(unmodifiedHeader, strconv.FormatInt(version, 10)).
		SetBody(patch).
		Patch(fmt.Sprintf("/%s/%d/items/%s", libraryType, libraryID, itemKey))
	if err != nil {
		return 0, fmt.Errorf("patch item request: %w", err)
	}
	if err = mapZoteroError(resp); err != nil {
		return 0, err
	}

	return headerVersion(resp, version), nil
}

func (z *zoteroClient) CreateNote(ctx context.Context, libraryType string, libraryID int64, parentKey, noteHTML string, tags []models.Tag) (models.ZoteroItem, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return models.ZoteroItem{}, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}

	payload := []map[string]any{{
		"itemType":   "note",
		"parentItem": parentKey,
		"note":       noteHTML,
		"tags":       tags,
	}}

	return z.createItems(ctx, libraryType, libraryID, payload)
}

func (z *zoteroClient) CreateItem(ctx context.Context, libraryType string, libraryID int64, data map[string]any) (models.ZoteroItem, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return models.ZoteroItem{}, err
	}
	return z.createItems(ctx, libraryType, libraryID, []map[string]any{data})
}

func (z *zoteroClient) createItems(ctx context.Context, libraryType string, libraryID int64, payload []map[string]any) (models.ZoteroItem, error) {
	resp, err := z.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(fmt.Sprintf("/%s/%d/items", libraryType, libraryID))
	if err != nil {
		return models.ZoteroItem{}, fmt.Errorf("create item request: %w", err)
	}
	if err = mapZoteroError(resp); err != nil {
		return models.ZoteroItem{}, err
	}

	var result struct {
		Successful map[string]struct {
			Key     string                     `json:"key"`
			Version int64                      `json:"version"`
			Data    map[string]json.RawMessage `json:"data"`
		} `json:"successful"`
		Failed map[string]struct {
			Message string `json:"message"`
		} `json:"failed"`
	}
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.ZoteroItem{}, fmt.Errorf("decode create response: %w", err)
	}

	created, ok := result.Successful["0"]
	if !ok {
		if failure, failed := result.Failed["0"]; failed {
			return models.ZoteroItem{}, fmt.Errorf("create item rejected: %s", failure.Message)
		}
		return models.ZoteroItem{}, fmt.Errorf("create item: empty response")
	}

	item := models.ZoteroItem{Key: created.Key, Version: created.Version, Raw: created.Data}
	if err = remarshal(created.Data, &item.Data); err != nil {
		return models.ZoteroItem{}, fmt.Errorf("decode created item data: %w", err)
	}
	return item, nil
}

func (z *zoteroClient) DeleteItem(ctx context.Context, libraryType string, libraryID int64, itemKey string, version int64) error {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return err
	}

	resp, err := z.client.R().
		SetContext(ctx).
		SetHeader(unmodifiedHeader, strconv.FormatInt(version, 10)).
		Delete(fmt.Sprintf("/%s/%d/items/%s", libraryType, libraryID, itemKey))
	if err != nil {
		return fmt.Errorf("delete item request: %w", err)
	}
	return mapZoteroError(resp)
}

func (z *zoteroClient) GetChildren(ctx context.Context, libraryType string, libraryID int64, itemKey, itemType string) ([]models.ZoteroItem, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return nil, err
	}

	req := z.client.R().SetContext(ctx)
	if itemType != "" {
		req.SetQueryParam("itemType", itemType)
	}

	resp, err := req.Get(fmt.Sprintf("/%s/%d/items/%s/children", libraryType, libraryID, itemKey))
	if err != nil {
		return nil, fmt.Errorf("get children request: %w", err)
	}
	if err = mapZoteroError(resp); err != nil {
		return nil, err
	}

	var raw []itemEnvelope
	if err = json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("decode children response: %w", err)
	}

	items := make([]models.ZoteroItem, 0, len(raw))
	for _, env := range raw {
		item, err := env.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (z *zoteroClient) GetCollections(ctx context.Context, libraryType string, libraryID int64) ([]models.Collection, error) {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return nil, err
	}

	var collections []models.Collection
	start := 0

	for {
		resp, err := z.client.R().
			SetContext(ctx).
			SetQueryParam("start", strconv.Itoa(start)).
			SetQueryParam("limit", strconv.Itoa(zoteroPageSize)).
			Get(fmt.Sprintf("/%s/%d/collections", libraryType, libraryID))
		if err != nil {
			return nil, fmt.Errorf("get collections request: %w", err)
		}
		if err = mapZoteroError(resp); err != nil {
			return nil, err
		}

		var page []struct {
			Key  string `json:"key"`
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		}
		if err = json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("decode collections response: %w", err)
		}

		for _, col := range page {
			collections = append(collections, models.Collection{Key: col.Key, Name: col.Data.Name})
		}

		if len(page) < zoteroPageSize {
			break
		}
		start += zoteroPageSize
	}

	return collections, nil
}

// UploadAttachment creates an imported_file attachment item under parentKey
// and uploads the file bytes using Zotero's if-none-match upload flow. A 304
// from the upload authorization step means the identical file is already
// stored and is treated as success.
func (z *zoteroClient) UploadAttachment(ctx context.Context, libraryType string, libraryID int64, parentKey, path string) error {
	libraryID, err := z.resolveLibraryID(ctx, libraryType, libraryID)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment file: %w", err)
	}

	filename := filepath.Base(path)
	attachment := map[string]any{
		"itemType":    "attachment",
		"linkMode":    "imported_file",
		"parentItem":  parentKey,
		"title":       filename,
		"filename":    filename,
		"contentType": "application/pdf",
	}

	item, err := z.createItems(ctx, libraryType, libraryID, []map[string]any{attachment})
	if err != nil {
		return fmt.Errorf("create attachment item: %w", err)
	}

	sum := md5.Sum(payload)
	resp, err := z.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("If-None-Match", "*").
		SetFormData(map[string]string{
			"md5":      hex.EncodeToString(sum[:]),
			"filename": filename,
			"filesize": strconv.Itoa(len(payload)),
			"mtime":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		Post(fmt.Sprintf("/%s/%d/items/%s/file", libraryType, libraryID, item.Key))
	if err != nil {
		return fmt.Errorf("authorize upload request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotModified {
		return nil
	}
	if err = mapZoteroError(resp); err != nil {
		return err
	}

	var auth struct {
		URL       string `json:"url"`
		Prefix    string `json:"prefix"`
		Suffix    string `json:"suffix"`
		UploadKey string `json:"uploadKey"`
		Exists    int    `json:"exists"`
	}
	if err = json.Unmarshal(resp.Body(), &auth); err != nil {
		return fmt.Errorf("decode upload authorization: %w", err)
	}
	if auth.Exists == 1 {
		return nil
	}

	body := append(append([]byte(auth.Prefix), payload...), []byte(auth.Suffix)...)
	upload, err := z.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(body).
		Post(auth.URL)
	if err != nil {
		return fmt.Errorf("upload file request: %w", err)
	}
	if upload.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("upload file: http %d", upload.StatusCode())
	}

	register, err := z.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("If-None-Match", "*").
		SetFormData(map[string]string{"upload": auth.UploadKey}).
		Post(fmt.Sprintf("/%s/%d/items/%s/file", libraryType, libraryID, item.Key))
	if err != nil {
		return fmt.Errorf("register upload request: %w", err)
	}
	return mapZoteroError(register)
}

type itemEnvelope struct {
	Key     string                     `json:"key"`
	Version int64                      `json:"version"`
	Data    map[string]json.RawMessage `json:"data"`
}

func (e itemEnvelope) toItem() (models.ZoteroItem, error) {
	item := models.ZoteroItem{Key: e.Key, Version: e.Version, Raw: e.Data}
	if err := remarshal(e.Data, &item.Data); err != nil {
		return models.ZoteroItem{}, fmt.Errorf("decode item data: %w", err)
	}
	return item, nil
}

func decodeItem(resp *resty.Response) (models.ZoteroItem, error) {
	var env itemEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return models.ZoteroItem{}, fmt.Errorf("decode item response: %w", err)
	}

	item, err := env.toItem()
	if err != nil {
		return models.ZoteroItem{}, err
	}
	item.Version = headerVersion(resp, env.Version)
	return item, nil
}

func remarshal(raw map[string]json.RawMessage, into *models.ItemData) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, into)
}

func headerVersion(resp *resty.Response, fallback int64) int64 {
	if v := resp.Header().Get(versionHeader); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func mapZoteroError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	switch code {
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: current version %d", ErrVersionConflict, headerVersion(resp, 0))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Request.URL)
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}
	return fmt.Errorf("zotero http %d: %s", code, body)
}
