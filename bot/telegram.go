package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://api.telegram.org"
	// MaxDownloadSize 与 Bot API getFile 的上限一致。
	MaxDownloadSize = 20 << 20
)

// ClientOptions configures a Client. The zero value talks to DefaultAPIURL.
type ClientOptions struct {
	APIURL     string
	HTTPClient *http.Client
}

// Client is a minimal Telegram Bot API client. It implements Messenger and
// Files.
type Client struct {
	token  string
	apiURL string
	http   *http.Client
}

var (
	_ Messenger = (*Client)(nil)
	_ Files     = (*Client)(nil)
)

// NewClient creates a client for the bot identified by token.
func NewClient(token string, opts ClientOptions) *Client {
	c := &Client{token: token, apiURL: strings.TrimRight(opts.APIURL, "/"), http: opts.HTTPClient}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: time.Minute}
	}
	return c
}

// apiResponse 是 Bot API 的统一响应包装。
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) methodURL(method string) string {
	return c.apiURL + "/bot" + c.token + "/" + method
}

func (c *Client) call(req *http.Request, result any) error {
	method := req.URL.Path[strings.LastIndexByte(req.URL.Path, '/')+1:]
	resp, err := c.http.Do(req)
	if err != nil {
		// 错误信息中的 URL 含 token，不向上透传
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram: 调用 %s 失败: %w", method, err)
	}
	defer resp.Body.Close()

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return fmt.Errorf("telegram: 解析 %s 响应失败 (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if !ar.OK {
		return fmt.Errorf("telegram: %s 返回错误 (HTTP %d): %s", method, resp.StatusCode, ar.Description)
	}
	if result != nil && len(ar.Result) > 0 {
		if err := json.Unmarshal(ar.Result, result); err != nil {
			return fmt.Errorf("telegram: 解析 %s 结果失败: %w", method, err)
		}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, method string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.call(req, nil)
}

// SendText sends a text message, with Markdown formatting when markdown is set.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, markdown bool) error {
	form := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if markdown {
		form.Set("parse_mode", "Markdown")
	}
	return c.postForm(ctx, "sendMessage", form)
}

// SendDocument uploads data as a document named name.
func (c *Client) SendDocument(ctx context.Context, chatID int64, name string, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("document", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.call(req, nil)
}

// Download resolves fileID with getFile and fetches the file contents.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	u := c.methodURL("getFile") + "?" + url.Values{"file_id": {fileID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(req, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram: 文件 %s 没有下载路径", fileID)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/file/bot"+c.token+"/"+file.FilePath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("telegram: 下载文件 %s 失败: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: 下载文件 %s 失败: HTTP %d", fileID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("telegram: 读取文件 %s 失败: %w", fileID, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("telegram: 文件 %s 超过 %d 字节", fileID, MaxDownloadSize)
	}
	return data, nil
}

// SetWebhook registers url as the bot's webhook. A non-empty secret is echoed
// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	form := url.Values{"url": {webhookURL}}
	if secret != "" {
		form.Set("secret_token", secret)
	}
	return c.postForm(ctx, "setWebhook", form)
}
