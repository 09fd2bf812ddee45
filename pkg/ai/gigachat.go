package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultGigaChatBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	defaultGigaChatAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultGigaChatModel   = "GigaChat-2-Pro"
	defaultGigaChatScope   = "GIGACHAT_API_PERS"
)

// GigaChatClient calls the GigaChat API: OAuth token exchange, image upload
// into the service's file storage, and chat completion with attachments.
type GigaChatClient struct {
	authKey    string
	baseURL    string
	authURL    string
	model      string
	scope      string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// GigaChatOption overrides a client default.
type GigaChatOption func(*GigaChatClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) GigaChatOption {
	return func(c *GigaChatClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithAuthURL overrides the OAuth endpoint.
func WithAuthURL(authURL string) GigaChatOption {
	return func(c *GigaChatClient) { c.authURL = authURL }
}

// WithModel selects the chat model.
func WithModel(model string) GigaChatOption {
	return func(c *GigaChatClient) {
		if strings.TrimSpace(model) != "" {
			c.model = strings.TrimSpace(model)
		}
	}
}

// WithInsecureTLS disables certificate verification. The GigaChat endpoints
// are served with the Russian Trusted CA chain, which is absent from most
// system trust stores.
func WithInsecureTLS() GigaChatOption {
	return func(c *GigaChatClient) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// NewGigaChatClient constructs a client with the provided base64 auth key.
func NewGigaChatClient(authKey string, options ...GigaChatOption) (*GigaChatClient, error) {
	authKey = strings.TrimSpace(authKey)
	if authKey == "" {
		return nil, fmt.Errorf("gigachat auth key required")
	}
	c := &GigaChatClient{
		authKey:    authKey,
		baseURL:    defaultGigaChatBaseURL,
		authURL:    defaultGigaChatAuthURL,
		model:      defaultGigaChatModel,
		scope:      defaultGigaChatScope,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c, nil
}

// Extract uploads each image to the service's file storage and asks the chat
// model to answer the instructions with the uploads attached. Single attempt,
// no retries; every failure is reported as ErrExtraction.
func (c *GigaChatClient) Extract(ctx context.Context, images [][]byte, instructions string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: auth: %w", ErrExtraction, err)
	}
	attachments := make([]string, 0, len(images))
	for i, image := range images {
		fileID, err := c.uploadImage(ctx, token, fmt.Sprintf("page-%d.jpg", i+1), image)
		if err != nil {
			return "", fmt.Errorf("%w: upload image %d: %w", ErrExtraction, i+1, err)
		}
		attachments = append(attachments, fileID)
	}
	text, err := c.chat(ctx, token, instructions, attachments)
	if err != nil {
		return "", fmt.Errorf("%w: chat: %w", ErrExtraction, err)
	}
	return text, nil
}

// token returns a cached access token, exchanging the auth key when the
// cached one is missing or about to expire.
func (c *GigaChatClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Add(30*time.Second).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+c.authKey)
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", apiError("oauth", resp)
	}
	var body oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("oauth response without access token")
	}
	c.accessToken = body.AccessToken
	c.tokenExpiry = time.UnixMilli(body.ExpiresAt)
	return c.accessToken, nil
}

func (c *GigaChatClient) uploadImage(ctx context.Context, token, filename string, image []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", apiError("upload", resp)
	}
	var body fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("upload response without file id")
	}
	return body.ID, nil
}

func (c *GigaChatClient) chat(ctx context.Context, token, instructions string, attachments []string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:        "user",
				Content:     instructions,
				Attachments: attachments,
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", apiError("chat", resp)
	}
	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("empty response from gigachat")
	}
	return body.Choices[0].Message.Content, nil
}

func apiError(operation string, resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	if body.Message != "" {
		return fmt.Errorf("gigachat %s error: %s", operation, body.Message)
	}
	return fmt.Errorf("gigachat %s error: %s", operation, resp.Status)
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type fileResponse struct {
	ID string `json:"id"`
}

type chatMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Message string `json:"message"`
}
