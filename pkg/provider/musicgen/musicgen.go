// Package musicgen is a client for MusicGen models served through the
// Hugging Face inference API.
package musicgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/igolaizola/moodtune/pkg/provider"
)

const defaultModel = "facebook/musicgen-small"

type Client struct {
	client  *http.Client
	baseURL string
	token   string
	model   string
	debug   bool
}

type Config struct {
	Client  *http.Client
	BaseURL string
	Token   string
	Model   string
	Debug   bool
}

func New(cfg *Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/models"
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
		token:   cfg.Token,
		model:   model,
		debug:   cfg.Debug,
	}
}

func (c *Client) Name() string {
	return "musicgen"
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

type request struct {
	Inputs string `json:"inputs"`
}

// Generate posts the prompt to the inference endpoint and returns the binary
// audio response.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(request{Inputs: prompt})
	if err != nil {
		return nil, fmt.Errorf("musicgen: couldn't marshal request body: %w", err)
	}
	u := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	c.log("musicgen: post %s %s", u, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("musicgen: couldn't create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("musicgen: couldn't post prompt: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("musicgen: couldn't read response body: %w", err)
	}
	c.log("musicgen: response %d (%d bytes)", resp.StatusCode, len(respBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.Error{Status: resp.StatusCode, Body: string(respBody)}
	}
	if len(respBody) == 0 {
		return nil, &provider.Error{Status: resp.StatusCode, Body: "empty audio payload"}
	}
	return respBody, nil
}
