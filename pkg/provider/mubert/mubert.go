// Package mubert is a client for the Mubert text-to-music API. A generation
// is two round trips: record a track for the prompt, then download the
// rendered audio from the returned link.
package mubert

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

type Client struct {
	client  *http.Client
	baseURL string
	token   string
	debug   bool
}

type Config struct {
	Client  *http.Client
	BaseURL string
	Token   string
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
		baseURL = "https://api-b2b.mubert.com/v2"
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
		token:   cfg.Token,
		debug:   cfg.Debug,
	}
}

func (c *Client) Name() string {
	return "mubert"
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

type recordRequest struct {
	Method string       `json:"method"`
	Params recordParams `json:"params"`
}

type recordParams struct {
	Token string `json:"pat"`
	Text  string `json:"text"`
	Mode  string `json:"mode"`
}

type recordResponse struct {
	Status int `json:"status"`
	Data   struct {
		Tasks []struct {
			DownloadLink string `json:"download_link"`
		} `json:"tasks"`
	} `json:"data"`
}

// Generate records a track for the prompt and downloads the audio.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(recordRequest{
		Method: "RecordTrackTTM",
		Params: recordParams{
			Token: c.token,
			Text:  prompt,
			Mode:  "track",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't marshal request body: %w", err)
	}
	u := fmt.Sprintf("%s/RecordTrackTTM", c.baseURL)
	c.log("mubert: post %s %s", u, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't post prompt: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't read response body: %w", err)
	}
	c.log("mubert: response %d %s", resp.StatusCode, string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.Error{Status: resp.StatusCode, Body: string(respBody)}
	}
	var record recordResponse
	if err := json.Unmarshal(respBody, &record); err != nil {
		return nil, &provider.Error{Status: resp.StatusCode, Body: string(respBody)}
	}
	if record.Status != 1 || len(record.Data.Tasks) == 0 || record.Data.Tasks[0].DownloadLink == "" {
		return nil, &provider.Error{Status: resp.StatusCode, Body: string(respBody)}
	}
	return c.download(ctx, record.Data.Tasks[0].DownloadLink)
}

func (c *Client) download(ctx context.Context, u string) ([]byte, error) {
	c.log("mubert: download %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't download track: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mubert: couldn't read track: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.Error{Status: resp.StatusCode, Body: string(b)}
	}
	if len(b) == 0 {
		return nil, &provider.Error{Status: resp.StatusCode, Body: "empty audio payload"}
	}
	return b, nil
}
