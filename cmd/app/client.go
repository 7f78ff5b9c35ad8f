package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	transportUDS  = "uds"
	transportHTTP = "http"

	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/webbudget.sock"
)

// cliConfig is persisted in ~/.webbudget/config.json after login.
type cliConfig struct {
	Transport string `json:"transport"`
	Server    string `json:"server"`
	Socket    string `json:"socket"`
	Token     string `json:"token"`
}

func (c cliConfig) useRPC() bool {
	return c.Transport != transportHTTP
}

type apiClient struct {
	httpClient *http.Client
	server     string
	token      string
}

func newAPIClient(cfg cliConfig) *apiClient {
	return &apiClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		server:     strings.TrimRight(cfg.Server, "/"),
		token:      cfg.Token,
	}
}

// request sends in as JSON and decodes the response into out. It returns
// the response headers so callers can follow Location.
func (c *apiClient) request(ctx context.Context, method, path string, in any, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(payload))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, msg)
	}
	if out == nil || resp.StatusCode == http.StatusCreated {
		return resp.Header, nil
	}
	return resp.Header, json.NewDecoder(resp.Body).Decode(out)
}

// create posts in and then loads the created resource into out.
func (c *apiClient) create(ctx context.Context, path string, in any, out any) error {
	header, err := c.request(ctx, http.MethodPost, path, in, nil)
	if err != nil {
		return err
	}
	location := header.Get("Location")
	if location == "" {
		return errors.New("api error: created resource has no location")
	}
	if out == nil {
		return nil
	}
	_, err = c.request(ctx, http.MethodGet, location, nil, out)
	return err
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".webbudget", "config.json"), nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	var cfg cliConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cliConfig{}, err
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cliConfig{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if cfg.Transport == "" {
		cfg.Transport = transportUDS
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	if cfg.Socket == "" {
		cfg.Socket = defaultSocket
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
