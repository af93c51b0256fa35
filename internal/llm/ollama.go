package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OllamaChat talks to a local Ollama server over its NDJSON chat API.
type OllamaChat struct {
	baseURL string
	model   string
	httpc   *http.Client
}

func NewOllamaChat(baseURL, model string) *OllamaChat {
	return &OllamaChat{
		baseURL: baseURL,
		model:   model,
		httpc:   &http.Client{},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (c *OllamaChat) buildMessages(system string, history []Turn, prompt string) []ollamaMessage {
	msgs := make([]ollamaMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: system})
	}
	for _, t := range history {
		role := "user"
		if t.Role == TurnAssistant {
			role = "assistant"
		}
		msgs = append(msgs, ollamaMessage{Role: role, Content: t.Content})
	}
	return append(msgs, ollamaMessage{Role: "user", Content: prompt})
}

func (c *OllamaChat) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *OllamaChat) Stream(ctx context.Context, system string, history []Turn, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		resp, err := c.post(ctx, "/api/chat", ollamaChatRequest{
			Model:    c.model,
			Messages: c.buildMessages(system, history, prompt),
			Stream:   true,
		})
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			var line ollamaChatResponse
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				errs <- fmt.Errorf("ollama: bad stream line: %w", err)
				return
			}
			if line.Error != "" {
				errs <- errors.New("ollama: " + line.Error)
				return
			}
			if line.Message.Content != "" {
				select {
				case out <- line.Message.Content:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if line.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (c *OllamaChat) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, "/api/chat", ollamaChatRequest{
		Model:    c.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Error != "" {
		return "", errors.New("ollama: " + body.Error)
	}
	return body.Message.Content, nil
}

// OllamaEmbedder uses the legacy /api/embeddings endpoint, which every
// Ollama release in circulation still serves.
type OllamaEmbedder struct {
	baseURL string
	model   string
	httpc   *http.Client
}

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"model": e.model, "prompt": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Embedding, nil
}
