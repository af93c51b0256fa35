package llm

import (
	"context"
	"errors"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// GeminiClient owns the Vertex AI connection. One client serves every
// Gemini model; Chat derives cheap per-model handles from it.
type GeminiClient struct {
	c *vertexgenai.Client
}

func NewGeminiClient(ctx context.Context, projectID, location string) (*GeminiClient, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{c: c}, nil
}

func (g *GeminiClient) Close() error { return g.c.Close() }

// Chat returns a handle for one model name over the shared connection.
func (g *GeminiClient) Chat(modelName string) *GeminiChat {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiChat{model: g.c.GenerativeModel(modelName)}
}

// GeminiChat wraps one Vertex AI generative model handle.
type GeminiChat struct {
	model *vertexgenai.GenerativeModel
}

func geminiHistory(history []Turn) []*vertexgenai.Content {
	out := make([]*vertexgenai.Content, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == TurnAssistant {
			role = "model"
		}
		out = append(out, &vertexgenai.Content{
			Role:  role,
			Parts: []vertexgenai.Part{vertexgenai.Text(t.Content)},
		})
	}
	return out
}

func (g *GeminiChat) Stream(ctx context.Context, system string, history []Turn, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	// The model handle is shared between requests, so the system text is
	// folded into the prompt instead of mutating SystemInstruction.
	if system != "" {
		prompt = system + "\n\n" + prompt
	}

	go func() {
		defer close(out)
		defer close(errs)

		cs := g.model.StartChat()
		cs.History = geminiHistory(history)

		it := cs.SendMessageStream(ctx, vertexgenai.Text(prompt))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
						select {
						case out <- string(t):
						case <-ctx.Done():
							errs <- ctx.Err()
							return
						}
					}
				}
			}
		}
	}()

	return out, errs
}

func (g *GeminiChat) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				return string(t), nil
			}
		}
	}
	return "", errors.New("gemini: empty response")
}
