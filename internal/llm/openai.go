package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIChat speaks the OpenAI chat completions API. Groq, DeepSeek,
// LM Studio and custom endpoints all reuse it with a different base URL.
type OpenAIChat struct {
	client      *openai.Client
	model       string
	temperature float64
}

func NewOpenAIChat(apiKey, baseURL, model string) *OpenAIChat {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIChat{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: 0.7,
	}
}

func (c *OpenAIChat) buildMessages(system string, history []Turn, prompt string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, t := range history {
		if t.Role == TurnAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	return append(msgs, openai.UserMessage(prompt))
}

func (c *OpenAIChat) Stream(ctx context.Context, system string, history []Turn, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(c.buildMessages(system, history, prompt)),
		Model:       openai.F(c.model),
		Temperature: openai.Float(c.temperature),
	}

	go func() {
		defer close(out)
		defer close(errs)

		strm := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer strm.Close()

		for strm.Next() {
			chunk := strm.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				select {
				case out <- delta:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
		if err := strm.Err(); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (c *OpenAIChat) Invoke(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:  openai.F([]openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}),
		Model:     openai.F(c.model),
		MaxTokens: openai.Int(1),
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Message.Content, nil
}

// OpenAIEmbedder calls the embeddings endpoint of the same API family.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings([]string{text})),
		Model: openai.F(openai.EmbeddingModel(e.model)),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, nil
	}
	vec := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
