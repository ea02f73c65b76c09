package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// enoughContextThreshold is the average similarity above which the
// retrieved context is considered sufficient to answer.
const enoughContextThreshold = 0.7

// SourceDocument is one retrieved context entry handed to the synthesizer.
type SourceDocument struct {
	Contents   string
	Similarity float64
}

// SynthesisResult is the synthesized answer with its reasoning trail.
type SynthesisResult struct {
	Answer         string
	ThoughtProcess []string
	EnoughContext  bool
}

// Synthesizer turns a question and retrieved context into a prose answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, sources []SourceDocument) (*SynthesisResult, error)
}

type synthesizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewSynthesizer creates a Synthesizer backed by an OpenAI-compatible chat
// completion endpoint.
func NewSynthesizer(cfg *LLMConfig) Synthesizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &synthesizer{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

const synthesizerSystemPrompt = `You are an assistant specialized in manga and books.
You answer questions based only on the provided context.
If the context is not sufficient to answer the question, say so clearly.
Be precise and concise in your answers.`

func (s *synthesizer) Synthesize(ctx context.Context, question string, sources []SourceDocument) (*SynthesisResult, error) {
	if len(sources) == 0 {
		return &SynthesisResult{
			Answer:         "I could not find relevant information to answer your question in my database.",
			ThoughtProcess: []string{"No relevant context found by the similarity search"},
			EnoughContext:  false,
		}, nil
	}

	var contextText strings.Builder
	var similaritySum float64
	for _, source := range sources {
		fmt.Fprintf(&contextText, "Source (similarity: %.3f):\n%s\n\n", source.Similarity, source.Contents)
		similaritySum += source.Similarity
	}
	avgSimilarity := similaritySum / float64(len(sources))
	enoughContext := avgSimilarity > enoughContextThreshold

	userPrompt := fmt.Sprintf(`Question: %s

Available context:
%s
Answer the question based only on the provided context. If the context is not sufficient, state it clearly.`, question, contextText.String())

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: synthesizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, newProviderError(err)
	}
	slog.Info("synthesis completed",
		"model", s.model,
		"sources", len(sources),
		"duration", time.Since(start))

	if len(resp.Choices) == 0 {
		return nil, newProviderError(fmt.Errorf("empty completion response"))
	}

	sufficiency := "insufficient"
	if enoughContext {
		sufficiency = "sufficient"
	}

	return &SynthesisResult{
		Answer: resp.Choices[0].Message.Content,
		ThoughtProcess: []string{
			fmt.Sprintf("Search returned %d results", len(sources)),
			fmt.Sprintf("Average similarity: %.3f", avgSimilarity),
			fmt.Sprintf("Context %s to answer", sufficiency),
		},
		EnoughContext: enoughContext,
	}, nil
}

// newHTTPClient builds an HTTP client with sane connection settings for
// long-running completion requests.
func newHTTPClient(timeoutSeconds int) *http.Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	return &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
