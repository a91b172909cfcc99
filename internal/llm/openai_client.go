// ABOUTME: OpenAI client for embeddings and structured memory extraction
// ABOUTME: text-embedding-3-small for vectors, gpt-4o-mini for extraction (configurable)
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mrbrandonmills/professor-carl-memory/internal/config"
	"github.com/mrbrandonmills/professor-carl-memory/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for extraction calls
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// MemoryCandidate is one structured memory proposed by the extraction model
type MemoryCandidate struct {
	Kind        string  `json:"kind"`     // "user_fact" or "relational_note"
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Importance  float64 `json:"importance"`  // 0-1
	Confidence  float64 `json:"confidence"`  // 0-1
	Granularity string  `json:"granularity"` // utterance | turn | session
	Arousal     float64 `json:"arousal"`     // text-derived estimate, 0-1
	Valence     float64 `json:"valence"`     // text-derived estimate, -1..1
	Emotion     string  `json:"emotion"`
}

// StrategyCandidate is a detected (topic, strategy, outcome) triple
type StrategyCandidate struct {
	Topic    string `json:"topic"`
	Strategy string `json:"strategy"`
	Outcome  string `json:"outcome"`
	Evidence string `json:"evidence"`
}

// OpenAIClient wraps the OpenAI API with retry and timeout handling
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClient creates a client from configuration
func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	embeddingModel := openai.EmbeddingModel(cfg.EmbeddingModel)
	if cfg.EmbeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAIClient{
		client:         openai.NewClient(cfg.OpenAIKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
	}, nil
}

// GenerateEmbedding generates an embedding vector for the given text
func (c *OpenAIClient) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64

	err := util.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embeddings returned")
		}

		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", c.maxRetries+1, err)
	}

	return embedding, nil
}

// ExtractMemories prompts the extraction model with a formatted transcript
// and parses the structured memory candidates it proposes. A parse failure
// is returned as an error; callers on the write path treat it as "nothing
// extracted" rather than propagating.
func (c *OpenAIClient) ExtractMemories(ctx context.Context, transcript string) ([]MemoryCandidate, error) {
	systemPrompt := `You are the long-term memory of a one-on-one tutor. Given a tutoring session transcript, extract memories worth keeping about this student.

Each memory must be a JSON object with:
- kind: "user_fact" (something about the student) or "relational_note" (something about how tutoring this student goes)
- content: one or two full sentences, self-contained
- category: one of personal_fact, preference, interest, goal, struggle, breakthrough, misconception, teaching_success, teaching_failure
- importance: 0.0-1.0, how much future sessions should weigh this
- confidence: 0.0-1.0, how certain the transcript supports it
- granularity: "utterance", "turn", or "session" depending on how much of the conversation the memory summarizes
- arousal: 0.0-1.0, emotional intensity of the moment
- valence: -1.0 to 1.0, negative to positive
- emotion: a single lowercase word naming the dominant emotion

Return ONLY a JSON array of such objects. No additional text. Return [] when nothing is worth remembering. Do not invent facts that are not in the transcript.`

	userPrompt := fmt.Sprintf("Extract memories from this session:\n\n%s", transcript)

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0.1)
	if err != nil {
		return nil, err
	}

	var candidates []MemoryCandidate
	if err := json.Unmarshal([]byte(stripFences(content)), &candidates); err != nil {
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}

	return candidates, nil
}

// ExtractStrategy analyzes a transcript for a single teaching-strategy
// observation. Returns (nil, nil) when the exchange was not instructional.
func (c *OpenAIClient) ExtractStrategy(ctx context.Context, transcript string) (*StrategyCandidate, error) {
	systemPrompt := `You observe one-on-one tutoring sessions and identify which teaching strategy was used and whether it worked.

Return ONLY a JSON object with:
- topic: short free-text name of what was being taught
- strategy: one of visual, analogy, socratic_questioning, worked_examples, storytelling, step_by_step, real_world_application, gamification, repetition, peer_explanation
- outcome: one of breakthrough, partial_success, no_progress, confusion
- evidence: a short quote from the transcript supporting the outcome

If the exchange was not instructional (small talk, scheduling, venting), return exactly: {"topic": ""}`

	userPrompt := fmt.Sprintf("Analyze this session:\n\n%s", transcript)

	content, err := c.complete(ctx, systemPrompt, userPrompt, 0.2)
	if err != nil {
		return nil, err
	}

	var candidate StrategyCandidate
	if err := json.Unmarshal([]byte(stripFences(content)), &candidate); err != nil {
		return nil, fmt.Errorf("failed to parse strategy output: %w", err)
	}

	if strings.TrimSpace(candidate.Topic) == "" {
		return nil, nil // no strategy detected
	}

	return &candidate, nil
}

// complete runs one chat completion with retries and returns the raw content
func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	var content string

	err := util.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}

		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries+1, err)
	}

	return content, nil
}

// stripFences removes markdown code fences some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
