package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ChatResponse represents the response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AIService wraps the chat completions API behind the three prompt
// operations the app exposes. Responses are cached in Redis keyed by a
// prompt hash so repeated identical prompts do not hit the upstream API.
type AIService struct {
	apiKey string
	apiURL string
	model  string
	redis  *redis.Client
	client *http.Client
}

// NewAIService creates a new AIService instance. The Redis client is
// optional; without it responses are simply not cached.
func NewAIService(redisClient *redis.Client) (*AIService, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKeyFile := os.Getenv("OPENAI_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY or OPENAI_API_KEY_FILE must be set")
		}

		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read API key file: %w", err)
		}

		apiKey = strings.TrimSpace(string(apiKeyBytes))
		if apiKey == "" {
			return nil, fmt.Errorf("API key file is empty")
		}
	}

	apiURL := os.Getenv("OPENAI_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/chat/completions"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4"
	}

	return &AIService{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		redis:  redisClient,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// GenerateRecipe produces a full recipe text from a list of ingredients.
func (s *AIService) GenerateRecipe(ctx context.Context, ingredients []string) (string, error) {
	prompt := fmt.Sprintf(
		"Create a detailed recipe using the following ingredients: %s. Include a title, a summary, ingredients list, and step-by-step instructions.",
		strings.Join(ingredients, ", "),
	)
	return s.complete(ctx, prompt, 0.7, 700)
}

// AutoTag suggests lowercase tags for a recipe description.
func (s *AIService) AutoTag(ctx context.Context, description string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest relevant tags as comma-separated keywords for this recipe description: %q", description,
	)
	text, err := s.complete(ctx, prompt, 0.5, 60)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// GroceryList consolidates a deduplicated ingredient set into a shopping
// list.
func (s *AIService) GroceryList(ctx context.Context, ingredients []string) (string, error) {
	prompt := fmt.Sprintf(
		"Create a consolidated grocery shopping list from these ingredients:\n%s",
		strings.Join(ingredients, ", "),
	)
	return s.complete(ctx, prompt, 0.5, 200)
}

// complete sends a single-message chat completion, consulting the cache
// first.
func (s *AIService) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	cacheKey := s.cacheKey(prompt)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		}
	}

	reqBody := ChatRequest{
		Model:       s.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}

	content := result.Choices[0].Message.Content
	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, content, 24*time.Hour).Err(); err != nil {
			log.Printf("[AIService] failed to cache response: %v", err)
		}
	}
	return content, nil
}

func (s *AIService) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(s.model + "\x00" + prompt))
	return "ai:response:" + hex.EncodeToString(sum[:])
}
