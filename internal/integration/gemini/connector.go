package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/entity"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Connector talks to the Gemini API. The client is created lazily on
// the first call so the process can boot without credentials; a send
// attempted with an empty API key surfaces entity.ErrConfigMissing.
type Connector struct {
	config config.GeminiConnectorConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *genai.Client
	chats  map[string]*genai.ChatSession
}

func NewConnector(
	cfg config.GeminiConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config: cfg,
		logger: logger,
		chats:  make(map[string]*genai.ChatSession),
	}
}

func (c *Connector) ensureClient(ctx context.Context) (*genai.Client, error) {
	if c.config.APIKey == "" {
		return nil, entity.ErrConfigMissing
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	c.logger.Info("gemini client initialized", zap.String("model", c.config.Model))
	return client, nil
}

// StartConversation opens a chat session with the given system framing
// and returns an opaque handle for subsequent turns.
func (c *Connector) StartConversation(ctx context.Context, systemFraming string) (string, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(c.config.Model)
	if systemFraming != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemFraming)},
		}
	}

	id := uuid.New().String()
	c.mu.Lock()
	c.chats[id] = model.StartChat()
	c.mu.Unlock()

	ctxzap.Info(ctx, "conversation started",
		zap.String("conversation_id", id),
		zap.String("model", c.config.Model),
	)
	return id, nil
}

// SendTurn sends one text turn on an open conversation. History is
// kept server-side in the chat session.
func (c *Connector) SendTurn(ctx context.Context, conversationID, text string) (string, error) {
	c.mu.Lock()
	chat, ok := c.chats[conversationID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown conversation: %s", conversationID)
	}

	ctxzap.Debug(ctx, "sending turn",
		zap.String("conversation_id", conversationID),
		zap.Int("text_length", len(text)),
	)

	resp, err := retry.DoWithData(func() (*genai.GenerateContentResponse, error) {
		return chat.SendMessage(ctx, genai.Text(text))
	}, c.config.Retry.ToRetryOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("send turn: %w", err)
	}

	reply := flattenResponse(resp)
	ctxzap.Info(ctx, "turn completed", zap.Int("reply_length", len(reply)))
	return reply, nil
}

// GenerateOnce performs a stateless multimodal call: attachments are
// decoded from their transport payload and sent inline. Turns with
// attachments deliberately bypass the chat history.
func (c *Connector) GenerateOnce(ctx context.Context, text string, attachments []entity.AttachmentRef) (string, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]genai.Part, 0, len(attachments)+1)
	for _, att := range attachments {
		data, err := base64.StdEncoding.DecodeString(att.EncodedPayload)
		if err != nil {
			return "", fmt.Errorf("decode attachment %q: %w", att.Name, err)
		}
		parts = append(parts, genai.Blob{MIMEType: att.MimeType, Data: data})
	}
	if text != "" {
		parts = append(parts, genai.Text(text))
	}

	ctxzap.Info(ctx, "stateless generate",
		zap.Int("attachment_count", len(attachments)),
		zap.Int("text_length", len(text)),
	)

	model := client.GenerativeModel(c.config.Model)
	resp, err := retry.DoWithData(func() (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx, parts...)
	}, c.config.Retry.ToRetryOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return flattenResponse(resp), nil
}

// EndConversation drops the chat session. Unknown handles are ignored.
func (c *Connector) EndConversation(conversationID string) {
	c.mu.Lock()
	delete(c.chats, conversationID)
	c.mu.Unlock()
}

// Close releases the underlying API client.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// flattenResponse concatenates the text parts of the first candidate.
// A response with no usable text yields an empty string, never an
// error: the caller decides how to present an empty reply.
func flattenResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
