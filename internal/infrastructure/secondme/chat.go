package secondme

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"duoduo-bargain/internal/domain"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/internal/domain/value"
	"duoduo-bargain/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const chatModel = "secondme-chat"

// ChatClient talks to the SecondMe chat-completion endpoint. It keeps no
// conversation state between calls; history is supplied by the caller.
type ChatClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewChatClient(baseURL string, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &ChatClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Messages []bargain.ChatMessage `json:"messages"`
	Model    string                `json:"model"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Message string `json:"message"`
}

// SendMessage implements bargain.ChatClient. The persona instruction is sent
// as the leading user-role message, followed by the accumulated history and
// the new utterance. A 401 from the endpoint maps to bargain.ErrTokenExpired;
// everything else is a generic failure.
func (c *ChatClient) SendMessage(
	ctx context.Context,
	accessToken string,
	message string,
	chatCtx bargain.ChatContext,
	history []bargain.ChatMessage,
) (string, error) {
	messages := make([]bargain.ChatMessage, 0, len(history)+2)
	messages = append(messages, bargain.ChatMessage{
		Role:    value.ChatRoleUser,
		Content: chatCtx.SystemPrompt(),
	})
	messages = append(messages, history...)
	messages = append(messages, bargain.ChatMessage{
		Role:    value.ChatRoleUser,
		Content: message,
	})

	body, err := json.Marshal(chatRequest{
		Messages: messages,
		Model:    chatModel,
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", domain.WrapError(bargain.ErrTokenExpired, errcodes.AccessTokenExpired, "secondme chat")
	}

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewError(
			errcodes.ChatCompletionFailed,
			fmt.Sprintf("secondme chat: status %d", resp.StatusCode),
		)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("io.ReadAll: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", domain.WrapError(err, errcodes.ChatCompletionFailed, "secondme chat: malformed response")
	}

	if len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content, nil
	}

	return chatResp.Message, nil
}
