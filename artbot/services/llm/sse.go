// artbot/services/llm/sse.go
package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"artbot/artbot/utils/logging"

	"go.uber.org/zap"
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message *struct {
			Content string `json:"content"`
		} `json:"message,omitempty"`
	} `json:"choices"`
}

// decodeStream turns an SSE-framed chat-completions body into an ordered
// sequence of content deltas. The channel is closed on the [DONE] sentinel,
// on EOF (a stream that just ends is not an error; the caller keeps whatever
// it accumulated), or when ctx is cancelled. Malformed JSON fragments are
// skipped: partial frames at chunk boundaries must not abort an otherwise
// good response.
func decodeStream(ctx context.Context, body io.Reader) <-chan string {
	ch := make(chan string)

	go func() {
		defer close(ch)

		reader := bufio.NewReader(body)

		for {
			select {
			case <-ctx.Done():
				logging.AppLogger.Info("stream decode cancelled")
				return
			default:
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					logging.ErrorLogger.Error("stream read error", zap.Error(err))
				}
				return
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// SSE comments and non-data fields are ignored.
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			if data == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				logging.ErrorLogger.Error("stream JSON parse error",
					zap.Error(err), zap.String("raw_line", data))
				continue
			}

			for _, choice := range chunk.Choices {
				delta := choice.Delta.Content
				if delta == "" && choice.Message != nil {
					delta = choice.Message.Content
				}
				if delta == "" {
					continue
				}
				select {
				case ch <- delta:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}
