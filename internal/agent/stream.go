package agent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fanvise/fanvise/internal/models"
)

// Stream sentinels. The client strips both; other consumers see them as
// literal text, so the moves token is only emitted when moves exist.
const (
	HeartbeatToken    = "[[FV_STREAM_READY]]"
	movesTokenPrefix  = "[[FV_MOVES:"
	movesTokenSuffix  = "]]"
)

// EncodeMoves packs the structured optimizer payload into the terminal
// stream sentinel.
func EncodeMoves(payload models.MovesPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode moves payload: %w", err)
	}
	return movesTokenPrefix + base64.StdEncoding.EncodeToString(raw) + movesTokenSuffix, nil
}

// streamChunkWords is the delta granularity for simulated streaming.
// Providers here return whole completions, so the stream layer re-chunks.
const streamChunkWords = 8

// StreamChunks renders an orchestrator output as an ordered series of
// stream deltas. The moves sentinel, when present, is always the final
// chunk so the client can cut the text cleanly.
func StreamChunks(out *Output) ([]string, error) {
	var chunks []string
	words := strings.Fields(out.Answer)
	for i := 0; i < len(words); i += streamChunkWords {
		end := i + streamChunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}

	if len(out.RankedMoves) > 0 {
		token, err := EncodeMoves(models.MovesPayload{
			Moves:       out.RankedMoves,
			FetchedAt:   out.FetchedAt,
			WindowStart: out.WindowStart,
			WindowEnd:   out.WindowEnd,
		})
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, token)
	}
	return chunks, nil
}

// DecodeMoves unpacks a moves sentinel token.
func DecodeMoves(token string) (*models.MovesPayload, error) {
	if !strings.HasPrefix(token, movesTokenPrefix) || !strings.HasSuffix(token, movesTokenSuffix) {
		return nil, fmt.Errorf("not a moves token")
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(token, movesTokenPrefix), movesTokenSuffix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode moves token: %w", err)
	}
	var payload models.MovesPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moves payload: %w", err)
	}
	return &payload, nil
}
