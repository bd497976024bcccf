package gemini

import (
	"context"
	"encoding/json"
	"strings"
)

const endpointPrimary = "primary"

type nativeRequest struct {
	Contents         []nativeContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type nativeContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []nativePart `json:"parts"`
}

type nativePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type nativeResponse struct {
	Candidates []struct {
		Content nativeContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) nativeRequest(prompt string, p params) nativeRequest {
	return nativeRequest{
		Contents: []nativeContent{{
			Role:  "user",
			Parts: []nativePart{{Text: c.cfg.Persona + "\n\n" + prompt}},
		}},
		GenerationConfig: generationConfig{
			Temperature:     p.temperature,
			TopK:            p.topK,
			TopP:            p.topP,
			MaxOutputTokens: p.maxOutputTokens,
		},
	}
}

func (c *Client) callNative(ctx context.Context, req nativeRequest) (string, error) {
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	body, err := c.post(ctx, endpointPrimary, c.cfg.PrimaryURL, headers, req)
	if err != nil {
		return "", err
	}

	var out nativeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &MalformedResponseError{Endpoint: endpointPrimary, Reason: "decode response", Body: truncateBody(body), Err: err}
	}
	text, ok := candidateText(out)
	if !ok {
		return "", &MalformedResponseError{Endpoint: endpointPrimary, Reason: "no candidate text", Body: truncateBody(body)}
	}
	return text, nil
}

// candidateText joins the text fragments of the first candidate that has any.
func candidateText(resp nativeResponse) (string, bool) {
	for _, candidate := range resp.Candidates {
		fragments := make([]string, 0, len(candidate.Content.Parts))
		hasText := false
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				hasText = true
			}
			fragments = append(fragments, part.Text)
		}
		if !hasText {
			continue
		}
		text := strings.TrimSpace(strings.Join(fragments, "\n"))
		if text == "" {
			continue
		}
		return text, true
	}
	return "", false
}
