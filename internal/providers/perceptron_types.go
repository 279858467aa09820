package providers

// Perceptron chat completions wire types

type perceptronRequest struct {
	Messages            []perceptronMessage `json:"messages"`
	Model               string              `json:"model"`
	MaxCompletionTokens *int                `json:"max_completion_tokens,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	TopP                *float64            `json:"top_p,omitempty"`
	TopK                *int                `json:"top_k,omitempty"`
	FrequencyPenalty    *float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64            `json:"presence_penalty,omitempty"`
}

type perceptronMessage struct {
	Role    Role `json:"role"`
	Content any  `json:"content"` // string or []perceptronContent
}

type perceptronContent struct {
	Type     PartType       `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *perceptronURL `json:"image_url,omitempty"`
	VideoURL *perceptronURL `json:"video_url,omitempty"`
}

type perceptronURL struct {
	URL string `json:"url"`
}

type perceptronResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content          *string `json:"content"`
			ReasoningContent *string `json:"reasoning_content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func toPerceptronRequest(req *ChatRequest, model string) perceptronRequest {
	out := perceptronRequest{
		Messages:            make([]perceptronMessage, 0, len(req.Messages)),
		Model:               model,
		MaxCompletionTokens: req.MaxCompletionTokens,
		Temperature:         req.Temperature,
		TopP:                req.TopP,
		TopK:                req.TopK,
		FrequencyPenalty:    req.FrequencyPenalty,
		PresencePenalty:     req.PresencePenalty,
	}

	for _, m := range req.Messages {
		if m.Role == RoleSystem || len(m.Parts) == 0 {
			out.Messages = append(out.Messages, perceptronMessage{Role: m.Role, Content: m.Text})
			continue
		}

		parts := make([]perceptronContent, 0, len(m.Parts))
		for _, p := range m.Parts {
			c := perceptronContent{Type: p.Type}
			switch p.Type {
			case PartText:
				c.Text = p.Text
			case PartImageURL:
				c.ImageURL = &perceptronURL{URL: p.URL}
			case PartVideoURL:
				c.VideoURL = &perceptronURL{URL: p.URL}
			}
			parts = append(parts, c)
		}
		out.Messages = append(out.Messages, perceptronMessage{Role: m.Role, Content: parts})
	}
	return out
}
