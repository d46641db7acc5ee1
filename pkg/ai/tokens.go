package ai

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// 非 openai 官方模型统一按 cl100k_base 估算
const fallbackEncoding = "cl100k_base"

var encodings sync.Map

func encodingForModel(model string) (*tiktoken.Tiktoken, error) {
	if v, ok := encodings.Load(model); ok {
		return v.(*tiktoken.Tiktoken), nil
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if tkm, err = tiktoken.GetEncoding(fallbackEncoding); err != nil {
			return nil, fmt.Errorf("encoding for model %s: %w", model, err)
		}
	}
	encodings.Store(model, tkm)
	return tkm, nil
}

// NumTokens counts the prompt tokens of a chat completion request.
// https://github.com/openai/openai-cookbook/blob/main/examples/How_to_count_tokens_with_tiktoken.ipynb
func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	tkm, err := encodingForModel(model)
	if err != nil {
		return 0, err
	}

	const tokensPerMessage, tokensPerName = 3, 1
	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		if message.Name != "" {
			numTokens += len(tkm.Encode(message.Name, nil, nil)) + tokensPerName
		}
	}
	numTokens += 3 // every reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}
