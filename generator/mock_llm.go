package generator

import (
	"context"
	"fmt"
	"hash/fnv"
)

// MockLLM is an offline provider for local runs; it never calls a vendor API.
// The same prompt always yields the same joke.
type MockLLM struct{}

var mockJokes = []string{
	"I told my computer I needed a break, and it said: \"No problem, I'll go to sleep.\"",
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I'm reading a book about anti-gravity. It's impossible to put down.",
	"Why did the scarecrow win an award? He was outstanding in his field.",
}

func (MockLLM) Name() string { return ProviderMock }

func (MockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt.User))
	joke := mockJokes[int(h.Sum32()%uint32(len(mockJokes)))]
	return fmt.Sprintf("  %s\n", joke), nil
}
