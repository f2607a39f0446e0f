package generator

import "strings"

// Prompt is the message pair sent to an LLM.
type Prompt struct {
	System string
	User   string
}

// Catalog is the fixed set of prompts a cycle picks from when no prompt is supplied.
var Catalog = []string{
	"Tell me a programming joke",
	"Give me a dad joke",
	"Tell me a joke about technology",
	"Share a funny pun",
	"Tell me a clean joke about animals",
	"Give me a joke about artificial intelligence",
	"Tell me a workplace humor joke",
	"Share a joke about the internet",
	"Tell me a science joke",
	"Give me a joke about everyday life",
}

// BuildJokePrompt pairs the user's request with the fixed comedian instruction.
func BuildJokePrompt(request string) Prompt {
	return Prompt{
		System: SystemInstruction,
		User:   strings.TrimSpace(request),
	}
}
