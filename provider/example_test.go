package provider_test

import (
	"context"
	"fmt"
	"log"

	"agentui/model"
	"agentui/provider"
)

// ExampleNewProvider demonstrates creating an Ollama provider using the factory.
func ExampleNewProvider() {
	p, err := provider.NewProvider(provider.Config{
		Type:    provider.ProviderTypeOllama,
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T\n", p)
	// Output: Provider created: *provider.OllamaProvider
}

// ExampleNewOllamaProvider demonstrates switching the default model.
func ExampleNewOllamaProvider() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Current model: %s\n", p.GetModel())
	p.SetModel("llama3.2:latest")
	fmt.Printf("New model: %s\n", p.GetModel())

	// Output:
	// Current model: llama3.1
	// New model: llama3.2:latest
}

// ExampleOllamaProvider_Complete shows a single turn. It needs a running
// Ollama server, so it has no Output section.
func ExampleOllamaProvider_Complete() {
	p, err := provider.NewOllamaProvider("http://localhost:11434", "llama3.1")
	if err != nil {
		log.Fatal(err)
	}

	completion, err := p.Complete(context.Background(), model.CompletionRequest{
		System:   "Answer in one word.",
		Messages: []model.Message{{Role: model.RoleUser, Content: "Capital of France?"}},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(completion.Text)
}
