// Package catalog holds the static metadata table for known AI
// providers. It is read-only reference data consumed by provider
// scorers and scanners; nothing here touches the filesystem.
package catalog

import "strings"

// Provider describes one known AI provider.
type Provider struct {
	// ID is the canonical lowercase provider name used everywhere
	// else in the system (DiscoveredKey.Provider, registries).
	ID string

	DisplayName string

	// BaseURL is the provider's API endpoint, informational only.
	BaseURL string

	// KeyPrefixes are literal prefixes a real key starts with, most
	// specific first.
	KeyPrefixes []string

	// EnvVars are environment variable names conventionally holding
	// this provider's key.
	EnvVars []string
}

var providers = []Provider{
	{
		ID:          "openai",
		DisplayName: "OpenAI",
		BaseURL:     "https://api.openai.com/v1",
		KeyPrefixes: []string{"sk-proj-", "sk-"},
		EnvVars:     []string{"OPENAI_API_KEY"},
	},
	{
		ID:          "anthropic",
		DisplayName: "Anthropic",
		BaseURL:     "https://api.anthropic.com",
		KeyPrefixes: []string{"sk-ant-"},
		EnvVars:     []string{"ANTHROPIC_API_KEY"},
	},
	{
		ID:          "groq",
		DisplayName: "Groq",
		BaseURL:     "https://api.groq.com/openai/v1",
		KeyPrefixes: []string{"gsk_"},
		EnvVars:     []string{"GROQ_API_KEY"},
	},
	{
		ID:          "huggingface",
		DisplayName: "Hugging Face",
		BaseURL:     "https://api-inference.huggingface.co",
		KeyPrefixes: []string{"hf_"},
		EnvVars:     []string{"HUGGINGFACE_API_KEY", "HF_TOKEN"},
	},
	{
		ID:          "openrouter",
		DisplayName: "OpenRouter",
		BaseURL:     "https://openrouter.ai/api/v1",
		KeyPrefixes: []string{"sk-or-"},
		EnvVars:     []string{"OPENROUTER_API_KEY"},
	},
	{
		ID:          "mistral",
		DisplayName: "Mistral AI",
		BaseURL:     "https://api.mistral.ai/v1",
		KeyPrefixes: nil, // mistral keys carry no stable prefix
		EnvVars:     []string{"MISTRAL_API_KEY"},
	},
	{
		ID:          "google",
		DisplayName: "Google AI",
		BaseURL:     "https://generativelanguage.googleapis.com",
		KeyPrefixes: []string{"AIza"},
		EnvVars:     []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	},
	{
		ID:          "cohere",
		DisplayName: "Cohere",
		BaseURL:     "https://api.cohere.com",
		KeyPrefixes: nil,
		EnvVars:     []string{"COHERE_API_KEY", "CO_API_KEY"},
	},
	{
		ID:          "deepseek",
		DisplayName: "DeepSeek",
		BaseURL:     "https://api.deepseek.com",
		KeyPrefixes: nil, // deepseek keys reuse the ambiguous sk- shape
		EnvVars:     []string{"DEEPSEEK_API_KEY"},
	},
	{
		ID:          "together",
		DisplayName: "Together AI",
		BaseURL:     "https://api.together.xyz/v1",
		KeyPrefixes: nil,
		EnvVars:     []string{"TOGETHER_API_KEY", "TOGETHERAI_API_KEY"},
	},
	{
		ID:          "perplexity",
		DisplayName: "Perplexity",
		BaseURL:     "https://api.perplexity.ai",
		KeyPrefixes: []string{"pplx-"},
		EnvVars:     []string{"PERPLEXITY_API_KEY", "PPLX_API_KEY"},
	},
	{
		ID:          "replicate",
		DisplayName: "Replicate",
		BaseURL:     "https://api.replicate.com/v1",
		KeyPrefixes: []string{"r8_"},
		EnvVars:     []string{"REPLICATE_API_TOKEN"},
	},
	{
		ID:          "fireworks",
		DisplayName: "Fireworks AI",
		BaseURL:     "https://api.fireworks.ai/inference/v1",
		KeyPrefixes: []string{"fw_"},
		EnvVars:     []string{"FIREWORKS_API_KEY"},
	},
	{
		ID:          "moonshot",
		DisplayName: "Moonshot AI",
		BaseURL:     "https://api.moonshot.cn/v1",
		KeyPrefixes: nil, // moonshot keys reuse the ambiguous sk- shape
		EnvVars:     []string{"MOONSHOT_API_KEY"},
	},
	{
		ID:          "azure",
		DisplayName: "Azure OpenAI",
		BaseURL:     "https://openai.azure.com",
		KeyPrefixes: nil,
		EnvVars:     []string{"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_KEY"},
	},
	{
		ID:          "bedrock",
		DisplayName: "Amazon Bedrock",
		BaseURL:     "https://bedrock-runtime.us-east-1.amazonaws.com",
		KeyPrefixes: nil,
		EnvVars:     []string{"AWS_BEARER_TOKEN_BEDROCK"},
	},
	{
		ID:          "ollama",
		DisplayName: "Ollama",
		BaseURL:     "http://localhost:11434",
		KeyPrefixes: nil,
		EnvVars:     []string{"OLLAMA_API_KEY"},
	},
	{
		ID:          "litellm",
		DisplayName: "LiteLLM",
		BaseURL:     "http://localhost:4000",
		KeyPrefixes: nil,
		EnvVars:     []string{"LITELLM_API_KEY", "LITELLM_MASTER_KEY"},
	},
	{
		ID:          "xai",
		DisplayName: "xAI Grok",
		BaseURL:     "https://api.x.ai/v1",
		KeyPrefixes: []string{"xai-"},
		EnvVars:     []string{"XAI_API_KEY", "GROK_API_KEY"},
	},
	{
		ID:          "zai",
		DisplayName: "Z.ai",
		BaseURL:     "https://api.z.ai/api/paas/v4",
		KeyPrefixes: nil,
		EnvVars:     []string{"ZAI_API_KEY", "ZHIPUAI_API_KEY"},
	},
	{
		ID:          "deepinfra",
		DisplayName: "DeepInfra",
		BaseURL:     "https://api.deepinfra.com/v1/openai",
		KeyPrefixes: nil,
		EnvVars:     []string{"DEEPINFRA_API_KEY"},
	},
}

// All returns every known provider in catalog order.
func All() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// Lookup finds a provider by canonical ID.
func Lookup(id string) (Provider, bool) {
	for _, p := range providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// ByEnvVar finds the provider conventionally bound to an environment
// variable name. Used by env-style scanners to attribute keys.
func ByEnvVar(name string) (Provider, bool) {
	for _, p := range providers {
		for _, ev := range p.EnvVars {
			if ev == name {
				return p, true
			}
		}
	}
	return Provider{}, false
}

// ByKeyPrefix finds the provider whose key prefix matches the value.
// Longer prefixes win so "sk-ant-" beats "sk-".
func ByKeyPrefix(value string) (Provider, bool) {
	var best Provider
	bestLen := 0
	for _, p := range providers {
		for _, prefix := range p.KeyPrefixes {
			if len(prefix) > bestLen && strings.HasPrefix(value, prefix) {
				best = p
				bestLen = len(prefix)
			}
		}
	}
	return best, bestLen > 0
}
