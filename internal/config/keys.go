package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "sk-...abc"
}

// CheckAPIKeys returns the status of all credentials the application uses.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("OpenAI API Key", cfg.LLM.OpenAIKey, "FINNEWS_LLM_OPENAI_KEY", "OPENAI_API_KEY"),
		checkKey("Gemini API Key", cfg.LLM.GeminiKey, "FINNEWS_LLM_GEMINI_KEY", "GEMINI_API_KEY"),
		checkKey("News API Key", cfg.News.APIKey, "FINNEWS_NEWS_API_KEY", "NEWS_API_KEY"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value == "" {
		status.Source = KeySourceNone
		return status
	}

	status.Source = KeySourceConfig
	for _, ev := range envVars {
		if os.Getenv(ev) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = MaskKey(value)
	return status
}

// MaskKey masks an API key for display, showing only first 3 and last 3 chars.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// Redacted returns a copy of cfg with every credential masked.
func Redacted(cfg *Config) Config {
	out := *cfg
	out.LLM.OpenAIKey = maskIfSet(cfg.LLM.OpenAIKey)
	out.LLM.GeminiKey = maskIfSet(cfg.LLM.GeminiKey)
	out.News.APIKey = maskIfSet(cfg.News.APIKey)
	out.News.Feeds = append([]string(nil), cfg.News.Feeds...)
	out.API.CORSOrigins = append([]string(nil), cfg.API.CORSOrigins...)
	return out
}

func maskIfSet(key string) string {
	if key == "" {
		return ""
	}
	return MaskKey(key)
}
