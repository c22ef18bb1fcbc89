package config

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed persona.yaml
var defaultPersona []byte

// Persona is the bot's configured identity: the system prompt sent with every
// provider request, the welcome message seeded into new chats, and the canned
// quick-reply prompts shown in the UI. It is data, not logic; a custom file
// can replace the embedded default wholesale.
type Persona struct {
	SystemPrompt   string       `yaml:"system_prompt"`
	WelcomeMessage string       `yaml:"welcome_message"`
	QuickReplies   []QuickReply `yaml:"quick_replies"`
}

type QuickReply struct {
	ID       string `yaml:"id" json:"id"`
	Text     string `yaml:"text" json:"text"`
	Category string `yaml:"category" json:"category"`
}

// LoadPersona reads the persona from path, or the embedded default when path
// is empty.
func LoadPersona(path string) (Persona, error) {
	raw := defaultPersona
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Persona{}, err
		}
		raw = b
	}

	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Persona{}, err
	}
	return p, nil
}
