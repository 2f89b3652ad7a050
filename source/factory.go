package source

import (
	"fmt"
	"strings"
)

// ParseSourceType converts the value of the publish option to a SourceType
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(s) {
	case "github":
		return TypeGitHub, nil
	default:
		return "", fmt.Errorf("unknown publish target: %s (valid: github)", s)
	}
}

// NewSource creates a Source implementation based on type
func NewSource(sourceType SourceType, config Config) (Source, error) {
	switch sourceType {
	case TypeGitHub:
		if NewGitHubSource == nil {
			return nil, fmt.Errorf("source %s is not registered", sourceType)
		}
		return NewGitHubSource(config), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}

// NewGitHubSource is set by the github package when it is imported
var NewGitHubSource func(config Config) Source

func containsName(name, nameSubstring string) bool {
	return strings.Contains(name, nameSubstring)
}
