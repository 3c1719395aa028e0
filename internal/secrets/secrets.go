// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openai-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// Key file and environment variable names per completion backend.
const (
	OpenAIKeyFile = "openai-api-key"
	GeminiKeyFile = "gemini-api-key"

	openaiEnvVar = "OPENAI_API_KEY"
	geminiEnvVar = "GEMINI_API_KEY"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// APIKey resolves the completion API key for a backend: an explicit key
// wins, then the loaded secret file, then the conventional environment
// variable. An empty string means no key was found.
func APIKey(loaded map[string]string, backend types.Backend, explicit string) string {
	if explicit != "" {
		return explicit
	}

	var file, env string
	switch backend {
	case types.BackendGemini:
		file, env = GeminiKeyFile, geminiEnvVar
	default:
		file, env = OpenAIKeyFile, openaiEnvVar
	}

	if v, ok := loaded[file]; ok {
		return v
	}
	return strings.TrimSpace(os.Getenv(env))
}
