// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from the environment or from a directory of
// plain-text files. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Supported key file: newsapi-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewsAPIKeyFile is the file name holding the provider credential.
const NewsAPIKeyFile = "newsapi-api-key"

// CredentialEnvVars are checked in order before the secrets directory.
var CredentialEnvVars = []string{"NEWSCLIENT_API_KEY", "NEWS_API_KEY"}

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

// Credential resolves the provider credential: the first non-blank variable
// from CredentialEnvVars, then the NewsAPIKeyFile entry of loaded. It returns
// the value and where it came from, or two empty strings.
func Credential(getenv func(string) string, loaded map[string]string) (value, source string) {
	for _, name := range CredentialEnvVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, "env:" + name
		}
	}
	if v := loaded[NewsAPIKeyFile]; v != "" {
		return v, "file:" + NewsAPIKeyFile
	}
	return "", ""
}
