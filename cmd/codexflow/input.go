package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const defaultSystemPrompt = "You are a helpful coding assistant."

// loadSystemPrompt reads the system prompt file. A missing default file
// yields the built-in prompt; any other failure is an error.
func loadSystemPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return strings.TrimSpace(string(data)), nil
	case errors.Is(err, fs.ErrNotExist) && path == defaultPromptPath:
		return defaultSystemPrompt, nil
	default:
		return "", fmt.Errorf("read system prompt: %w", err)
	}
}

// readPrompt joins args into the prompt. Without args, a piped stdin is read
// to the end; an interactive stdin yields an empty prompt.
func readPrompt(args []string, stdin io.Reader, interactive bool) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	if interactive {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
