// Command codexflow sends prompts to a LiteLLM gateway and streams the answers.
//
// Usage:
//
//	codexflow [flags] [prompt...]
//	echo "explain this diff" | codexflow -plain
//
// Without -plain and with a terminal on stdout, codexflow starts a chat TUI
// and submits the prompt, if any, as the first turn. The model "cf-x" runs
// the plan/code/review pipeline instead of a single completion.
//
// Flags:
//
//	-base-url string         Gateway URL (env LITELLM_BASE_URL, default http://localhost:4000)
//	-api-key string          Gateway key (env LITELLM_API_KEY)
//	-model string            Model ID (env LITELLM_MODEL)
//	-prompt-cache            Annotate prompts for caching (env LITELLM_PROMPT_CACHE)
//	-temperature string      Sampling temperature (env CODEXFLOW_TEMPERATURE)
//	-orchestrator-url string cf-x orchestrator URL (env CODEXFLOW_ORCHESTRATOR_URL)
//	-system-prompt string    Path to system prompt file (default: .codexflow/prompt.md)
//	-env-file string         Path to a .env file (default: .env)
//	-plain                   Print the answer to stdout instead of starting the TUI
//	-no-stream               Use a single non-streaming completion
//	-models                  List the gateway's model catalog and exit
//	-log-file string         Write logs to a file (the TUI discards them otherwise)
//	-debug                   Enable debug logs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/codexflow/codexflow"
	bt "github.com/codexflow/codexflow/bubbletea"
	"github.com/codexflow/codexflow/litellm"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"goa.design/clue/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	defaultPromptPath = ".codexflow/prompt.md"
	defaultEnvPath    = ".env"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "codexflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL      = flag.String("base-url", "", "Gateway URL (env LITELLM_BASE_URL)")
		apiKey       = flag.String("api-key", "", "Gateway key (env LITELLM_API_KEY)")
		model        = flag.String("model", "", "Model ID (env LITELLM_MODEL)")
		promptCache  = flag.Bool("prompt-cache", false, "Annotate prompts for caching (env LITELLM_PROMPT_CACHE)")
		temperature  = flag.String("temperature", "", "Sampling temperature (env CODEXFLOW_TEMPERATURE)")
		orchestrator = flag.String("orchestrator-url", "", "cf-x orchestrator URL (env CODEXFLOW_ORCHESTRATOR_URL)")
		promptPath   = flag.String("system-prompt", defaultPromptPath, "Path to system prompt file")
		envPath      = flag.String("env-file", defaultEnvPath, "Path to a .env file")
		plain        = flag.Bool("plain", false, "Print the answer to stdout instead of starting the TUI")
		noStream     = flag.Bool("no-stream", false, "Use a single non-streaming completion")
		listModels   = flag.Bool("models", false, "List the gateway's model catalog and exit")
		logFile      = flag.String("log-file", "", "Write logs to a file")
		debug        = flag.Bool("debug", false, "Enable debug logs")
	)
	flag.Parse()

	if err := loadEnvFile(*envPath); err != nil {
		return err
	}

	f := flags{
		BaseURL:      *baseURL,
		APIKey:       *apiKey,
		Model:        *model,
		Temperature:  *temperature,
		Orchestrator: *orchestrator,
	}
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "prompt-cache" {
			f.PromptCache = promptCache
		}
	})
	cfg, err := resolveConfig(f, env{
		BaseURL:      os.Getenv("LITELLM_BASE_URL"),
		APIKey:       os.Getenv("LITELLM_API_KEY"),
		Model:        os.Getenv("LITELLM_MODEL"),
		PromptCache:  os.Getenv("LITELLM_PROMPT_CACHE"),
		Temperature:  os.Getenv("CODEXFLOW_TEMPERATURE"),
		Orchestrator: os.Getenv("CODEXFLOW_ORCHESTRATOR_URL"),
	})
	if err != nil {
		return err
	}

	ttyOut := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	ttyIn := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	useTUI := ttyOut && !*plain && !*noStream && !*listModels

	// The TUI owns the terminal, so its logs go to -log-file or nowhere.
	var logOut io.Writer = os.Stderr
	switch {
	case *logFile != "":
		lf, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		logOut = lf
	case useTUI:
		logOut = io.Discard
	}
	format := log.FormatJSON
	if log.IsTerminal() && logOut == os.Stderr {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format), log.WithOutput(logOut))
	if *debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client := litellm.New(cfg.apiKey, cfg.options(version)...)
	log.Debug(ctx, log.KV{K: "base-url", V: client.BaseURL()}, log.KV{K: "model", V: cfg.model})

	if *listModels {
		return printModels(ctx, client, os.Stdout)
	}

	systemPrompt, err := loadSystemPrompt(*promptPath)
	if err != nil {
		return err
	}
	prompt, err := readPrompt(flag.Args(), os.Stdin, ttyIn)
	if err != nil {
		return err
	}

	if *noStream {
		if prompt == "" {
			return errors.New("-no-stream needs a prompt")
		}
		text, err := client.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	}

	req := codexflow.Request{Model: cfg.model, SystemPrompt: systemPrompt}
	if !useTUI {
		if prompt == "" {
			return errors.New("no prompt: pass it as arguments or on stdin")
		}
		req.Messages = []codexflow.Message{codexflow.UserMessage{
			Content: []codexflow.ContentBlock{codexflow.TextBlock{Text: prompt}},
		}}
		return streamPlain(ctx, client, req, os.Stdout, os.Stderr)
	}

	m := bt.New(bt.ProviderRun(client, req), codexflow.DefaultTheme(), bt.WithPrompt(prompt))
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) && path == defaultEnvPath:
		return nil
	default:
		return fmt.Errorf("load env file: %w", err)
	}
}
