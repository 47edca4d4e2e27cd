package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/robfig/cron/v3"

	"github.com/hession/sidekick/internal/agent"
	"github.com/hession/sidekick/internal/config"
	"github.com/hession/sidekick/internal/llm"
	"github.com/hession/sidekick/internal/logger"
	"github.com/hession/sidekick/internal/memory"
	"github.com/hession/sidekick/internal/modes"
	"github.com/hession/sidekick/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Run starts the interactive assistant
func Run(cfg *config.Config) error {
	printWelcome()

	if !cfg.IsAPIKeyConfigured() {
		return promptAPIKey(cfg)
	}

	persona, err := config.LoadPersonaConfig()
	if err != nil {
		return fmt.Errorf("failed to load persona config: %w", err)
	}

	client := llm.New(
		cfg.Model.APIKey,
		cfg.Model.BaseURL,
		cfg.Model.Model,
		time.Duration(cfg.Model.TimeoutSeconds)*time.Second,
		cfg.Model.MaxRetries,
	)

	store := memory.NewStore(
		filepath.Join(cfg.Memory.DataDir, "memory.json"),
		cfg.Memory.MaxConversationSummaries,
	)
	profile := memory.NewProfile(filepath.Join(cfg.Memory.DataDir, "user_profile.json"))

	worker := memory.NewFactExtractionWorker(store, func(ctx context.Context, system, user string) (string, error) {
		return client.Plain(ctx, system, user, 1024)
	})
	worker.Start()
	defer worker.Stop()

	sessions, err := memory.NewSessionManager(filepath.Join(cfg.Memory.DataDir, "sessions"), worker)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}
	sessions.StartSession()

	// Daily retention sweep over permanent session records
	janitor := cron.New()
	if _, err := janitor.AddFunc("@daily", func() {
		removed, err := sessions.CleanupOldSessions(cfg.Memory.SessionRetentionDays)
		if err != nil {
			logger.Warn("session cleanup failed: %v", err)
			return
		}
		if removed > 0 {
			logger.Info("session cleanup removed %d old records", removed)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule session cleanup: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	registry := tools.NewDefaultRegistry(makeConfirmFunc(cfg), cfg, store, profile)

	engine := agent.New(
		cfg, persona, client, store, profile, sessions, registry,
		agent.WithModeHandler(modeAnnouncementOutput),
		agent.WithToolCallHandler(toolCallOutput),
	)

	return runREPL(engine, store, profile, worker)
}

// printWelcome prints welcome message
func printWelcome() {
	fmt.Printf("\n%s🤝 Sidekick v%s%s - Your Personal AI Companion\n", colorCyan, Version, colorReset)
	fmt.Printf("%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

// promptAPIKey prompts user to configure the API key
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%s⚠️  API key not configured%s\n\n", colorYellow, colorReset)

	rl, err := readline.New("Please enter your API key: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	apiKey, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	cfg.Model.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%s✅ API key saved%s\n\n", colorGreen, colorReset)

	return Run(cfg)
}

// historyFilePath returns the readline history file path
func historyFilePath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

// runREPL runs the interactive loop with readline support
func runREPL(engine *agent.Engine, store *memory.Store, profile *memory.Profile, worker *memory.FactExtractionWorker) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 fmt.Sprintf("%sYou: %s", colorGreen, colorReset),
		HistoryFile:            historyFilePath(),
		HistoryLimit:           1000,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := func() {
		if err := engine.FinalizeSession(context.Background()); err != nil {
			fmt.Printf("%s⚠️  Failed to save session: %v%s\n", colorYellow, err, colorReset)
		}
		worker.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n\n%sGoodbye! 👋%s\n", colorCyan, colorReset)
		shutdown()
		cancel()
		rl.Close()
		os.Exit(0)
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sPress Ctrl+C again or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("\n%sGoodbye! 👋%s\n", colorCyan, colorReset)
				shutdown()
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(input, engine, store, profile) {
				continue
			}
			shutdown()
			return nil // /exit
		}

		processInput(ctx, engine, input)
	}
}

// processInput sends one utterance through the engine and prints the reply
func processInput(ctx context.Context, engine *agent.Engine, input string) {
	fmt.Printf("\n%sSidekick: %s", colorBlue, colorReset)

	reply, err := engine.Chat(ctx, input)
	if err != nil {
		fmt.Printf("\n%s❌ Error: %v%s\n", colorRed, err, colorReset)
	} else {
		fmt.Print(reply)
	}

	fmt.Println()
	fmt.Println()
}

// handleCommand handles built-in commands, returns true to continue, false to exit
func handleCommand(cmd string, engine *agent.Engine, store *memory.Store, profile *memory.Profile) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case "/help":
		printHelp()
		return true

	case "/clear":
		engine.ClearConversation()
		fmt.Printf("%s✅ Conversation cleared%s\n", colorGreen, colorReset)
		return true

	case "/memory":
		fmt.Println(store.Dump())
		return true

	case "/profile":
		fmt.Println(profile.Summary())
		return true

	case "/recall":
		if len(parts) < 2 {
			fmt.Printf("%sUsage: /recall <query>%s\n", colorGray, colorReset)
			return true
		}
		fmt.Println(store.Recall(strings.Join(parts[1:], " ")))
		return true

	case "/mode":
		if len(parts) < 2 {
			cfg := modes.Config(engine.Mode())
			fmt.Printf("%s %s (%s)\n", cfg.Emoji, cfg.Name, cfg.Description)
			fmt.Printf("%sUsage: /mode buddy | /mode research%s\n", colorGray, colorReset)
			return true
		}
		mode, ok := modes.Parse(parts[1])
		if !ok {
			fmt.Printf("%s❓ Unknown mode: %s (known: buddy, research)%s\n", colorYellow, parts[1], colorReset)
			return true
		}
		fmt.Println(engine.SwitchMode(mode))
		return true

	case "/config":
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("%s❌ Failed to load config: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Println(cfg.String())
		}
		return true

	case "/exit", "/quit", "/q":
		fmt.Printf("%sGoodbye! 👋%s\n", colorCyan, colorReset)
		return false

	default:
		fmt.Printf("%s❓ Unknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Println("Type /help for available commands")
		return true
	}
}

// printHelp prints help information
func printHelp() {
	fmt.Printf(`
%s📚 Sidekick Help%s

%sBuilt-in Commands:%s
  /help           - Show this help message
  /clear          - Clear the conversation (memory is kept)
  /memory         - Show everything in long-term memory
  /profile        - Show your structured profile
  /recall <query> - Search long-term memory
  /mode [name]    - Show or switch mode (buddy, research)
  /config         - Show current configuration
  /exit           - Save the session and quit

%sModes:%s
  👋 buddy     - Quick, casual, and friendly (default)
  🔬 research  - Deep analysis with extended thinking

%sExamples:%s
  "Remember that my sister's name is Maya"
  "What do you know about me?"
  "Give me a deep dive on vector databases"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}

// modeAnnouncementOutput prints mode switch announcements
func modeAnnouncementOutput(announcement string) {
	fmt.Printf("\n%s%s%s\n", colorCyan, announcement, colorReset)
}

// toolCallOutput handles tool call output
func toolCallOutput(name string, args map[string]any, result string, err error) {
	fmt.Printf("\n\n%s🔧 Calling tool: %s%s\n", colorYellow, name, colorReset)

	if len(args) > 0 {
		fmt.Printf("%s   Args: %v%s\n", colorGray, args, colorReset)
	}

	if err != nil {
		fmt.Printf("%s   Status: ❌ Failed - %v%s\n", colorRed, err, colorReset)
	} else {
		fmt.Printf("%s   Status: ✅ Done%s\n", colorGreen, colorReset)
	}

	fmt.Println()
}

// makeConfirmFunc builds the dangerous-command confirmation prompt.
// When confirmation is disabled in config, everything is allowed.
func makeConfirmFunc(cfg *config.Config) func(command string) bool {
	if cfg != nil && !cfg.Safety.ConfirmDangerousOps {
		return func(string) bool { return true }
	}
	return confirmDangerousOp
}

// confirmDangerousOp confirms a dangerous operation with the user
func confirmDangerousOp(command string) bool {
	fmt.Printf("\n%s⚠️  Dangerous Operation Warning%s\n", colorRed, colorReset)
	fmt.Printf("About to execute: %s\n", command)

	rl, err := readline.New("Confirm execution? (y/N): ")
	if err != nil {
		return false
	}
	defer rl.Close()

	input, err := rl.Readline()
	if err != nil {
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
