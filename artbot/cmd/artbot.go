// Command-line chat REPL for talking to ArtBot without the web UI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"artbot/artbot/config"
	"artbot/artbot/controllers"
	"artbot/artbot/services/llm"
	"artbot/artbot/store"
	"artbot/artbot/utils/logging"

	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	persona, err := config.LoadPersona(cfg.PersonaPath)
	if err != nil {
		logging.ErrorLogger.Error("persona load error", zap.Error(err))
		os.Exit(1)
	}

	client := llm.NewClient(llm.ClientConfig{
		APIKey:       cfg.OpenRouterAPIKey,
		Model:        cfg.OpenRouterModel,
		BaseURL:      cfg.OpenRouterBaseURL,
		SystemPrompt: persona.SystemPrompt,
		Referer:      cfg.Referer,
		AppTitle:     cfg.AppTitle,
	})
	st := store.New(persona.WelcomeMessage)
	ctrl := controllers.NewChatController(st, client)

	if !client.Configured() {
		fmt.Println("⚠️  OPENROUTER_API_KEY is not set; sends will fail until you add one to .env")
	}

	fmt.Println("\n🎭 ArtBot CLI — Arts Festival Assistant")
	fmt.Println()
	fmt.Println(persona.WelcomeMessage)
	fmt.Println("Type your question, or 'exit' to quit. '/clear' resets the chat, '/share' prints a transcript.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("👋 Goodbye!")
			break
		}
		if line == "" {
			continue
		}
		if line == "/clear" {
			ctrl.Clear()
			fmt.Println("(chat cleared)")
			continue
		}
		if line == "/share" {
			fmt.Println(ctrl.Share())
			continue
		}

		ch, errCh := ctrl.SendStream(context.Background(), line, nil)
		fmt.Print("artbot> ")
		for delta := range ch {
			fmt.Print(delta)
		}
		if err := <-errCh; err != nil {
			fmt.Printf("\n(error: %v)\n", err)
			continue
		}
		fmt.Println()
	}
}
