package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the router in the terminal",
	Long: `Starts an interactive conversation with the support router using the
configured stores and models. Type /reset to start over and /quit (or
Ctrl-D) to leave.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("user", "", "conversation id (default: a new random id)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, _ := cmd.Flags().GetString("user")
	if userID == "" {
		userID = "cli:" + uuid.NewString()
	}
	fmt.Fprintf(os.Stderr, "Chatting as %s. /reset starts over, /quit leaves.\n\n", userID)

	// Empty text asks for the greeting.
	if err := chatTurn(ctx, a, userID, ""); err != nil {
		return err
	}

	prompt := promptui.Prompt{Label: "You"}
	for {
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := a.sessions.Delete(ctx, userID); err != nil {
				return fmt.Errorf("resetting session: %w", err)
			}
			fmt.Println("Bot: (conversation reset)")
			continue
		case "":
			continue
		}

		if err := chatTurn(ctx, a, userID, line); err != nil {
			return err
		}
	}
}

func chatTurn(ctx context.Context, a *app, userID, text string) error {
	reply, err := a.router.Handle(ctx, orchestrator.Message{UserID: userID, Text: text})
	if errors.Is(err, orchestrator.ErrMessageTooLong) {
		fmt.Printf("Bot: That message is too long (max %d characters).\n\n", a.cfg.Router.MaxMessageLength)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Bot: %s\n", reply.Answer)
	if verbose {
		fmt.Fprintf(os.Stderr, "     [state=%s intent=%s", reply.State, reply.Intent)
		if len(reply.Sources) > 0 {
			fmt.Fprintf(os.Stderr, " sources=%s", strings.Join(reply.Sources, ","))
		}
		if reply.Error != "" {
			fmt.Fprintf(os.Stderr, " error=%q", reply.Error)
		}
		fmt.Fprintln(os.Stderr, "]")
	}
	fmt.Println()
	return nil
}
