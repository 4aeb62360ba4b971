package main

import (
	"errors"
	"fmt"
	"strings"

	"TokenArena/internal/gateway"

	"github.com/spf13/cobra"
)

const (
	testPostTitle = "🧪 TEST POST - Arena Coming Soon"
	testPostBody  = "This is a test from TokenArena.\n\nToken battles starting soon!\n\n_This post will be deleted._"
)

var (
	agentName        string
	agentDescription string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the arena agent on Moltbook",
	Long: `Registers a new agent and prints its API key, claim URL and verification
code. Save the key as MOLTBOOK_API_KEY, then claim the agent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "🤖 Registering agent on Moltbook...")

		client := gateway.NewClient(cfg.Moltbook.BaseURL, "", cfg.Proxy)
		reg, err := client.RegisterAgent(cmd.Context(), agentName, agentDescription)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Agent registered!\n\n%s\n", strings.Repeat("═", 50))
		fmt.Fprintf(out, "📛 Name: %s\n🔑 API Key: %s\n🔗 Claim URL: %s\n✅ Verification Code: %s\n",
			agentName, reg.APIKey, reg.ClaimURL, reg.VerificationCode)
		fmt.Fprintln(out, "\nNext steps:\n1. Save the API key as MOLTBOOK_API_KEY\n"+
			"2. Visit the claim URL and post the verification code\n3. Run: arena create-category")
		return nil
	},
}

var createCategoryCmd = &cobra.Command{
	Use:   "create-category",
	Short: "Create the arena's submolt with its rules sidebar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateAPI(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		name := cfg.Moltbook.Category
		fmt.Fprintf(out, "🏟 Creating submolt: m/%s\n", name)

		client := gateway.NewClient(cfg.Moltbook.BaseURL, cfg.Moltbook.APIKey, cfg.Proxy)
		err = client.CreateCategory(cmd.Context(), gateway.ArenaCategory(name, cfg.Arena.PrizeAmount))
		switch {
		case errors.Is(err, gateway.ErrCategoryExists):
			fmt.Fprintf(out, "⚠️ m/%s already exists, the arena can use it as is.\n", name)
			return nil
		case err != nil:
			return err
		}
		fmt.Fprintf(out, "✅ Submolt created: https://moltbook.com/m/%s\n", name)
		return nil
	},
}

var testPostCmd = &cobra.Command{
	Use:   "test-post",
	Short: "Publish a test post to check credentials and category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateAPI(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "🧪 Testing post to Moltbook...")

		client := gateway.NewClient(cfg.Moltbook.BaseURL, cfg.Moltbook.APIKey, cfg.Proxy)
		id, err := client.PublishPost(cmd.Context(), testPostTitle, testPostBody, cfg.Moltbook.Category)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Test post successful!\n📝 Post ID: %s\n🔗 URL: https://moltbook.com/post/%s\n", id, id)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&agentName, "name", "TokenArena_Judge", "agent name")
	registerCmd.Flags().StringVar(&agentDescription, "description", "I run token battles. Winners earn crypto. 🎮", "agent description")
}
