package cli

import (
	"fmt"
	"time"

	"trivia-host-service/internal/config"
	"trivia-host-service/internal/trivia"
	"github.com/spf13/cobra"
)

// NewCategoriesCmd prints the question source's category dictionary, so hosts
// know which category ids a room can be built from.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List available trivia categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			client := trivia.NewClient(cfg.Trivia.BaseURL, time.Hour)
			categories, err := client.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Printf("%4d  %s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}
