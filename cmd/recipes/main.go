package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pageza/recipebox/backend/client"
	"github.com/pageza/recipebox/backend/internal/model"
	"github.com/pageza/recipebox/backend/internal/search"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

func main() {
	var baseURL string

	rootCmd := &cobra.Command{
		Use:          "recipes",
		Short:        "Search the recipe API from the terminal",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("RECIPES_API_URL", defaultBaseURL), "API root")

	newClient := func() *client.Client { return client.New(baseURL) }
	rootCmd.AddCommand(searchCmd(newClient), showCmd(newClient), sitesCmd(newClient))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func searchCmd(newClient func() *client.Client) *cobra.Command {
	var (
		title, ingredients, shopping, site string
		pages                              int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search recipes; without filters a random selection is shown",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := search.Normalize(map[string]string{
				search.ParamTitle:        title,
				search.ParamIngredients:  ingredients,
				search.ParamShoppingList: shopping,
				search.ParamSite:         site,
			})
			snap, err := collect(cmd.Context(), client.NewSession(newClient()), f, pages)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), snap.Results)
			if snap.HasMore {
				fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgCyan).Sprint("more results available, raise --pages to see them"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "substring of the title")
	cmd.Flags().StringVar(&ingredients, "ingredients", "", "comma separated ingredient substrings, all must match")
	cmd.Flags().StringVar(&shopping, "shopping-list", "", "comma separated shopping list terms, all must match")
	cmd.Flags().StringVar(&site, "site", "", "source site")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

// collect runs a search and loads up to pages pages into the session.
func collect(ctx context.Context, s *client.Session, f search.FilterRequest, pages int) (client.Snapshot, error) {
	if err := s.Search(ctx, f); err != nil {
		return s.Snapshot(), err
	}
	for i := 1; i < pages; i++ {
		err := s.LoadMore(ctx)
		if errors.Is(err, client.ErrNoMore) {
			break
		}
		if err != nil {
			return s.Snapshot(), err
		}
	}
	return s.Snapshot(), nil
}

func showCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one recipe with its directions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			recipe, err := newClient().Get(ctx, uint(id))
			if err != nil {
				return err
			}
			if recipe == nil {
				return fmt.Errorf("recipe %d not found", id)
			}
			printRecipe(cmd.OutOrStdout(), recipe)
			return nil
		},
	}
}

func sitesCmd(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the source sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := newClient().Sites(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sites {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func printSummaries(out io.Writer, recipes []model.RecipeSummary) {
	if len(recipes) == 0 {
		fmt.Fprintln(out, "No recipes found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSITE\tSHOPPING LIST")
	for _, r := range recipes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Title, r.Site, strings.Join(r.NER, ", "))
	}
	w.Flush()
	fmt.Fprintf(out, "%d recipes\n", len(recipes))
}

func printRecipe(out io.Writer, r *model.Recipe) {
	bold := color.New(color.Bold)
	bold.Fprintf(out, "%s\n", r.Title)
	if r.Site != "" {
		fmt.Fprintf(out, "  Site: %s\n", r.Site)
	}
	bold.Fprintln(out, "\nIngredients")
	for _, line := range r.Ingredients {
		fmt.Fprintf(out, "  - %s\n", line)
	}
	bold.Fprintln(out, "\nDirections")
	for i, step := range r.Directions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
