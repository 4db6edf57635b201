package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	suggestLimit int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect and refresh the local product snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var productsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every product page and replace the local snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.listing == nil {
			return errors.New("no products URL configured, set products_url or PRODUCTS_URL")
		}

		n, err := a.catalog.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("refreshed %d products into %s\n", n, a.cfg.Paths.ProductsCache)
		return nil
	},
}

var productsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the product snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		hits, err := a.catalog.Search(args[0], searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("no matches")
			return nil
		}

		for _, hit := range hits {
			doc := hit.Document
			stock := "-"
			if doc.HasStock {
				stock = fmt.Sprintf("%g", doc.Stock)
			}
			fmt.Printf("%6.2f  %-16s %-10s %-6s %s\n",
				hit.Score, doc.Reference, doc.ProductID, stock, doc.Name)
		}
		return nil
	},
}

var productsSuggestCmd = &cobra.Command{
	Use:   "suggest <reference>",
	Short: "Suggest close references for a code that did not match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		suggestions := a.catalog.Suggest(args[0], suggestLimit)
		if len(suggestions) == 0 {
			fmt.Println("no suggestions")
			return nil
		}
		for _, s := range suggestions {
			fmt.Println(s)
		}
		return nil
	},
}

func init() {
	productsSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of hits")
	productsSuggestCmd.Flags().IntVar(&suggestLimit, "limit", 5, "maximum number of suggestions")

	productsCmd.AddCommand(productsRefreshCmd)
	productsCmd.AddCommand(productsSearchCmd)
	productsCmd.AddCommand(productsSuggestCmd)
	rootCmd.AddCommand(productsCmd)
}
