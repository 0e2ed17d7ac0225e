package main

import (
	"errors"
	"fmt"
	"strings"

	"property-dapp-backend/internal/application/properties"
	"property-dapp-backend/internal/pkg/codec"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Discover all live properties and print them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := mustContainer(cmd)
		if err != nil {
			return err
		}
		list, err := c.Reconciler.DiscoverAll(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <app-id>",
	Short: "Read one property's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mustContainer(cmd)
		if err != nil {
			return err
		}
		appID, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		p, ok := c.Reader.Fetch(cmd.Context(), appID)
		if !ok {
			return fmt.Errorf("%w: %d", properties.ErrPropertyNotFound, appID)
		}
		return printJSON(cmd, p)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <app-id>...",
	Short: "Read the given properties directly, skipping the cache and search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mustContainer(cmd)
		if err != nil {
			return err
		}
		ids := make([]uint64, 0, len(args))
		for _, a := range args {
			id, err := parseAppID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return printJSON(cmd, c.Reconciler.Lookup(cmd.Context(), ids))
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "List a new property",
	Long: `Deploys a new property application signed by the configured wallet.

Usage examples:

	propertyctl create --title "Villa" --image https://example.com/v.png --location Abuja --price 2.5
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, sender, err := withWallet(cmd)
		if err != nil {
			return err
		}
		price, err := parseAlgos(opts.Price)
		if err != nil {
			return err
		}
		res, err := c.Actions.Create(cmd.Context(), sender, properties.CreateInput{
			Title:    opts.Title,
			Image:    opts.Image,
			Location: opts.Location,
			Price:    price,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy <app-id>",
	Short: "Buy a property, paying its price to the owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, sender, err := withWallet(cmd)
		if err != nil {
			return err
		}
		appID, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		res, err := c.Actions.Buy(cmd.Context(), sender, appID)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <app-id> <rating>",
	Short: "Rate a property from 1 to 5",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, sender, err := withWallet(cmd)
		if err != nil {
			return err
		}
		appID, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		rating, err := codec.ParseUint64(args[1])
		if err != nil {
			return err
		}
		res, err := c.Actions.Rate(cmd.Context(), sender, appID, rating)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <app-id>",
	Short: "Delete a property you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, sender, err := withWallet(cmd)
		if err != nil {
			return err
		}
		appID, err := parseAppID(args[0])
		if err != nil {
			return err
		}
		res, err := c.Actions.Delete(cmd.Context(), sender, appID)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	createCmd.Flags().StringVar(&opts.Title, "title", "", "property title")
	createCmd.Flags().StringVar(&opts.Image, "image", "", "image URL")
	createCmd.Flags().StringVar(&opts.Location, "location", "", "property location")
	createCmd.Flags().StringVar(&opts.Price, "price", "", "price in Algos (up to 6 decimals)")
	_ = createCmd.MarkFlagRequired("price")
}

func parseAppID(s string) (uint64, error) {
	id, err := codec.ParseUint64(s)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid application id %q", s)
	}
	return id, nil
}

// parseAlgos converts a decimal Algo amount into microAlgos without going through float64.
func parseAlgos(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "0123456789.") != "" || strings.Count(s, ".") > 1 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 6 {
		return 0, errors.New("price has more than 6 decimals")
	}
	frac += strings.Repeat("0", 6-len(frac))
	if whole == "" {
		whole = "0"
	}
	w, err := codec.ParseUint64(whole)
	if err != nil {
		return 0, err
	}
	f, err := codec.ParseUint64(frac)
	if err != nil {
		return 0, err
	}
	if w > (^uint64(0)-f)/codec.MicroAlgosPerAlgo {
		return 0, errors.New("price is too large")
	}
	return w*codec.MicroAlgosPerAlgo + f, nil
}
