package main

// nyp runs the name-your-price pricing core against the configured catalog.

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/app"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/config"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/logging"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/observability"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/services"
)

const usage = `usage: nyp <command> [flags]

commands:
  validate <file>   check a catalog file and print authoring warnings
  import <file>     load a catalog file into the configured store
  show              print the price display data of a product
  add               add a product to a cart at a shopper-named price
  restore           re-apply custom prices to a stored cart
  sync              recompute a variable product from its variants
  policy            edit a product's pricing policy
  bulk              apply one edit to several variants
`

type command func(ctx context.Context, a *app.App, args []string, out io.Writer) error

var commands = map[string]command{
	"import":  runImport,
	"show":    runShow,
	"add":     runAdd,
	"restore": runRestore,
	"sync":    runSync,
	"policy":  runPolicy,
	"bulk":    runBulk,
}

func main() {
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if name == "validate" {
		if err := runValidate(args, os.Stdout); err != nil {
			fallbackLogger.Error("catalog is invalid", "error", err)
			os.Exit(1)
		}
		return
	}

	run, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fallbackLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		fallbackLogger.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	ctx = logging.With(ctx, application.Logger, "command", name)
	ctx = observability.WithCommand(ctx, name)
	err = run(ctx, application, args, os.Stdout)
	application.Close()

	var priceErr *pricing.PriceError
	switch {
	case errors.As(err, &priceErr):
		fmt.Fprintln(os.Stderr, priceErr.Error())
		os.Exit(3)
	case err != nil:
		fallbackLogger.Error("command failed", "command", name, "error", err)
		os.Exit(1)
	}
}

func runValidate(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("validate takes exactly one catalog file")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	parser := catalog.NewParser(pricing.DefaultNormalizer())
	file, err := parser.Parse(content)
	if err != nil {
		return err
	}
	validator := catalog.NewValidator()
	if err := validator.Validate(file); err != nil {
		return err
	}
	products, err := parser.Products(file)
	if err != nil {
		return err
	}

	return writeJSON(out, map[string]any{
		"products": len(products),
		"warnings": validator.Warnings(products),
	})
}

func runImport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("import takes exactly one catalog file")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	file, err := app.ImportCatalog(ctx, a.Catalog, a.Pricing.Normalizer(), content, a.Logger)
	if err != nil {
		return err
	}
	if err := a.SyncParents(ctx, file); err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"products": len(file.Products)})
}

func runShow(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	productID := fs.Int64("product", 0, "product or variant id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	display, err := a.Cart.Describe(ctx, *productID)
	if err != nil {
		return err
	}
	return writeJSON(out, display)
}

func runAdd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	cartID := fs.String("cart", "", "cart id, empty for a new cart")
	productID := fs.Int64("product", 0, "product or variant id")
	quantity := fs.Int("qty", 1, "quantity")
	price := fs.String("price", "", "shopper-named price")
	period := fs.String("period", "", "billing period for variable billing subscriptions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := parseCartID(*cartID, true)
	if err != nil {
		return err
	}

	c, line, err := a.Cart.AddToCart(ctx, services.AddToCartInput{
		CartID:    id,
		ProductID: *productID,
		Quantity:  *quantity,
		Price:     *price,
		Period:    *period,
	})
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"cart": c, "line": line.Key, "total": c.Total()})
}

func runRestore(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	cartID := fs.String("cart", "", "cart id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := parseCartID(*cartID, false)
	if err != nil {
		return err
	}
	c, err := a.Cart.Restore(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(out, c)
}

func runSync(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	parentID := fs.Int64("product", 0, "variable product id")
	flagOnly := fs.Bool("flag-only", false, "only recompute the custom price flag")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *flagOnly {
		has, err := a.Syncer.SyncCustomPriceFlag(ctx, *parentID)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]bool{"has_custom_price_variants": has})
	}

	result, err := a.Syncer.SyncPrices(ctx, *parentID)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

func runPolicy(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("policy", flag.ContinueOnError)
	productID := fs.Int64("product", 0, "product or variant id")
	var edit catalog.PolicyEdit
	fs.BoolVar(&edit.AllowCustomPrice, "custom-price", false, "let shoppers name their price")
	fs.StringVar(&edit.SuggestedPrice, "suggested", "", "suggested price")
	fs.StringVar(&edit.MinimumPrice, "minimum", "", "minimum price")
	fs.StringVar(&edit.MaximumPrice, "maximum", "", "maximum price")
	fs.BoolVar(&edit.VariableBilling, "variable-billing", false, "let subscribers pick the billing period")
	fs.StringVar(&edit.SuggestedBillingPeriod, "suggested-period", "", "period of the suggested price")
	fs.StringVar(&edit.MinimumBillingPeriod, "minimum-period", "", "period of the minimum price")
	if err := fs.Parse(args); err != nil {
		return err
	}

	product, warnings, err := a.Editor.SavePolicy(ctx, *productID, edit)
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"product": product, "warnings": warnings})
}

func runBulk(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bulk", flag.ContinueOnError)
	parentID := fs.Int64("product", 0, "variable product id")
	variants := fs.String("variants", "", "comma separated variant ids")
	var edit catalog.BulkEdit
	fs.Func("action", "bulk action", func(v string) error {
		edit.Action = catalog.BulkAction(v)
		return nil
	})
	fs.StringVar(&edit.Value, "value", "", "amount or percentage")
	fs.BoolVar(&edit.Percentage, "percentage", false, "read value as a percentage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids, err := parseIDs(*variants)
	if err != nil {
		return err
	}

	result, err := a.Bulk.Apply(ctx, *parentID, ids, edit)
	if writeErr := writeJSON(out, result); writeErr != nil {
		return writeErr
	}
	return err
}

func parseCartID(raw string, allowEmpty bool) (uuid.UUID, error) {
	if raw == "" {
		if allowEmpty {
			return uuid.Nil, nil
		}
		return uuid.Nil, errors.New("cart id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid cart id: %w", err)
	}
	return id, nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid variant id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one variant id is required")
	}
	return ids, nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
