// Command tryonctl runs pipeline operations from the shell with the same
// configuration as the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tryon/internal/app"
	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/tryon"
)

// pipeline is the orchestrator surface the commands call.
type pipeline interface {
	DressProduct(ctx context.Context, req tryon.Request) (*tryon.Result, error)
	GenerateCatalogImage(ctx context.Context, productID, adminToken string) (*tryon.Result, error)
	GenerateBaseModels(ctx context.Context, adminToken string, count int) ([]domain.BaseModelImage, error)
	Refresh(ctx context.Context, req tryon.BatchRequest) (*tryon.BatchResult, error)
	Usage(ctx context.Context, adminToken string) (tryon.UsageReport, error)
}

// cli carries state shared by subcommands. open is replaced in tests.
type cli struct {
	adminToken string
	out        io.Writer
	open       func(ctx context.Context) (pipeline, string, func(), error)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{out: os.Stdout, open: openPipeline}
	if err := c.rootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openPipeline(ctx context.Context) (pipeline, string, func(), error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, "", nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv)
	svc, err := app.Build(ctx, cfg, logger, nil)
	if err != nil {
		return nil, "", nil, err
	}
	return svc.Orchestrator, cfg.AdminToken, svc.Close, nil
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tryonctl",
		Short:        "Operate the garment try-on pipeline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.adminToken, "admin-token", "", "admin token (defaults to ADMIN_TOKEN)")

	root.AddCommand(
		c.dressCommand(),
		c.generateCommand(),
		c.refreshCommand(),
		c.baseModelsCommand(),
		c.usageCommand(),
	)
	return root
}

// withPipeline opens the pipeline, resolves the admin token and runs fn.
func (c *cli) withPipeline(cmd *cobra.Command, fn func(ctx context.Context, p pipeline, token string) (any, error)) error {
	ctx := cmd.Context()
	p, defaultToken, closeFn, err := c.open(ctx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	token := c.adminToken
	if token == "" {
		token = defaultToken
	}
	v, err := fn(ctx, p, token)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) dressCommand() *cobra.Command {
	var productID, region, strategy, base string
	cmd := &cobra.Command{
		Use:   "dress",
		Short: "Dress a base model in a product and replace its catalog photo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := tryon.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			r, err := parseRegion(region)
			if err != nil {
				return err
			}
			return c.withPipeline(cmd, func(ctx context.Context, p pipeline, token string) (any, error) {
				res, err := p.DressProduct(ctx, tryon.Request{
					ProductID:    productID,
					AdminToken:   token,
					BaseImageURL: base,
					Region:       r,
					Strategy:     s,
				})
				if err != nil {
					return nil, err
				}
				return resultView(res), nil
			})
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().StringVar(&region, "region", "", "garment region override (upper, lower, full, belt)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "auto, inpaint, viton, text or img2img")
	cmd.Flags().StringVar(&base, "base", "", "base model image URL")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func (c *cli) generateCommand() *cobra.Command {
	var productID string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a text-to-image catalog photo for a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p pipeline, token string) (any, error) {
				res, err := p.GenerateCatalogImage(ctx, productID, token)
				if err != nil {
					return nil, err
				}
				return resultView(res), nil
			})
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product id")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func (c *cli) refreshCommand() *cobra.Command {
	var (
		maxProducts int
		mode        string
		force       bool
		baseModels  int
	)
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Regenerate catalog photos for a batch of products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := tryon.ParseBatchMode(mode)
			if err != nil {
				return err
			}
			req := tryon.BatchRequest{Force: force, Mode: m, GenerateBaseModels: baseModels}
			if cmd.Flags().Changed("max") {
				req.MaxProducts = &maxProducts
			}
			return c.withPipeline(cmd, func(ctx context.Context, p pipeline, token string) (any, error) {
				req.AdminToken = token
				res, err := p.Refresh(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"results":    res.Results,
					"succeeded":  res.Succeeded(),
					"baseModels": len(res.BaseModels),
				}, nil
			})
		},
	}
	cmd.Flags().IntVar(&maxProducts, "max", tryon.DefaultBatchSize, "maximum products to process")
	cmd.Flags().StringVar(&mode, "mode", "", "tryon, inpaint or text")
	cmd.Flags().BoolVar(&force, "force", false, "include products that already have a generated photo")
	cmd.Flags().IntVar(&baseModels, "base-models", 0, "bootstrap this many base models first")
	return cmd
}

func (c *cli) baseModelsCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "base-models",
		Short: "Generate stock base-model photos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p pipeline, token string) (any, error) {
				return p.GenerateBaseModels(ctx, token, count)
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 2, "number of images (1-8)")
	return cmd
}

func (c *cli) usageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show today's generation count against the daily ceiling",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withPipeline(cmd, func(ctx context.Context, p pipeline, token string) (any, error) {
				u, err := p.Usage(ctx, token)
				if err != nil {
					return nil, err
				}
				return map[string]int{
					"used":           u.Used,
					"dailyCap":       u.DailyCap,
					"generatedToday": u.GeneratedToday,
				}, nil
			})
		},
	}
}

func parseRegion(s string) (domain.Region, error) {
	switch r := domain.Region(s); r {
	case "", domain.RegionUpper, domain.RegionLower, domain.RegionFull, domain.RegionBelt:
		return r, nil
	default:
		return "", fmt.Errorf("unknown region %q", s)
	}
}

func resultView(res *tryon.Result) map[string]any {
	return map[string]any{
		"url":          res.URL,
		"region":       res.Region,
		"gender":       res.Gender,
		"strategy":     res.Strategy,
		"provider":     res.Provider,
		"attempts":     res.Attempts,
		"usedFallback": res.UsedFallback,
	}
}
