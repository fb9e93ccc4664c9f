// scanctl analyzes ingredient labels from the command line, running the same
// pipeline the HTTP API serves.
package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexscan/ingredient-scanner-go/internal/analytics"
	"github.com/apexscan/ingredient-scanner-go/internal/config"
	"github.com/apexscan/ingredient-scanner-go/internal/factory"
	"github.com/apexscan/ingredient-scanner-go/internal/lookup"
	"github.com/apexscan/ingredient-scanner-go/internal/pipeline"
	"github.com/apexscan/ingredient-scanner-go/pkg/models"
)

var modeFlag string

func main() {
	root := &cobra.Command{
		Use:          "scanctl",
		Short:        "Analyze ingredient labels for nutritional quality",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&modeFlag, "mode", "BULK", "goal mode: BULK or CUT")

	imageCmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Analyze a label photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runImage,
	}

	barcodeCmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Look up a barcode and analyze its ingredients",
		Args:  cobra.ExactArgs(1),
		RunE:  runBarcode,
	}

	root.AddCommand(imageCmd, barcodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImage(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseGoalMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	asset := models.ImageAsset{
		Data:      data,
		MediaType: mime.TypeByExtension(filepath.Ext(args[0])),
		Size:      int64(len(data)),
	}

	ctx := cmd.Context()
	extractor, err := factory.NewExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	defer extractor.Close()

	scorer, err := factory.NewScorer(cfg)
	if err != nil {
		return err
	}

	pipe := pipeline.New(extractor, scorer, pipeline.WithSettleDelay(cfg.SettleDelay))

	done := make(chan error, 1)
	_, err = pipe.StartImageRun(ctx, asset, mode, reportingCallbacks(cmd, mode, done))
	if err != nil {
		return err
	}
	return <-done
}

func runBarcode(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseGoalMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client := lookup.NewClient(cfg.OFFBaseURL, cfg.LookupTimeout)
	product, err := client.LookupProduct(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Product: %s", product.Name)
	if product.Brand != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)", product.Brand)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	rawText := product.IngredientsText
	if rawText == "" {
		rawText = strings.Join(product.Ingredients, ", ")
	}

	scorer, err := factory.NewScorer(cfg)
	if err != nil {
		return err
	}

	pipe := pipeline.New(nil, scorer, pipeline.WithSettleDelay(cfg.SettleDelay))

	done := make(chan error, 1)
	pipe.StartTextRun(ctx, rawText, mode, reportingCallbacks(cmd, mode, done))
	return <-done
}

// reportingCallbacks prints the progress stream and, on completion, the full
// report. The done channel resolves the command with the run's outcome.
func reportingCallbacks(cmd *cobra.Command, mode models.GoalMode, done chan error) pipeline.Callbacks {
	out := cmd.OutOrStdout()
	return pipeline.Callbacks{
		OnProgress: func(n pipeline.Notification) {
			fmt.Fprintf(out, "[%3.0f%%] %s\n", n.Progress, n.StatusText)
		},
		OnComplete: func(o pipeline.Outcome) {
			printReport(out, o, mode)
			done <- nil
		},
		OnError: func(err error) {
			done <- err
		},
	}
}

func printReport(out io.Writer, o pipeline.Outcome, mode models.GoalMode) {
	result := o.Result
	insights := analytics.Derive(result, mode)

	fmt.Fprintf(out, "\nScore: %.1f / 100 (%s, band: %s)\n", result.FinalScore, result.Verdict, insights.Verdict)

	if len(insights.Quality) > 0 {
		fmt.Fprintln(out, "\nQuality ingredients:")
		for _, ing := range insights.Quality {
			line := "  + " + ing.Name
			if ing.Detail != "" {
				line += " [" + ing.Detail + "]"
			}
			fmt.Fprintln(out, line)
		}
	}
	if len(insights.Concerns) > 0 {
		fmt.Fprintln(out, "\nConcerns:")
		for _, ing := range insights.Concerns {
			line := "  - " + ing.Name
			if ing.Detail != "" {
				line += " [" + ing.Detail + "]"
			}
			fmt.Fprintln(out, line)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Fprintln(out, "  ! "+w)
		}
	}

	fmt.Fprintln(out, "\nRecommendations:")
	for _, rec := range insights.Recommendations {
		fmt.Fprintf(out, "  [%s] %s\n", rec.Tone, rec.Text)
	}
}
