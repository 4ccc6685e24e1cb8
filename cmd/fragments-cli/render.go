package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/block"
)

func newRenderCmd(root *rootOptions) *cobra.Command {
	var (
		name   string
		pages  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch a block and print its rendered region",
		Long: `Loads the first page of the named block and prints the rendered HTML.
With --pages greater than one, follows the next control and prints each
page in turn, stopping early when the results run out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := root.load()
			if err != nil {
				return err
			}
			b, err := cfg.NewBlock(name, c, root.logger)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			ctx := cmd.Context()
			if err := b.Load(ctx); err != nil {
				return err
			}
			for page := 1; ; page++ {
				html, err := b.Render(ctx, block.RenderOptions{Theme: cfg.Theme.RendererConfig()})
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, string(html)); err != nil {
					return err
				}
				if page >= pages {
					break
				}
				if err := b.Next(ctx); err != nil {
					if errors.Is(err, block.ErrNoPage) {
						root.logger.Debug("no further pages", zap.Int("rendered", page))
						break
					}
					return err
				}
			}

			if output != "" {
				root.logger.Info("region written", zap.String("path", output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "block", "b", "", "block name")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to render")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	_ = cmd.MarkFlagRequired("block")
	return cmd
}
