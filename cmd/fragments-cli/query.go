package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-fragments/pkg/prompt"
)

func newQueryCmd(root *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Browse a block interactively and edit its query",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, c, err := root.load()
			if err != nil {
				return err
			}
			b, err := cfg.NewBlock(name, c, root.logger)
			if err != nil {
				return err
			}
			driver := prompt.NewSurveyDriver(cmd.OutOrStdout())
			return prompt.NewSession(b, driver, root.logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&name, "block", "b", "", "block name")
	_ = cmd.MarkFlagRequired("block")
	return cmd
}
