package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/model"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model verification commands",
	}

	cmd.AddCommand(newModelVerifyCmd())
	return cmd
}

func newModelVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run both graphs once on zero inputs built from the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			err = model.VerifyONNX(cmd.Context(), model.VerifyOptions{
				ManifestPath:  cfg.Paths.Manifest,
				EncoderPath:   cfg.Paths.Encoder,
				DecoderPath:   cfg.Paths.Decoder,
				ORTLibrary:    cfg.Runtime.ORTLibraryPath,
				ORTAPIVersion: cfg.Runtime.ORTAPIVersion,
				Stdout:        cmd.OutOrStdout(),
				Stderr:        cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("model verify failed: %w", err)
			}

			return nil
		},
	}

	return cmd
}
