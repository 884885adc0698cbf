package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/tts"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List speaker embeddings declared in the voice manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vm, err := tts.NewVoiceManager(cfg.Paths.Voices)
			if err != nil {
				return err
			}

			return printVoices(cmd.OutOrStdout(), vm.ListVoices())
		},
	}

	return cmd
}

func printVoices(w io.Writer, voices []tts.Voice) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANGUAGE\tLICENSE\tPATH")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Language, v.License, v.Path)
	}
	return tw.Flush()
}
