package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/audio"
	"github.com/example/go-melotts/internal/tts"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := openService(cfg)
			if err != nil {
				return fmt.Errorf("initialize synth service: %w", err)
			}
			defer svc.Close()

			samples, err := svc.Synthesize(cmd.Context(), tts.Request{Text: inputText})
			if err != nil {
				return fmt.Errorf("synth failed: %w", err)
			}

			rate := svc.Options().SampleRate
			if err := writeSynthOutput(out, samples, rate, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			slog.Info("synthesis complete",
				slog.String("out", out),
				slog.Int("samples", len(samples)),
				slog.Float64("duration_s", audio.Duration(len(samples), rate)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "sentence", "s", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVarP(&out, "wav", "w", "out.wav", "Output WAV path ('-' for stdout)")

	return cmd
}

// writeSynthOutput writes samples as WAV to outPath, or to stdout when
// outPath is "-". Failures are classified as tts.ErrPersistence.
func writeSynthOutput(outPath string, samples []float32, sampleRate int, stdout io.Writer) error {
	if outPath != "-" {
		if err := audio.WriteWAVFile(outPath, samples, sampleRate); err != nil {
			return fmt.Errorf("%w: %w", tts.ErrPersistence, err)
		}
		return nil
	}

	if stdout == nil {
		return fmt.Errorf("%w: stdout writer is nil", tts.ErrPersistence)
	}
	wavData, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %w", tts.ErrPersistence, err)
	}
	if _, err := stdout.Write(wavData); err != nil {
		return fmt.Errorf("%w: %w", tts.ErrPersistence, err)
	}
	return nil
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --sentence or pipe text on stdin")
	}
	return input, nil
}
