package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/config"
	"github.com/example/go-melotts/internal/doctor"
	"github.com/example/go-melotts/internal/lexicon"
	"github.com/example/go-melotts/internal/model"
	"github.com/example/go-melotts/internal/onnx"
	"github.com/example/go-melotts/internal/tts"
)

func newDoctorCmd() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and model checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			result := doctor.Run(doctorConfig(cfg), stdout)

			if !skipVerify {
				verifyGraphs(cmd, cfg, &result, stdout)
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(stdout, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the zero-input smoke run of both graphs")

	return cmd
}

func doctorConfig(cfg config.Config) doctor.Config {
	apiVersion := cfg.Runtime.ORTAPIVersion
	if apiVersion == 0 {
		apiVersion = onnx.DefaultAPIVersion
	}

	dcfg := doctor.Config{
		RuntimeVersion: func() (string, error) {
			info, err := onnx.DetectRuntime(cfg.Runtime)
			if err != nil {
				return "", err
			}
			return info.Version, nil
		},
		MinAPIVersion: apiVersion,
		ModelFiles:    []string{cfg.Paths.Encoder, cfg.Paths.Decoder},
		Lexicon: func() (string, error) {
			lex, err := lexicon.Load(cfg.Paths.Lexicon, cfg.Paths.Tokens)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d words, %d symbols", lex.Len(), lex.Symbols()), nil
		},
		Speaker: func() (string, error) {
			emb, err := tts.LoadSpeakerEmbedding(cfg.Paths.Speaker)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d dims (%s)", len(emb), cfg.Paths.Speaker), nil
		},
	}

	if _, err := os.Stat(cfg.Paths.Voices); err == nil {
		dcfg.Voices = func() (string, error) {
			vm, err := tts.NewVoiceManager(cfg.Paths.Voices)
			if err != nil {
				return "", err
			}
			for _, v := range vm.ListVoices() {
				if _, err := vm.LoadEmbedding(v.ID); err != nil {
					return "", err
				}
			}
			return fmt.Sprintf("%d voices", len(vm.ListVoices())), nil
		}
	}

	return dcfg
}

// verifyGraphs runs the smoke check when the manifest describes the graph
// inputs. Without it there is nothing to build zero inputs from.
func verifyGraphs(cmd *cobra.Command, cfg config.Config, result *doctor.Result, w io.Writer) {
	if _, err := os.Stat(cfg.Paths.Manifest); err != nil {
		_, _ = fmt.Fprintf(w, "%s model verify: skipped (no manifest at %s)\n", doctor.PassMark, cfg.Paths.Manifest)
		return
	}

	err := model.VerifyONNX(cmd.Context(), model.VerifyOptions{
		ManifestPath:  cfg.Paths.Manifest,
		ORTLibrary:    cfg.Runtime.ORTLibraryPath,
		ORTAPIVersion: cfg.Runtime.ORTAPIVersion,
		Stdout:        w,
		Stderr:        cmd.ErrOrStderr(),
	})
	if err != nil {
		result.AddFailure(fmt.Sprintf("model verify: %v", err))
		_, _ = fmt.Fprintf(w, "%s model verify: %v\n", doctor.FailMark, err)
		return
	}

	_, _ = fmt.Fprintf(w, "%s model verify: ok\n", doctor.PassMark)
}
