package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/onnx"
)

func main() {
	if err := execute(context.Background(), NewRootCmd()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

// execute runs root and releases process-wide resources afterwards. Cobra
// skips post-run hooks when RunE fails, so teardown runs here as well.
func execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)

	if teardownErr := teardown(); teardownErr != nil {
		err = errors.Join(err, teardownErr)
	}

	if shutdownErr := onnx.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	return err
}
