package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	qhttp "exoscope/http"
	"exoscope/ml"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "classify one JSON record offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				r = f
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.pipeline.Status().ModelLoaded {
				return errors.New(qhttp.ModelNotLoadedMessage)
			}
			record, err := ml.DecodeRecord(r)
			if err != nil {
				return err
			}
			result, err := a.pipeline.Predict(record)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}
	cmd.Flags().StringVar(&input, "input", "-", "JSON record file, - for stdin")
	return cmd
}
