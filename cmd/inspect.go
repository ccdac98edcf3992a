package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"exoscope/ml"
)

type inspectReport struct {
	Source             string          `json:"source"`
	Schema             ml.Schema       `json:"schema"`
	ModelLoaded        bool            `json:"model_loaded"`
	ScalerLoaded       bool            `json:"scaler_loaded"`
	EncoderLoaded      bool            `json:"encoder_loaded"`
	SupportsConfidence bool            `json:"supports_confidence"`
	EncoderClasses     []string        `json:"encoder_classes,omitempty"`
	Artifacts          []ml.LoadReport `json:"artifacts"`
	History            []ml.LoadReport `json:"history,omitempty"`
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var (
		history bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "load the artifacts and print what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			bundle := a.pipeline.Bundle()
			status := a.pipeline.Status()
			report := inspectReport{
				Source:             a.source.Name(),
				Schema:             status.Schema,
				ModelLoaded:        status.ModelLoaded,
				ScalerLoaded:       status.ScalerLoaded,
				EncoderLoaded:      status.EncoderLoaded,
				SupportsConfidence: status.SupportsConfidence,
				Artifacts:          status.Reports,
			}
			if bundle.Encoder != nil {
				report.EncoderClasses = bundle.Encoder.Classes()
			}
			if history {
				if a.audit == nil {
					return fmt.Errorf("--history needs database.path to be configured")
				}
				report.History, err = a.audit.History(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("read load history: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "include past load attempts from the audit database")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of history entries to show")
	return cmd
}
