package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fixme-backend/internal/diagnosis"
	"fixme-backend/internal/llm"
	"fixme-backend/internal/shared/config"
	"fixme-backend/internal/shared/server"
	"fixme-backend/internal/shared/telemetry"
)

var (
	diagnoseUserID      string
	diagnoseDescription string
	diagnoseImages      []string
	diagnoseJSON        bool
)

// newClient is replaced in tests.
var newClient = func(cfg config.Config) llm.Client {
	return server.NewLLMClient(cfg)
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Diagnose a repair issue from photos and/or a description",
	Long: `Diagnose sends up to 10 photos and an optional description to the model
and prints the normalized diagnosis.

Examples:
  fixmectl diagnose --user-id u1 --description "Kitchen faucet drips"
  fixmectl diagnose --user-id u1 --image leak.jpg --image closeup.png
  fixmectl diagnose --user-id u1 --image crack.jpg --json`,
	Args: cobra.NoArgs,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnoseUserID, "user-id", "u", "", "User identifier (required)")
	diagnoseCmd.Flags().StringVarP(&diagnoseDescription, "description", "d", "", "Text description of the issue")
	diagnoseCmd.Flags().StringArrayVarP(&diagnoseImages, "image", "i", nil, "Image file (repeatable)")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Print the raw JSON envelope")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	telemetry.SetLevel(cfg.LogLevel)
	// Keep stdout for the result.
	telemetry.SetOutput(cmd.ErrOrStderr())
	defer telemetry.SetOutput(os.Stdout)

	req := diagnosis.Request{UserID: diagnoseUserID, Description: diagnoseDescription}
	for _, path := range diagnoseImages {
		req.Images = append(req.Images, diagnosis.PathUpload(path))
	}

	svc := diagnosis.NewService(newClient(cfg), cfg.AnalysisTimeout)
	env, err := svc.Analyze(cmd.Context(), req)
	if err != nil {
		var uErr *diagnosis.UploadError
		if errors.As(err, &uErr) {
			for _, r := range uErr.Rejections {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", r.Filename, r.Error)
			}
		}
		return err
	}

	if diagnoseJSON {
		if err := outputJSON(cmd.OutOrStdout(), env); err != nil {
			return err
		}
	} else {
		printEnvelope(cmd.OutOrStdout(), env)
	}
	if !env.Success {
		return fmt.Errorf("diagnosis failed: %s", env.ErrorMessage)
	}
	return nil
}

func outputJSON(w io.Writer, env diagnosis.Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
