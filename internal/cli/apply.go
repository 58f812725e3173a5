package cli

import (
	"encoding/json"
	"fmt"

	"resumelift/internal/common"
	"resumelift/internal/review"
	"resumelift/internal/types"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply [result-file] [resume-file]",
	Short: "Apply reviewed suggestions to a resume document",
	Long: `Apply accept/reject decisions from an enhancement result to a resume
document without an interactive review session. The command takes two
arguments: the path to a saved enhancement result (JSON) and the path to the
resume document the suggestions should be reconciled into. Accepted
suggestions patch their field into the document; rejected ones leave it
untouched. The reconciled document is written as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

var (
	applyOutput    string
	applyAccept    []string
	applyReject    []string
	applyAcceptAll bool
	applyRejectAll bool
)

func init() {
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Output file path (default: stdout)")
	applyCmd.Flags().StringArrayVar(&applyAccept, "accept", nil, "Suggestion ID to accept (repeatable)")
	applyCmd.Flags().StringArrayVar(&applyReject, "reject", nil, "Suggestion ID to reject (repeatable)")
	applyCmd.Flags().BoolVar(&applyAcceptAll, "accept-all", false, "Accept every pending suggestion")
	applyCmd.Flags().BoolVar(&applyRejectAll, "reject-all", false, "Reject every pending suggestion")
	applyCmd.MarkFlagsMutuallyExclusive("accept-all", "reject-all")
	applyCmd.MarkFlagsMutuallyExclusive("accept-all", "accept")
	applyCmd.MarkFlagsMutuallyExclusive("reject-all", "reject")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if !applyAcceptAll && !applyRejectAll && len(applyAccept) == 0 && len(applyReject) == 0 {
		return fmt.Errorf("no decisions given; use --accept, --reject, --accept-all, or --reject-all")
	}

	fileProcessor := common.NewFileProcessor(logger)
	fileProcessor.MaxFileSize = cfg.App.MaxFileSize
	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	var result types.EnhancementResult
	if err := json.Unmarshal([]byte(contents[0]), &result); err != nil {
		return fmt.Errorf("failed to parse enhancement result %s: %w", args[0], err)
	}
	data, err := parseResumeDocument(contents[1])
	if err != nil {
		return err
	}
	// Reconcile against the supplied document, not the snapshot saved in the
	// result. The two differ when the resume was edited after the AI run.
	result.OriginalData = data

	session, err := review.NewSession(&result, review.SessionConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to open review session: %w", err)
	}

	switch {
	case applyAcceptAll:
		err = session.AcceptAll()
	case applyRejectAll:
		err = session.RejectAll()
	default:
		for _, id := range applyAccept {
			if err = session.Accept(id); err != nil {
				break
			}
		}
		if err == nil {
			for _, id := range applyReject {
				if err = session.Reject(id); err != nil {
					break
				}
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to apply review decisions: %w", err)
	}

	view, err := session.View()
	if err != nil {
		return fmt.Errorf("failed to snapshot review session: %w", err)
	}
	logger.Info("Review decisions applied",
		"accepted", view.Accepted,
		"rejected", view.Rejected,
		"pending", view.Pending)

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(view.Document, common.CommandConfig{
		OutputFile:   applyOutput,
		OutputFormat: "json",
	})
}
