package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/bugbot/internal/finding"
	"github.com/alanmeadows/bugbot/internal/publish"
	"github.com/alanmeadows/bugbot/internal/resolve"
	"github.com/alanmeadows/bugbot/internal/state"
)

var (
	detectIssue       int
	detectBranch      string
	detectFindings    string
	detectMaxComments int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Publish a detection pass's findings",
	Long: `Reads a detection result (the detection LLM's JSON output) from a file
or stdin, reconstructs the comment state for the branch, and publishes the
findings: new ids get fresh comments, known unresolved ids get their comments
updated in place, and ids listed in resolved_finding_ids get marked resolved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gh, err := newGitHub(cfg)
		if err != nil {
			return err
		}
		if detectIssue <= 0 {
			return fmt.Errorf("--issue is required")
		}

		result, err := readDetectionResult(detectFindings)
		if err != nil {
			return err
		}

		branch := detectBranch
		if branch == "" {
			branch = os.Getenv("GITHUB_HEAD_REF")
		}

		loader := state.NewLoader(gh)
		sctx, err := loader.Load(cmd.Context(), detectIssue, branch)
		if err != nil {
			return fmt.Errorf("loading context: %w", err)
		}

		max := detectMaxComments
		if max <= 0 {
			max = cfg.Limits.MaxCommentsPerPass
		}

		deduped := finding.Deduplicate(result.Findings)
		limited := finding.ApplyCommentLimit(deduped, max)
		slog.Info("detection pass shaped",
			"reported", len(result.Findings),
			"afterDedupe", len(deduped),
			"toPublish", len(limited.ToPublish),
			"overflow", limited.OverflowCount)

		if err := publish.NewPublisher(gh).Publish(cmd.Context(), sctx, detectIssue, limited); err != nil {
			return fmt.Errorf("publishing findings: %w", err)
		}

		if len(result.ResolvedFindingIDs) > 0 {
			resolve.NewMarker(gh).MarkResolved(cmd.Context(), sctx, result.ResolvedFindingIDs)
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().IntVar(&detectIssue, "issue", 0, "Issue number the findings belong to")
	detectCmd.Flags().StringVar(&detectBranch, "branch", "", "Head branch (defaults to GITHUB_HEAD_REF)")
	detectCmd.Flags().StringVar(&detectFindings, "findings", "-", "Detection result JSON file, or - for stdin")
	detectCmd.Flags().IntVar(&detectMaxComments, "max-comments", 0, "Cap on individual finding comments (defaults to config)")
	rootCmd.AddCommand(detectCmd)
}

func readDetectionResult(path string) (*finding.DetectionResult, error) {
	var data []byte
	var err error
	if path == "-" || path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading detection result: %w", err)
	}
	var result finding.DetectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing detection result: %w", err)
	}
	return &result, nil
}
