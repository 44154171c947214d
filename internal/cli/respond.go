package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/bugbot/internal/autofix"
	"github.com/alanmeadows/bugbot/internal/gitexec"
	"github.com/alanmeadows/bugbot/internal/intent"
	"github.com/alanmeadows/bugbot/internal/llm"
	"github.com/alanmeadows/bugbot/internal/pipeline"
	"github.com/alanmeadows/bugbot/internal/resolve"
	"github.com/alanmeadows/bugbot/internal/state"
)

var (
	respondIssue       int
	respondBranch      string
	respondCommentBody string
	respondCommentFile string
	respondParentBody  string
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Handle a user reply to bugbot findings",
	Long: `Classifies a user's comment as a fix request, runs the build agent for
the targeted findings, verifies and pushes the resulting changes, and marks
the findings resolved. Preconditions that are not met (no LLM configured, no
resolvable branch, no unresolved findings) end the run as a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gh, err := newGitHub(cfg)
		if err != nil {
			return err
		}

		body := respondCommentBody
		if body == "" && respondCommentFile != "" {
			data, err := os.ReadFile(respondCommentFile)
			if err != nil {
				return fmt.Errorf("reading comment file: %w", err)
			}
			body = string(data)
		}

		loader := state.NewLoader(gh)

		var llmClient llm.Client
		if cfg.LLM.Model != "" {
			llmClient = llm.NewOpenAIClient(cfg.LLM.URL, os.Getenv("BUGBOT_LLM_API_KEY"), cfg.LLM.Model)
		}
		detector := intent.NewDetector(gh, llmClient, loader, cfg.LLM.Model)

		var agent llm.BuildAgent
		if cfg.Agent.Command != "" {
			argv, err := gitexec.TokenizeCommand(cfg.Agent.Command)
			if err != nil {
				return fmt.Errorf("invalid agent command: %w", err)
			}
			agent = llm.NewCLIAgent(argv, gitexec.Runner{})
		}
		orchestrator := autofix.NewOrchestrator(agent, loader)
		executor := gitexec.NewExecutor(workDir, gh)
		marker := resolve.NewMarker(gh)

		var (
			intentRes *intent.Result
			fixRes    *autofix.FixResult
		)

		steps := []pipeline.Step{
			{Name: "detect-intent", Run: func(ctx context.Context) pipeline.StepResult {
				res, err := detector.Detect(ctx, intent.Request{
					IssueNumber: respondIssue,
					CommentBody: body,
					HeadBranch:  respondBranch,
					ParentBody:  respondParentBody,
				})
				if err != nil {
					return pipeline.Failure("", err)
				}
				if res == nil {
					return pipeline.Skip("", "preconditions not met")
				}
				if !res.IsFixRequest || len(res.TargetFindingIDs) == 0 {
					return pipeline.Skip("", "not a fix request")
				}
				intentRes = res
				return pipeline.Success("", fmt.Sprintf("%d target(s)", len(res.TargetFindingIDs)))
			}},
			{Name: "autofix", Run: func(ctx context.Context) pipeline.StepResult {
				branch := respondBranch
				if intentRes.BranchOverride != "" {
					branch = intentRes.BranchOverride
				}
				res, err := orchestrator.Run(ctx, autofix.FixRequest{
					TargetFindingIDs: intentRes.TargetFindingIDs,
					Ctx:              intentRes.Ctx,
					IssueNumber:      respondIssue,
					Repo:             cfg.GitHub.Owner + "/" + cfg.GitHub.Repo,
					Branch:           branch,
					UserComment:      body,
					VerifyCommands:   cfg.Verify.Commands,
					WorkDir:          workDir,
				})
				if err != nil {
					return pipeline.Failure("", err)
				}
				if res == nil {
					return pipeline.Skip("", "nothing to fix")
				}
				fixRes = res
				return pipeline.Success("", fmt.Sprintf("%d finding(s) targeted", len(res.TargetFindingIDs)))
			}},
			{Name: "commit-push", Run: func(ctx context.Context) pipeline.StepResult {
				res, err := executor.CommitAndPush(ctx, gitexec.Options{
					Branch:         respondBranch,
					BranchOverride: intentRes.BranchOverride,
					VerifyCommands: cfg.Verify.Commands,
				})
				if err != nil {
					return pipeline.Failure("", err)
				}
				if !res.Committed {
					return pipeline.Success("", "no changes to commit")
				}
				return pipeline.Success("", "committed and pushed")
			}},
			{Name: "mark-resolved", Run: func(ctx context.Context) pipeline.StepResult {
				marker.MarkResolved(ctx, fixRes.Ctx, fixRes.TargetFindingIDs)
				return pipeline.Success("", fmt.Sprintf("%d finding(s)", len(fixRes.TargetFindingIDs)))
			}},
		}

		results := pipeline.Run(cmd.Context(), steps)
		if pipeline.Failed(results) {
			last := results[len(results)-1]
			return fmt.Errorf("step %s failed: %w", last.Name, last.Err)
		}
		return nil
	},
}

func init() {
	respondCmd.Flags().IntVar(&respondIssue, "issue", 0, "Issue number the comment was posted on")
	respondCmd.Flags().StringVar(&respondBranch, "branch", "", "Head branch, when the event carries one")
	respondCmd.Flags().StringVar(&respondCommentBody, "comment-body", "", "The user's comment text")
	respondCmd.Flags().StringVar(&respondCommentFile, "comment-file", "", "File containing the user's comment text")
	respondCmd.Flags().StringVar(&respondParentBody, "parent-body", "", "Body of the comment being replied to, for PR threads")
	rootCmd.AddCommand(respondCmd)
}
