// Package mail handles the staged-attachment approval workflow.
package mail

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/container"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/mailintake"
)

var (
	ids          string
	overrideType string
	intakeDir    string
)

// Cmd represents the mail command group
var Cmd = &cobra.Command{
	Use:   "mail",
	Short: "Manage email-attachment intake",
	Long:  `Stage inbound attachments as pending items and approve or reject them.`,
}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage attachments from the intake directory",
	Run:   stageFunc,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending items",
	Run:   listFunc,
}

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve pending items into documents",
	Run:   approveFunc,
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject pending items",
	Run:   rejectFunc,
}

func init() {
	stageCmd.Flags().StringVarP(&intakeDir, "dir", "d", "", "Intake directory (default from configuration)")

	approveCmd.Flags().StringVarP(&ids, "ids", "i", "", "Comma-separated pending item ids (required)")
	approveCmd.Flags().StringVarP(&overrideType, "type", "t", "", "Document type override")
	_ = approveCmd.MarkFlagRequired("ids")

	rejectCmd.Flags().StringVarP(&ids, "ids", "i", "", "Comma-separated pending item ids (required)")
	_ = rejectCmd.MarkFlagRequired("ids")

	Cmd.AddCommand(stageCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(rejectCmd)
}

func bootstrap() (context.Context, *container.Container) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}
	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	return ctx, c
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func stageFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	dir := intakeDir
	if dir == "" {
		dir = c.Config().Intake.Dir
	}

	items, err := c.MailIntake().StageDirectory(ctx, root.OwnerID, dir)
	if err != nil {
		root.Log.Fatalf("Failed to stage attachments: %v", err)
	}
	root.Log.Infof("Staged %d attachments from %s", len(items), dir)
}

func listFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	items, err := c.MailIntake().ListPending(ctx, root.OwnerID)
	if err != nil {
		root.Log.Fatalf("Failed to list pending items: %v", err)
	}
	for _, item := range items {
		aiType := "-"
		if item.AIType != nil {
			aiType = *item.AIType
		}
		root.Log.Infof("%s  %s  from=%s  ai_type=%s", item.ID, item.Filename, item.Sender, aiType)
	}
	root.Log.Infof("%d pending items", len(items))
}

func approveFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	result, err := c.MailIntake().Approve(ctx, root.OwnerID, splitIDs(ids), mailintake.ApproveOptions{
		OverrideType: overrideType,
	})
	if err != nil {
		root.Log.Fatalf("Failed to approve items: %v", err)
	}
	root.Log.Infof("Approved %d of %d items (%d failed)", result.Approved, result.Requested, result.Failed)
}

func rejectFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	result, err := c.MailIntake().Reject(ctx, root.OwnerID, splitIDs(ids))
	if err != nil {
		root.Log.Fatalf("Failed to reject items: %v", err)
	}
	root.Log.Infof("Rejected %d of %d items", result.Rejected, result.Requested)
}
