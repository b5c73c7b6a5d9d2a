// Package rules manages the keyword classification rules.
package rules

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/classifier"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/container"
)

var rulesFile string

// Cmd represents the rules command group
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage keyword classification rules",
	Run:   listFunc,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import rules from a YAML file",
	Run:   importFunc,
}

func init() {
	importCmd.Flags().StringVarP(&rulesFile, "file", "f", "", "YAML rules file (required)")
	_ = importCmd.MarkFlagRequired("file")

	Cmd.AddCommand(importCmd)
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

func listFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	rules, err := c.Store().ListRules(ctx, root.OwnerID)
	if err != nil {
		root.Log.Fatalf("Failed to list rules: %v", err)
	}
	for _, r := range rules {
		state := "active"
		if !r.Active {
			state = "inactive"
		}
		root.Log.Infof("%s  %q -> %s  priority=%d  %s", r.ID, r.Keyword, r.TargetType, r.Priority, state)
	}
	root.Log.Infof("%d rules", len(rules))
}

func importFunc(cmd *cobra.Command, args []string) {
	ctx, c := bootstrap()
	defer func() { _ = c.Close() }()

	rules, err := classifier.LoadRulesFile(rulesFile)
	if err != nil {
		root.Log.Fatalf("Failed to load rules file: %v", err)
	}

	imported := 0
	for i := range rules {
		rules[i].OwnerID = root.OwnerID
		if err := c.Store().SaveRule(ctx, &rules[i]); err != nil {
			root.Log.Warnf("Skipping rule %q: %v", rules[i].Keyword, err)
			continue
		}
		imported++
	}
	root.Log.Infof("Imported %d of %d rules from %s", imported, len(rules), rulesFile)
}
