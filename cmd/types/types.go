// Package types lists and edits the document-type taxonomy.
package types

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

var (
	name      string
	subfolder string
)

// Cmd represents the types command group
var Cmd = &cobra.Command{
	Use:   "types",
	Short: "Manage the document-type taxonomy",
	Run:   listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user-defined document type",
	Run:   addFunc,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a user-defined document type",
	Run:   removeFunc,
}

func init() {
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Type name (required)")
	addCmd.Flags().StringVarP(&subfolder, "subfolder", "s", "", "Storage subfolder override")
	_ = addCmd.MarkFlagRequired("name")

	removeCmd.Flags().StringVarP(&name, "name", "n", "", "Type name (required)")
	_ = removeCmd.MarkFlagRequired("name")

	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(removeCmd)
}

func listFunc(cmd *cobra.Command, args []string) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}
	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	defs, err := c.Store().ListTypeDefinitions(ctx, root.OwnerID)
	if err != nil {
		root.Log.Fatalf("Failed to list document types: %v", err)
	}
	for _, def := range defs {
		marker := ""
		if def.IsDefault {
			marker = " (built-in)"
		}
		if def.Subfolder != nil {
			root.Log.Infof("%s -> %s%s", def.Name, *def.Subfolder, marker)
		} else {
			root.Log.Infof("%s%s", def.Name, marker)
		}
	}
}

func addFunc(cmd *cobra.Command, args []string) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}
	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	def := models.DocumentTypeDefinition{OwnerID: root.OwnerID, Name: name}
	if subfolder != "" {
		def.Subfolder = &subfolder
	}
	if err := c.Store().SaveTypeDefinition(ctx, &def); err != nil {
		root.Log.Fatalf("Failed to add document type: %v", err)
	}
	root.Log.Infof("Added document type %s", name)
}

func removeFunc(cmd *cobra.Command, args []string) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}
	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Store().DeleteTypeDefinition(ctx, root.OwnerID, name); err != nil {
		root.Log.Fatalf("Failed to remove document type: %v", err)
	}
	root.Log.Infof("Removed document type %s", name)
}
