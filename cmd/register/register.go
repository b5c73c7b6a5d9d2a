// Package register handles direct document intake from the command line.
package register

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/documents"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

var (
	filePath    string
	inputMethod string
)

// Cmd represents the register command
var Cmd = &cobra.Command{
	Use:   "register",
	Short: "Register a local file as a document",
	Long: `Register a local file: run AI analysis and keyword rules, file the
document under the dated folder structure and record it in the database.`,
	Run: registerFunc,
}

func init() {
	Cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path of the file to register (required)")
	Cmd.Flags().StringVarP(&inputMethod, "method", "m", models.InputMethodUpload, "Input method (camera or upload)")
	_ = Cmd.MarkFlagRequired("file")
}

func registerFunc(cmd *cobra.Command, args []string) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		root.Log.Fatalf("Failed to read %s: %v", filePath, err)
	}

	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	doc, err := c.Documents().Register(ctx, root.OwnerID, documents.RegisterInput{
		FileName:    filepath.Base(filePath),
		Data:        data,
		MIMEType:    mimeTypeFor(filePath),
		InputMethod: inputMethod,
	})
	if err != nil {
		root.Log.Fatalf("Failed to register document: %v", err)
	}

	root.Log.Infof("Registered %s as %s (id %s)", doc.FileName(), doc.Type, doc.ID)
	if doc.StoragePath != nil {
		root.Log.Infof("Stored at %s", *doc.StoragePath)
	}
}

func mimeTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
