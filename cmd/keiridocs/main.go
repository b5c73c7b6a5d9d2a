// Package main provides the entry point for the keiridocs CLI application.
package main

import (
	"os"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/export"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/mail"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/register"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/rules"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/serve"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/types"
)

func main() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(register.Cmd)
	root.Cmd.AddCommand(mail.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(types.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
