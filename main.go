package main

import (
	"fmt"
	"os"

	"fjacquet/expense-bot/cmd/categories"
	"fjacquet/expense-bot/cmd/learn"
	mirrorworker "fjacquet/expense-bot/cmd/mirror-worker"
	"fjacquet/expense-bot/cmd/record"
	"fjacquet/expense-bot/cmd/report"
	"fjacquet/expense-bot/cmd/root"
	"fjacquet/expense-bot/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(record.Cmd)
	root.Cmd.AddCommand(learn.Cmd)
	root.Cmd.AddCommand(categories.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(mirrorworker.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
