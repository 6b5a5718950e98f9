package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kanso",
	Short: "Kanso - an ordered-collection kanban engine",
	Long:  `Kanso keeps kanban boards synchronized over a document store, encoding column and task order as linked lists.`,
}

func Execute() error {
	return rootCmd.Execute()
}
