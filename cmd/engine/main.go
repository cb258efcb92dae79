package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/core/cmd/engine/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskdeck-engine",
		Short: "TaskDeck notification and recurrence scheduling engine",
		Long:  `The TaskDeck engine sweeps tasks with due dates to create overdue and reminder notifications, and spawns successor occurrences of recurring tasks when they are completed.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewCompleteCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
