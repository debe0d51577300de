package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yololabel/internal/application/commands"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage a project's classes",
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes with their YOLO ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject(context.Background())
		if err != nil {
			return err
		}

		names := p.Classes.Names()
		if len(names) == 0 {
			fmt.Println("No classes")
			return nil
		}
		for id, name := range names {
			fmt.Printf("%d %s\n", id, name)
		}
		return nil
	},
}

var classAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Append classes",
	Long: `Append one or more classes. Adding an existing name keeps its id.

Examples:
  yololabel-cli class add car person`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		for _, name := range args {
			result, err := commands.NewAddClassCommand(GetManager(), name).Execute(ctx)
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
		}
		return nil
	},
}

var classRemoveCmd = &cobra.Command{
	Use:   "remove <class>",
	Short: "Remove a class by name or id",
	Long: `Remove a class. Its boxes are deleted and every higher class id
shifts down by one in all label files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		result, err := commands.NewRemoveClassCommand(GetManager(), args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var classRenameCmd = &cobra.Command{
	Use:   "rename <class> <new-name>",
	Short: "Rename a class, keeping its id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		result, err := commands.NewRenameClassCommand(GetManager(), args[0], args[1]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classCmd)
	classCmd.AddCommand(classListCmd)
	classCmd.AddCommand(classAddCmd)
	classCmd.AddCommand(classRemoveCmd)
	classCmd.AddCommand(classRenameCmd)
}
