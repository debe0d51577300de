package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yololabel/internal/application/commands"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Import, list and remove images",
}

var imageImportCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Copy images or directories into the project",
	Long: `Copy image files, or every image in the given directories, into the
project's images/ directory. Formats trainers do not accept are converted
to the workspace's default image format.

Examples:
  yololabel-cli image import ~/Pictures/street/*.jpg
  yololabel-cli image import ~/datasets/raw`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		result, err := commands.NewImportImagesCommand(GetManager(), args).Execute(ctx)
		if result == nil {
			return err
		}
		for _, r := range result.Results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.Source, r.Err)
			}
		}
		fmt.Println(result.Message)
		return err
	},
}

var imageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List images with their size and box count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject(context.Background())
		if err != nil {
			return err
		}

		if len(p.Images) == 0 {
			fmt.Println("No images")
			return nil
		}
		for _, img := range p.Images {
			fmt.Printf("%-32s %5dx%-5d %3d boxes\n", img.Filename, img.Width, img.Height, len(img.Annotations))
		}
		return nil
	},
}

var imageRemoveCmd = &cobra.Command{
	Use:   "remove <filename>",
	Short: "Remove an image and its label file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		result, err := commands.NewRemoveImageCommand(GetManager(), args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.AddCommand(imageImportCmd)
	imageCmd.AddCommand(imageListCmd)
	imageCmd.AddCommand(imageRemoveCmd)
}
