package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"yololabel/internal/application"
	"yololabel/internal/application/commands"
)

var annotateClass string

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Show and clear an image's boxes",
}

var labelsShowCmd = &cobra.Command{
	Use:   "show <filename>",
	Short: "Print an image's YOLO label lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject(context.Background())
		if err != nil {
			return err
		}

		img, _ := p.FindImage(args[0])
		if img == nil {
			return fmt.Errorf("image %s: %w", args[0], application.ErrNotFound)
		}
		for _, a := range img.Annotations {
			name := a.ClassName
			if n, ok := p.Classes.Name(a.ClassID); ok {
				name = n
			}
			fmt.Printf("%s  # %s\n", a.FormatLine(), name)
		}
		return nil
	},
}

var labelsClearCmd = &cobra.Command{
	Use:   "clear <filename>",
	Short: "Remove every box from an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		msg, err := commands.NewClearLabelsCommand(GetManager(), args[0]).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <filename> <x1> <y1> <x2> <y2>",
	Short: "Add a box given by two corners in image pixels",
	Long: `Add a bounding box to an image. The corners are in image pixels, in
any order, and are clamped to the image.

Examples:
  yololabel-cli annotate street.png 40 20 180 140 --class car`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		var corners [4]float64
		for i, arg := range args[1:] {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return &application.ValidationError{Field: "box", Message: fmt.Sprintf("invalid coordinate %q", arg)}
			}
			corners[i] = v
		}

		annotateCmd := commands.NewAnnotateCommand(GetManager(), args[0], annotateClass,
			corners[0], corners[1], corners[2], corners[3])
		result, err := annotateCmd.Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		fmt.Println(result.Line)
		return nil
	},
}

func init() {
	annotateCmd.Flags().StringVarP(&annotateClass, "class", "c", "", "class name or id (default the selected class)")

	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(annotateCmd)
	labelsCmd.AddCommand(labelsShowCmd)
	labelsCmd.AddCommand(labelsClearCmd)
}
