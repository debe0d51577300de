package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"

	"github.com/spf13/cobra"

	"yololabel/internal/adapters/trainer"
	"yololabel/internal/application"
	"yololabel/internal/application/commands"
	"yololabel/internal/config"
)

var (
	exportDir      string
	valRatio       float64
	trainerCommand string
	trainQuiet     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export labeled images as a train/val dataset",
	Long: `Export the project's labeled images and label files into
train/ and val/ splits with a data.yaml descriptor.

Examples:
  yololabel-cli export
  yololabel-cli export --dir ~/datasets/traffic --val 0.1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		result, err := commands.NewExportDatasetCommand(GetManager(), exportDir, valRatio).Execute(ctx)
		if err != nil {
			return err
		}
		for _, name := range result.Summary.Skipped {
			env.Logger.Debug("skipped image", "image", name)
		}
		fmt.Println(result.Message)
		fmt.Println(result.Summary.DescriptorPath)
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Export the dataset and run the external trainer",
	Long: `Export the dataset and run the training command on it. The
command comes from --trainer or YOLOLABEL_TRAINER; {project}, {data} and
{runs} are replaced by the project directory, the data.yaml path and the
project's runs/ directory.

Examples:
  yololabel-cli train
  yololabel-cli train --trainer "yolo train model=yolov8n.pt data={data} project={runs}"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if _, err := requireProject(ctx); err != nil {
			return err
		}

		opts := []trainer.Option{
			trainer.WithCommand(trainerCommand),
			trainer.WithLogger(env.Logger),
		}
		if !trainQuiet {
			opts = append(opts, trainer.WithOutput(func(line string) {
				fmt.Fprintln(os.Stderr, line)
			}))
		}
		runner := trainer.NewRunner(opts...)

		result, err := commands.NewTrainCommand(GetManager(), runner, valRatio).Execute(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		for _, name := range slices.Sorted(maps.Keys(result.Run.Metrics)) {
			fmt.Printf("  %s: %.4f\n", name, result.Run.Metrics[name])
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default <project>/export)")
	exportCmd.Flags().Float64Var(&valRatio, "val", application.DefaultValRatio, "share of images held out for validation")

	trainCmd.Flags().Float64Var(&valRatio, "val", application.DefaultValRatio, "share of images held out for validation")
	trainCmd.Flags().StringVar(&trainerCommand, "trainer", config.TrainerCommand(), "training command line")
	trainCmd.Flags().BoolVarP(&trainQuiet, "quiet", "q", false, "do not stream trainer output")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(trainCmd)
}
