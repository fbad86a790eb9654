package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/spritepack/internal/atlas"
	"github.com/piwi3910/spritepack/internal/model"
)

// itemSpec is one input line of the item list file. Count expands the
// entry into that many identical items.
type itemSpec struct {
	ID     string `json:"id,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Count  int    `json:"count,omitempty"`
}

// packInput is the item list file format: a set of item specs plus
// optional config overrides.
type packInput struct {
	Items  []itemSpec    `json:"items"`
	Config *model.Config `json:"config,omitempty"`
}

func newPackCmd() *cobra.Command {
	var (
		padding    int
		maxWidth   int
		powerOfTwo bool
		algorithm  string
		genetic    bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "pack <items.json>",
		Short: "Pack an item list into atlases and print the placements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := loadInput(args[0])
			if err != nil {
				return err
			}

			cfg := model.DefaultConfig()
			if input.Config != nil {
				cfg = *input.Config
			}
			if cmd.Flags().Changed("padding") {
				cfg.Padding = padding
			}
			if cmd.Flags().Changed("max-width") {
				cfg.MaxWidth = maxWidth
			}
			if cmd.Flags().Changed("pow2") {
				cfg.UsePowerOfTwo = powerOfTwo
			}
			if cmd.Flags().Changed("genetic") {
				cfg.UseGeneticRefinement = genetic
			}
			switch algorithm {
			case "":
			case string(model.AlgorithmShelf):
				cfg.Algorithm = model.AlgorithmShelf
			case string(model.AlgorithmMaxRects):
				cfg.Algorithm = model.AlgorithmMaxRects
			default:
				return fmt.Errorf("unknown algorithm %q", algorithm)
			}

			logger := zap.NewNop()
			if verbose {
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
			}

			items := expandItems(input.Items)
			coord := atlas.New(cfg, atlas.WithLogger(logger))
			result, err := coord.Pack(items)
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().IntVar(&padding, "padding", 2, "pixels between placed items")
	cmd.Flags().IntVar(&maxWidth, "max-width", model.MaxAtlasDimension, "atlas width ceiling in pixels")
	cmd.Flags().BoolVar(&powerOfTwo, "pow2", true, "constrain atlas dimensions to powers of two")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "force a packer (shelf|maxrects) instead of auto selection")
	cmd.Flags().BoolVar(&genetic, "genetic", false, "enable genetic order refinement")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log packing progress")

	return cmd
}

func loadInput(path string) (packInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return packInput{}, err
	}
	var input packInput
	if err := json.Unmarshal(data, &input); err != nil {
		return packInput{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(input.Items) == 0 {
		return packInput{}, fmt.Errorf("%s contains no items", path)
	}
	return input, nil
}

// expandItems converts specs to items, expanding counts and assigning
// generated IDs where the spec omits one.
func expandItems(specs []itemSpec) []model.Item {
	var items []model.Item
	for _, spec := range specs {
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			it := model.NewItem(spec.Width, spec.Height)
			if spec.ID != "" {
				it.ID = spec.ID
				if count > 1 {
					it.ID = fmt.Sprintf("%s_%d", spec.ID, i+1)
				}
			}
			items = append(items, it)
		}
	}
	return items
}

func printResult(w io.Writer, result model.PackResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATLAS\tSIZE\tITEMS\tEFFICIENCY")
	for i, layout := range result.Layouts {
		label := layout.SourceLabel
		if label == "" {
			label = fmt.Sprintf("atlas_%d", i+1)
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%.1f%%\n",
			label, layout.Width, layout.Height, len(layout.Placements), layout.Efficiency())
	}
	tw.Flush()

	for _, f := range result.Failed {
		fmt.Fprintf(w, "FAILED %s (%d items): %s\n", f.Label, f.ItemCount, f.Reason)
	}
	if len(result.Layouts) > 0 {
		fmt.Fprintf(w, "total: %d atlases, %d items placed, %.1f%% overall efficiency\n",
			len(result.Layouts), result.PlacedCount(), result.TotalEfficiency())
	}
}
