package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <location>",
		Short: "Print point count, bounds and columns of a cloud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := a.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := pc.Summary()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "points\t%d\n", s.Points)
			fmt.Fprintf(tw, "intensity\t%t\n", s.HasIntensity)
			fmt.Fprintf(tw, "rgb\t%t\n", s.HasRGB)
			fmt.Fprintf(tw, "attributes\t%s\n", strings.Join(s.Attributes, ", "))
			fmt.Fprintf(tw, "memory\t%d bytes\n", s.MemoryBytes)
			if s.Points > 0 {
				fmt.Fprintf(tw, "min\t%.4f %.4f %.4f\n", s.Min.X, s.Min.Y, s.Min.Z)
				fmt.Fprintf(tw, "max\t%.4f %.4f %.4f\n", s.Max.X, s.Max.Y, s.Max.Z)
				fmt.Fprintf(tw, "extent\t%.4f %.4f %.4f\n", s.Extent.X, s.Extent.Y, s.Extent.Z)
				fmt.Fprintf(tw, "centroid\t%.4f %.4f %.4f\n", s.Centroid.X, s.Centroid.Y, s.Centroid.Z)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a cloud between formats",
		Long: `Convert reads the input and writes it in the format implied by the output
extension (or --format).

Example:
  pcgo convert scan.las s3://bucket/scan.parquet --parquet-compression zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := a.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.write(cmd.Context(), args[1], pc)
		},
	}
}

func newTransformCmd(a *app) *cobra.Command {
	var matrix, rotation, euler, translation string
	var strict bool
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "transform <input> <output>",
		Short: "Apply a linear, homogeneous or rigid transform",
		Long: `Transform applies either a full matrix (--matrix, 3x3 or 4x4) or a rigid
motion built from --rotation or --euler plus --translation.

Example:
  pcgo transform in.pcg out.pcg --matrix "2,0,0;0,2,0;0,0,2"
  pcgo transform in.pcg out.pcg --euler 0,0,90 --translation 10,0,0 --strict-rotation`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := transformStep(matrix, rotation, euler, translation)
			if err != nil {
				return err
			}
			step.StrictRotation = strict
			step.Tolerance = tolerance
			if err := step.validate(); err != nil {
				return err
			}

			pc, err := a.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pc, err = a.apply(cmd.Context(), pc, step); err != nil {
				return err
			}
			return a.write(cmd.Context(), args[1], pc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&matrix, "matrix", "", `Row-major matrix, rows separated by ';' ("a,b,c;d,e,f;g,h,i")`)
	f.StringVar(&rotation, "rotation", "", "Row-major 3x3 rotation matrix")
	f.StringVar(&euler, "euler", "", "Rotation as x,y,z angles in degrees (applied x, then y, then z)")
	f.StringVar(&translation, "translation", "", "Translation as x,y,z")
	f.BoolVar(&strict, "strict-rotation", false, "Reject rotations that are not orthonormal with det = +1")
	f.Float64Var(&tolerance, "tolerance", 0, "Tolerance for --strict-rotation (0 = default)")
	cmd.MarkFlagsMutuallyExclusive("matrix", "rotation")
	cmd.MarkFlagsMutuallyExclusive("matrix", "euler")
	cmd.MarkFlagsMutuallyExclusive("matrix", "translation")
	cmd.MarkFlagsMutuallyExclusive("rotation", "euler")
	return cmd
}

// transformStep turns the transform flags into a pipeline step.
func transformStep(matrix, rotation, euler, translation string) (Step, error) {
	if matrix != "" {
		m, err := parseMatrix(matrix)
		if err != nil {
			return Step{}, err
		}
		return Step{Op: opTransform, Matrix: m}, nil
	}

	step := Step{Op: opRigid}
	var err error
	if rotation != "" {
		if step.Rotation, err = parseMatrix(rotation); err != nil {
			return Step{}, fmt.Errorf("rotation: %w", err)
		}
	}
	if euler != "" {
		if step.Euler, err = parseVector(euler); err != nil {
			return Step{}, fmt.Errorf("euler: %w", err)
		}
	}
	if translation != "" {
		if step.Translation, err = parseVector(translation); err != nil {
			return Step{}, fmt.Errorf("translation: %w", err)
		}
	}
	if step.Rotation == nil && step.Euler == nil && step.Translation == nil {
		return Step{}, fmt.Errorf("one of --matrix, --rotation, --euler or --translation is required")
	}
	return step, nil
}

func newDownsampleCmd(a *app) *cobra.Command {
	var voxelSize float32
	var strategy, reduction string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "downsample <input> <output>",
		Short: "Reduce density with a voxel grid",
		Long: `Downsample keeps one point per occupied voxel. The random strategy keeps an
existing point; the centroid strategy averages each voxel.

Example:
  pcgo downsample scan.las thin.pcg --voxel-size 0.05 --strategy random --seed 42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step := Step{
				Op:        opDownsample,
				VoxelSize: voxelSize,
				Strategy:  strategy,
				Reduction: reduction,
			}
			if cmd.Flags().Changed("seed") {
				step.Seed = &seed
			}
			if err := step.validate(); err != nil {
				return err
			}

			pc, err := a.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pc, err = a.apply(cmd.Context(), pc, step); err != nil {
				return err
			}
			return a.write(cmd.Context(), args[1], pc)
		},
	}

	f := cmd.Flags()
	f.Float32Var(&voxelSize, "voxel-size", 0, "Voxel edge length (required)")
	f.StringVar(&strategy, "strategy", "centroid", "Selection strategy (random, centroid)")
	f.StringVar(&reduction, "reduction", "", "Attribute reduction for centroid (mean, first)")
	f.Uint64Var(&seed, "seed", 0, "Seed for reproducible random selection")
	_ = cmd.MarkFlagRequired("voxel-size")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Run a YAML pipeline",
		Long: `Run reads a pipeline file and applies its steps in order. ${VAR} references
are replaced with environment values before parsing.

Example pipeline:
  input: scans/raw.las
  output: ${OUT}/clean.pcg
  steps:
    - op: rigid
      euler: [0, 0, 90]
    - op: downsample
      voxel_size: 0.05`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := LoadPipeline(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), p)
		},
	}
}
