package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pcgo"
)

// Step operations.
const (
	opTransform  = "transform"
	opRigid      = "rigid"
	opDownsample = "downsample"
	opWrite      = "write"
	opDescribe   = "describe"
)

// Pipeline is a sequence of steps applied to one input cloud.
//
// Example:
//
//	name: tile-42
//	input: s3://scans/raw/tile-42.las
//	output: ${OUT_DIR}/tile-42.pcg
//	steps:
//	  - op: rigid
//	    euler: [0, 0, 90]
//	    translation: [10, 0, 0]
//	  - op: downsample
//	    voxel_size: 0.05
//	    strategy: centroid
type Pipeline struct {
	Name   string `yaml:"name"`
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Steps  []Step `yaml:"steps"`
}

// Step is one pipeline operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// transform: 3x3 linear or 4x4 homogeneous matrix, row-major.
	Matrix [][]float32 `yaml:"matrix,omitempty"`

	// rigid
	Rotation       [][]float32 `yaml:"rotation,omitempty"`
	Euler          []float32   `yaml:"euler,omitempty"`
	Translation    []float32   `yaml:"translation,omitempty"`
	StrictRotation bool        `yaml:"strict_rotation,omitempty"`
	Tolerance      float64     `yaml:"tolerance,omitempty"`

	// downsample
	VoxelSize float32 `yaml:"voxel_size,omitempty"`
	Strategy  string  `yaml:"strategy,omitempty"`
	Reduction string  `yaml:"reduction,omitempty"`
	Seed      *uint64 `yaml:"seed,omitempty"`

	// write
	Path string `yaml:"path,omitempty"`
}

// LoadPipeline reads a YAML pipeline file, substituting ${VAR} references
// with environment values.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return parsePipeline(data)
}

func parsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the static shape of every step.
func (p *Pipeline) Validate() error {
	if p.Input == "" {
		return fmt.Errorf("pipeline: input is required")
	}
	for i := range p.Steps {
		s := &p.Steps[i]
		s.Op = strings.ToLower(strings.TrimSpace(s.Op))
		if err := s.validate(); err != nil {
			return fmt.Errorf("pipeline: step %d (%s): %w", i+1, s.Op, err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	switch s.Op {
	case opTransform:
		if len(s.Matrix) == 0 {
			return fmt.Errorf("matrix is required")
		}
	case opRigid:
		if len(s.Rotation) > 0 && len(s.Euler) > 0 {
			return fmt.Errorf("rotation and euler are mutually exclusive")
		}
	case opDownsample:
		if s.VoxelSize <= 0 {
			return fmt.Errorf("voxel_size must be positive")
		}
		if _, err := pcgo.ParseStrategy(s.strategy()); err != nil {
			return err
		}
		if s.Reduction != "" {
			if _, err := pcgo.ParseReduction(s.Reduction); err != nil {
				return err
			}
		}
	case opWrite:
		if s.Path == "" {
			return fmt.Errorf("path is required")
		}
	case opDescribe:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func (s *Step) strategy() string {
	if s.Strategy == "" {
		return "centroid"
	}
	return s.Strategy
}

// apply runs one step against pc and returns the resulting cloud.
func (a *app) apply(ctx context.Context, pc *pcgo.PointCloud, s Step) (*pcgo.PointCloud, error) {
	switch s.Op {
	case opTransform:
		if len(s.Matrix) == 4 {
			return a.engine().HomogeneousTransform(ctx, pc, s.Matrix)
		}
		return a.engine().Transform(ctx, pc, s.Matrix)

	case opRigid:
		rot := s.Rotation
		if len(s.Euler) > 0 {
			var err error
			if rot, err = eulerRotation(s.Euler); err != nil {
				return nil, err
			}
		}
		if len(rot) == 0 {
			rot = [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		}
		if s.StrictRotation {
			if err := pcgo.ValidateRotation(rot, s.Tolerance); err != nil {
				return nil, err
			}
		}
		t := s.Translation
		if t == nil {
			t = []float32{0, 0, 0}
		}
		return a.engine().RigidTransform(ctx, pc, rot, t)

	case opDownsample:
		strategy, err := pcgo.ParseStrategy(s.strategy())
		if err != nil {
			return nil, err
		}
		var opts []pcgo.Option
		if s.Seed != nil {
			opts = append(opts, pcgo.WithSeed(*s.Seed))
		}
		if s.Reduction != "" {
			r, err := pcgo.ParseReduction(s.Reduction)
			if err != nil {
				return nil, err
			}
			opts = append(opts, pcgo.WithReduction(r))
		}
		return a.engine(opts...).VoxelDownsample(ctx, pc, s.VoxelSize, strategy)

	case opWrite:
		return pc, a.write(ctx, s.Path, pc)

	case opDescribe:
		a.zl.Info("describe", zap.Stringer("cloud", pc))
		return pc, nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

// run executes the pipeline and writes the final cloud to p.Output when set.
func (a *app) run(ctx context.Context, p *Pipeline) error {
	log := a.zl.With(zap.String("pipeline", p.Name))

	pc, err := a.read(ctx, p.Input)
	if err != nil {
		return err
	}

	for i, s := range p.Steps {
		start := time.Now()
		in := pc.Len()
		if pc, err = a.apply(ctx, pc, s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Op, err)
		}
		log.Info("step done",
			zap.Int("step", i+1),
			zap.String("op", s.Op),
			zap.Int("points_in", in),
			zap.Int("points_out", pc.Len()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if p.Output != "" {
		return a.write(ctx, p.Output, pc)
	}
	return nil
}
