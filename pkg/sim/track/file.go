package track

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/quizrace/pkg/model"
)

// ReadTrackFile parses a yaml track description
func ReadTrackFile(path string) (*model.TrackFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track file: %w", err)
	}
	var tf model.TrackFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing track file %s: %w", path, err)
	}
	if tf.Name == "" {
		tf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &tf, nil
}

// FromFile builds a track from a parsed track file
func FromFile(tf *model.TrackFile, opts ...Option) (*Track, error) {
	ctrl := make([]Vec2, 0, len(tf.Points))
	for i, p := range tf.Points {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: point %d needs 2 coordinates, got %d",
				ErrInvalidTrack, i, len(p))
		}
		ctrl = append(ctrl, Vec2{p[0], p[1]})
	}
	all := append([]Option{WithName(tf.Name), WithSamples(tf.Samples)}, opts...)
	return NewTrack(ctrl, tf.Lanes, tf.LaneWidth, all...)
}

// Load reads and builds the track stored at path
func Load(path string, opts ...Option) (*Track, error) {
	tf, err := ReadTrackFile(path)
	if err != nil {
		return nil, err
	}
	return FromFile(tf, opts...)
}

// FromRef builds the track referenced by a race config.
// Relative file names are resolved against baseDir.
func FromRef(ref model.TrackRef, baseDir string, opts ...Option) (*Track, error) {
	if ref.File == "" {
		all := append([]Option{WithName("oval")}, opts...)
		return NewOval(ref.Oval.Straight, ref.Oval.Radius, ref.Lanes, ref.LaneWidth, all...)
	}
	path := ref.File
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	tf, err := ReadTrackFile(path)
	if err != nil {
		return nil, err
	}
	// lane layout from the race config wins over the file
	if ref.Lanes > 0 {
		tf.Lanes = ref.Lanes
	}
	if ref.LaneWidth > 0 {
		tf.LaneWidth = ref.LaneWidth
	}
	return FromFile(tf, opts...)
}
