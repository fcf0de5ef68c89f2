// Package transform implements the driver's composable in-place frame
// transforms: tare, linear scale, map scale, and clamp. Transforms are
// chained and applied to every frame a Source produces before it reaches
// the cluster writer.
package transform

import "github.com/fieldbridge/driver/pkg/telem"

// Transform mutates frame in place.
type Transform interface {
	Transform(frame *telem.Frame) error
}

// Chain applies a fixed ordered list of Transforms to a frame.
type Chain struct {
	transforms []Transform
}

// NewChain builds a Chain from an ordered list of transforms.
func NewChain(transforms ...Transform) *Chain {
	return &Chain{transforms: transforms}
}

func (c *Chain) Transform(frame *telem.Frame) error {
	for _, t := range c.transforms {
		if err := t.Transform(frame); err != nil {
			return err
		}
	}
	return nil
}
