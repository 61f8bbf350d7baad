package catalog

import "math/rand/v2"

// ImagePicker chooses the placeholder image for categories that have none.
type ImagePicker interface {
	Pick(choices []string) string
}

type RandomPicker struct{}

func (RandomPicker) Pick(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.IntN(len(choices))]
}

// FixedPicker always returns the choice at Index (modulo the number of choices).
type FixedPicker struct {
	Index int
}

func (p FixedPicker) Pick(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	i := p.Index % len(choices)
	if i < 0 {
		i += len(choices)
	}
	return choices[i]
}
