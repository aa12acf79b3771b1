package inventory

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrClassificationFailed is returned when the classifier could not
// identify the item.
var ErrClassificationFailed = errors.New("image classification failed")

// Classification is the attribute guess produced by the image classifier.
type Classification struct {
	ClothingType   string  `json:"clothing_type"`
	ColorPrimary   string  `json:"color_primary"`
	ColorSecondary string  `json:"color_secondary"`
	Pattern        string  `json:"pattern"`
	Formality      string  `json:"formality"`
	SeasonWeight   string  `json:"season_weight"`
	Message        string  `json:"message"`
	Confidence     float64 `json:"confidence"`
	Success        bool    `json:"success"`
}

// ParseClassification decodes classifier output.
func ParseClassification(data []byte) (Classification, error) {
	var c Classification
	if err := json.Unmarshal(data, &c); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}
	return c, nil
}

// ItemFromClassification builds a new item from a classifier result.
// Unknown enum values fall back to their defaults; an unknown clothing type
// or an unsuccessful result is an error.
func ItemFromClassification(c Classification, imagePath string) (ClothingItem, error) {
	if !c.Success {
		if c.Message != "" {
			return ClothingItem{}, fmt.Errorf("%w: %s", ErrClassificationFailed, c.Message)
		}
		return ClothingItem{}, ErrClassificationFailed
	}

	t, ok := ParseClothingType(c.ClothingType)
	if !ok {
		return ClothingItem{}, fmt.Errorf("%w: unknown clothing type %q", ErrClassificationFailed, c.ClothingType)
	}

	return ClothingItem{
		ImagePath:      imagePath,
		Type:           t,
		ColorPrimary:   NormalizeHex(c.ColorPrimary),
		ColorSecondary: NormalizeHex(c.ColorSecondary),
		Pattern:        ParsePattern(c.Pattern),
		Formality:      ParseFormality(c.Formality),
		SeasonWeight:   ParseSeasonWeight(c.SeasonWeight),
	}, nil
}
