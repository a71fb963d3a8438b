package model

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

type Item struct {
	ID        uuid.UUID
	Name      string
	Length    float64
	Width     float64
	Height    float64
	Volume    float64
	CargoMark string
}

// ComputeVolume returns length × width × height rounded to two decimals.
func (i Item) ComputeVolume() float64 {
	return math.Round(i.Length*i.Width*i.Height*100) / 100
}

func (i Item) VolumeLabel() string {
	return fmt.Sprintf("%.2f", i.Volume)
}
