package facedir

import (
	"sort"

	"github.com/your-org/photospotter/internal/models"
)

// selectFaces applies the quality filter and keeps at most maxFaces
// detections, best detection score first. Detections without an embedding
// are never usable.
func selectFaces(dets []FaceDetection, filter QualityFilter, minScore float64, maxFaces int) []FaceDetection {
	out := make([]FaceDetection, 0, len(dets))
	for _, d := range dets {
		if len(d.Embedding) == 0 {
			continue
		}
		if filter == QualityAuto && d.DetScore < minScore {
			continue
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DetScore > out[j].DetScore })

	if maxFaces > 0 && len(out) > maxFaces {
		out = out[:maxFaces]
	}
	return out
}

// toBoundingBox converts a pixel [x1, y1, x2, y2] box into ratios of the
// image size, clamped to the image.
func toBoundingBox(bbox []float64, width, height int) models.BoundingBox {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return models.BoundingBox{}
	}
	x1, y1 := clamp(bbox[0]/float64(width)), clamp(bbox[1]/float64(height))
	x2, y2 := clamp(bbox[2]/float64(width)), clamp(bbox[3]/float64(height))
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return models.BoundingBox{
		Left:   float32(x1),
		Top:    float32(y1),
		Width:  float32(x2 - x1),
		Height: float32(y2 - y1),
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
