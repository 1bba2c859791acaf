package analyzer

import (
	"image"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator with gonum statistics.
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// CalculateLaplacianVariance computes Laplacian variance using Gonum operations
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer func() { mc.slicePool.Put(data[:0]) }()
	if cap(data) < (w-2)*(h-2) {
		data = make([]float64, 0, (w-2)*(h-2))
	}

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 1; y < h-1; y++ {
		row := y * gray.Stride
		for x := 1; x < w-1; x++ {
			i := row + x
			lap := -4*float64(gray.Pix[i]) +
				float64(gray.Pix[i-gray.Stride]) + float64(gray.Pix[i+gray.Stride]) +
				float64(gray.Pix[i-1]) + float64(gray.Pix[i+1])
			data = append(data, lap)
		}
	}

	return stat.Variance(data, nil)
}

// CalculateBrightness returns the mean and standard deviation of the gray
// levels. Large pages are summed in horizontal strips.
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) (mean, stddev float64) {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0
	}

	numWorkers := 1
	if w*h >= 100000 {
		numWorkers = min(runtime.NumCPU(), h)
	}
	rowsPerWorker := (h + numWorkers - 1) / numWorkers // ceil division

	type strip struct{ sum, sumSq float64 }
	results := make(chan strip, numWorkers)
	var wg sync.WaitGroup

	for startY := 0; startY < h; startY += rowsPerWorker {
		endY := min(startY+rowsPerWorker, h)
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			var s strip
			for y := startY; y < endY; y++ {
				for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+w] {
					f := float64(v)
					s.sum += f
					s.sumSq += f * f
				}
			}
			results <- s
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var sum, sumSq float64
	for s := range results {
		sum += s.sum
		sumSq += s.sumSq
	}
	n := float64(w * h)
	mean = sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// DetectSkew fits a line through the strong Sobel edges and returns its
// angle in degrees, normalized to [-45, 45]. Nil means too few edges.
func (mc *metricsCalculator) DetectSkew(gray *image.Gray) *float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	var xs, ys []float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if math.Hypot(float64(gx), float64(gy)) > 50 {
				xs = append(xs, float64(x))
				ys = append(ys, float64(y))
			}
		}
	}

	if len(xs) < 10 {
		return nil
	}

	angle := skewAngle(xs, ys)
	return &angle
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// skewAngle is the least squares slope of ys over xs, in degrees.
func skewAngle(xs, ys []float64) float64 {
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	angle := math.Atan(slope) * 180 / math.Pi

	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}

	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}
	return angle
}
