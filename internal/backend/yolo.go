package backend

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"yemen-lpr/pkg/geometry"
)

const yoloInputSize = 640

// YOLODetector runs a YOLO ONNX model through the OpenCV DNN module.
// The network is loaded once on first use and reused read-only; a load
// failure is remembered and every later Detect reports ErrNotConfigured.
type YOLODetector struct {
	modelPath  string
	envVar     string
	classNames []string
	log        zerolog.Logger

	once    sync.Once
	net     gocv.Net
	loaded  bool
	loadErr error
}

// NewYOLODetector creates a detector for the given weights file. envVar names
// an environment variable that overrides modelPath when set; classNames maps
// class ids to labels and may be empty for single-class models.
func NewYOLODetector(modelPath, envVar string, classNames []string, log zerolog.Logger) *YOLODetector {
	return &YOLODetector{
		modelPath:  modelPath,
		envVar:     envVar,
		classNames: classNames,
		log:        log,
	}
}

// resolveModelPath picks the weights file.
// Priority: env var > configured path > conventional models/ locations.
func (d *YOLODetector) resolveModelPath() string {
	if d.envVar != "" {
		if p := os.Getenv(d.envVar); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
			d.log.Warn().Str("env", d.envVar).Str("path", p).Msg("model path from environment not found")
		}
	}
	if d.modelPath != "" {
		if _, err := os.Stat(d.modelPath); err == nil {
			return d.modelPath
		}
	}
	base := filepath.Base(d.modelPath)
	if base == "." || base == "" {
		return ""
	}
	for _, p := range []string{
		filepath.Join("models", base),
		filepath.Join("ai", "models", base),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (d *YOLODetector) ensureLoaded() error {
	d.once.Do(func() {
		path := d.resolveModelPath()
		if path == "" {
			d.loadErr = fmt.Errorf("%w: weights not found (set %s or provide %s)",
				ErrNotConfigured, d.envVar, d.modelPath)
			d.log.Error().Str("model", d.modelPath).Msg("detection model not found")
			return
		}
		net := gocv.ReadNet(path, "")
		if net.Empty() {
			d.loadErr = fmt.Errorf("%w: failed to load network from %s", ErrNotConfigured, path)
			d.log.Error().Str("path", path).Msg("failed to load detection model")
			return
		}
		d.net = net
		d.loaded = true
		d.log.Info().Str("path", path).Msg("detection model loaded")
	})
	return d.loadErr
}

// Detect implements Detector. Boxes are clamped to the image bounds and
// returned in model emission order after non-maximum suppression.
func (d *YOLODetector) Detect(img gocv.Mat, minConf float64) ([]Detection, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, nil
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(yoloInputSize, yoloInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	boxes, scores, classIDs := d.decode(out, img.Cols(), img.Rows(), float32(minConf))
	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(minConf), 0.45)

	detections := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(boxes) {
			continue
		}
		box := geometry.FromRect(boxes[idx]).Clamp(img.Cols(), img.Rows())
		if box.Empty() {
			continue
		}
		detections = append(detections, Detection{
			Box:        box,
			Confidence: float64(scores[idx]),
			ClassID:    classIDs[idx],
			ClassName:  d.className(classIDs[idx]),
		})
	}
	return detections, nil
}

// decode parses a YOLOv8-style output tensor of shape [1, 4+numClasses, N].
func (d *YOLODetector) decode(out gocv.Mat, imgW, imgH int, minConf float32) ([]image.Rectangle, []float32, []int) {
	dims := out.Size()
	if len(dims) != 3 {
		return nil, nil, nil
	}
	channels, anchors := dims[1], dims[2]
	if channels < 5 {
		return nil, nil, nil
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		d.log.Warn().Err(err).Msg("unexpected detection output layout")
		return nil, nil, nil
	}

	at := func(c, a int) float32 { return data[c*anchors+a] }
	scaleX := float32(imgW) / yoloInputSize
	scaleY := float32(imgH) / yoloInputSize

	var (
		boxes    []image.Rectangle
		scores   []float32
		classIDs []int
	)
	for a := 0; a < anchors; a++ {
		bestScore := float32(0)
		bestClass := 0
		for c := 4; c < channels; c++ {
			if s := at(c, a); s > bestScore {
				bestScore = s
				bestClass = c - 4
			}
		}
		if bestScore < minConf {
			continue
		}
		cx, cy := at(0, a)*scaleX, at(1, a)*scaleY
		w, h := at(2, a)*scaleX, at(3, a)*scaleY
		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, bestClass)
	}
	return boxes, scores, classIDs
}

func (d *YOLODetector) className(id int) string {
	if id >= 0 && id < len(d.classNames) {
		return strings.ToLower(d.classNames[id])
	}
	return ""
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	if d.loaded {
		d.loaded = false
		return d.net.Close()
	}
	return nil
}
