// Command lpr recognizes Yemeni license plates in an image or a video and
// prints the result as JSON.
//
// Usage:
//
//	lpr -image photo.jpg
//	lpr -video clip.mp4 -skip 2 -out output/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"yemen-lpr/internal/backend"
	"yemen-lpr/internal/config"
	"yemen-lpr/internal/governorate"
	"yemen-lpr/internal/ocr"
	"yemen-lpr/internal/pipeline"
)

var (
	flagConfig    = flag.String("config", "", "Config file path (default: ./lpr.{yaml,json,toml} if present)")
	flagImage     = flag.String("image", "", "Image file to process")
	flagVideo     = flag.String("video", "", "Video file to process")
	flagOut       = flag.String("out", "", "Output directory for processed video (overrides config)")
	flagSkip      = flag.Int("skip", -1, "Frames to skip between processed video frames (overrides config)")
	flagCrops     = flag.String("crops", "", "Directory for plate crop images (overrides config)")
	flagArtifacts = flag.String("artifacts", "", "Directory for debug artifacts (overrides config)")
	flagVerbose   = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *flagVerbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if (*flagImage == "") == (*flagVideo == "") {
		fmt.Fprintf(os.Stderr, "Usage: %s -image <file> | -video <file> [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *flagOut != "" {
		cfg.OutputDir = *flagOut
	}
	if *flagSkip >= 0 {
		cfg.SkipFrames = *flagSkip
	}
	if *flagCrops != "" {
		cfg.CropsDir = *flagCrops
	}
	if *flagArtifacts != "" {
		cfg.ArtifactsDir = *flagArtifacts
	}

	table, err := governorate.LoadTable(cfg.GovernorateTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load governorate table")
	}

	vehicles := backend.NewYOLODetector(cfg.VehicleModel, "LPR_VEHICLE_MODEL", cfg.VehicleClasses, log)
	defer vehicles.Close()
	plates := backend.NewYOLODetector(cfg.PlateModel, "LPR_PLATE_MODEL", nil, log)
	defer plates.Close()
	reader := backend.NewTesseractReader(cfg.OCRLanguages, log)
	defer reader.Close()
	digits := backend.NewDigitReader(log)
	defer digits.Close()

	engine := ocr.NewEngine(reader, log)
	decoder := governorate.NewDecoder(reader, digits, table, log)

	orch := pipeline.New(vehicles, plates, engine, decoder, log)
	orch.MinConfidence = cfg.MinConfidence
	orch.CropsDir = cfg.CropsDir
	if cfg.ArtifactsDir != "" {
		recorder, err := pipeline.NewArtifactRecorder(cfg.ArtifactsDir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up artifact recorder")
		}
		orch.Recorder = recorder
	}

	var out any
	switch {
	case *flagImage != "":
		result, err := orch.ProcessImageFile(*flagImage)
		if err != nil {
			log.Fatal().Err(err).Str("image", *flagImage).Msg("image processing failed")
		}
		out = result
	case *flagVideo != "":
		tracker := pipeline.NewVideoTracker(orch, log)
		tracker.SkipFrames = cfg.SkipFrames
		result, err := tracker.ProcessVideo(*flagVideo, cfg.OutputDir)
		if err != nil {
			log.Fatal().Err(err).Str("video", *flagVideo).Msg("video processing failed")
		}
		out = result
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
	fmt.Println(string(encoded))
}
