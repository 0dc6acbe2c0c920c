// Package main provides the mediapress command line interface.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediapress/mediapress/internal/bootstrap"
	"github.com/mediapress/mediapress/internal/compress"
	"github.com/mediapress/mediapress/internal/config"
	"github.com/mediapress/mediapress/internal/video"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "mediapress",
	Short:   "Compress image and video files on the local device",
	Long:    `Mediapress re-encodes JPEG images at a chosen quality under optional dimension caps, and repackages MP4/H.264 video under a quality preset.`,
	Version: version,
}

var imageCmd = &cobra.Command{
	Use:   "image SOURCE",
	Short: "Compress an image file",
	Long:  `Decodes the source image (normalizing EXIF orientation), optionally downscales it to fit within --max-width and --max-height, and re-encodes it as JPEG at --quality.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImage,
}

var videoCmd = &cobra.Command{
	Use:   "video SOURCE",
	Short: "Compress a video file",
	Long:  `Probes the source container and transfers its tracks into a new MP4 at the bitrate and resolution derived from --preset. With --mode=remux, streams are copied without re-encoding.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVideo,
}

var (
	imageQuality int
	maxWidth     int
	maxHeight    int
	videoPreset  string
	videoMode    string
)

func init() {
	imageCmd.Flags().IntVarP(&imageQuality, "quality", "q", compress.DefaultImageQuality, "JPEG quality (0-100)")
	imageCmd.Flags().IntVar(&maxWidth, "max-width", 0, "Maximum output width (requires --max-height)")
	imageCmd.Flags().IntVar(&maxHeight, "max-height", 0, "Maximum output height (requires --max-width)")

	videoCmd.Flags().StringVarP(&videoPreset, "preset", "p", string(compress.DefaultVideoPreset), "Quality preset: low, medium or high")
	videoCmd.Flags().StringVarP(&videoMode, "mode", "m", string(video.ModeTranscode), "Transfer strategy: transcode or remux")

	rootCmd.AddCommand(imageCmd, videoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine loads configuration and wires the engine for one invocation.
func newEngine() (*compress.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	return bootstrap.NewEngine(cfg, logger)
}

func runImage(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	imgCfg := compress.ImageConfig{Quality: imageQuality}
	if cmd.Flags().Changed("max-width") {
		imgCfg.MaxWidth = &maxWidth
	}
	if cmd.Flags().Changed("max-height") {
		imgCfg.MaxHeight = &maxHeight
	}

	return report(<-engine.CompressImage(args[0], imgCfg))
}

func runVideo(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	vidCfg := compress.VideoConfig{
		Preset: video.Preset(videoPreset),
		Mode:   video.Mode(videoMode),
	}

	return report(<-engine.CompressVideo(args[0], vidCfg))
}

// report prints the outcome and converts a failure into a process error.
func report(out compress.Outcome) error {
	if !out.Succeeded() {
		return fmt.Errorf("%s: %s", out.Err.Code, out.Err.Message)
	}
	fmt.Println(out.OutputPath)
	if out.ArchiveURL != "" {
		fmt.Println(out.ArchiveURL)
	}
	return nil
}
