package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/snapgrade/internal/codec"
	"github.com/fpang/snapgrade/internal/imaging"
	"github.com/fpang/snapgrade/internal/logging"
	"github.com/fpang/snapgrade/internal/pipeline"
	"github.com/fpang/snapgrade/internal/quality"
)

// CLI flags
var (
	jsonFlag  bool
	levelFlag float64
	outFlag   string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "snapgrade",
	Short: "No-reference image quality assessment and enhancement",
	Long: `SnapGrade scores photos without a reference image, compares two photos
metric by metric, and enhances the weaker one toward the stronger one's
characteristics.

Examples:
  snapgrade assess photo.jpg
  snapgrade assess photo.jpg --json
  snapgrade compare before.png after.png
  snapgrade enhance a.jpg b.jpg --level 0.7 --out enhanced.png
  snapgrade token alice --ttl 24h`,
}

var assessCmd = &cobra.Command{
	Use:   "assess FILE",
	Short: "Score a single image on sharpness, contrast, noise, and naturalness",
	Args:  cobra.ExactArgs(1),
	Run:   runAssess,
}

var compareCmd = &cobra.Command{
	Use:   "compare FILE_A FILE_B",
	Short: "Compare two images and report which scores higher",
	Args:  cobra.ExactArgs(2),
	Run:   runCompare,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance FILE_A FILE_B",
	Short: "Enhance the lower-scoring image toward the other and re-score it",
	Args:  cobra.ExactArgs(2),
	Run:   runEnhance,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit results as JSON instead of a formatted report")
	enhanceCmd.Flags().Float64VarP(&levelFlag, "level", "l", 0.5, "Enhancement strength in [0, 1]")
	enhanceCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output path for the enhanced image (default: <target>_enhanced.png)")
	rootCmd.AddCommand(assessCmd, compareCmd, enhanceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadGrid reads and decodes an image file, exiting on failure.
func loadGrid(path string) *imaging.Grid {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatal().Str("path", path).Msg("File not found")
		}
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read file")
	}

	grid, err := codec.Decode(data)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to decode image")
	}
	return grid
}

func runAssess(cmd *cobra.Command, args []string) {
	logging.Init()

	path := args[0]
	grid := loadGrid(path)
	m := quality.Assess(grid)

	if jsonFlag {
		printJSON(m)
		return
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("📊 Image Quality Assessment")
	fmt.Println("============================================")
	fmt.Printf("File: %s\n", filepath.Base(path))
	fmt.Printf("Size: %dx%d\n", grid.Width, grid.Height)
	fmt.Println("--------------------------------------------")
	printMetrics(m)
	fmt.Println("============================================")
}

func runCompare(cmd *cobra.Command, args []string) {
	logging.Init()

	gridA := loadGrid(args[0])
	gridB := loadGrid(args[1])
	cmp := quality.Compare(gridA, gridB)

	if jsonFlag {
		printJSON(cmp)
		return
	}

	winner := filepath.Base(args[0])
	if cmp.Verdict == quality.VerdictBBetter {
		winner = filepath.Base(args[1])
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("⚖️  Image Comparison")
	fmt.Println("============================================")
	fmt.Printf("A: %s\n", filepath.Base(args[0]))
	printMetrics(cmp.MetricsA)
	fmt.Println("--------------------------------------------")
	fmt.Printf("B: %s\n", filepath.Base(args[1]))
	printMetrics(cmp.MetricsB)
	fmt.Println("--------------------------------------------")
	fmt.Printf("✅ Higher quality: %s\n", winner)
	fmt.Println("============================================")
}

func runEnhance(cmd *cobra.Command, args []string) {
	logging.Init()

	if levelFlag < 0 || levelFlag > 1 {
		log.Fatal().Float64("level", levelFlag).Msg("Enhancement level must be in [0, 1]")
	}

	gridA := loadGrid(args[0])
	gridB := loadGrid(args[1])

	result := pipeline.New().Process(gridA, gridB, levelFlag)

	targetPath := args[0]
	if result.Target == pipeline.TargetB {
		targetPath = args[1]
	}

	outPath := outFlag
	if outPath == "" {
		base := filepath.Base(targetPath)
		ext := filepath.Ext(base)
		outPath = base[:len(base)-len(ext)] + "_enhanced.png"
	}

	encoded, err := codec.EncodePNG(result.Enhanced)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode enhanced image")
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", outPath).Msg("Failed to write enhanced image")
	}

	if jsonFlag {
		printJSON(result)
		return
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("✨ Enhancement Complete")
	fmt.Println("============================================")
	fmt.Printf("Target: %s (lower scoring)\n", filepath.Base(targetPath))
	fmt.Printf("Level: %.2f\n", levelFlag)
	fmt.Printf("Output: %s\n", outPath)
	fmt.Println("--------------------------------------------")
	fmt.Println("Before:")
	printMetrics(sourceMetrics(result))
	fmt.Println("After:")
	printMetrics(result.EnhancedMetrics)
	fmt.Println("--------------------------------------------")
	fmt.Printf("Overall change: %+.2f\n", result.Improvements.OverallScore)
	fmt.Printf("Elapsed: %s\n", result.Elapsed)
	fmt.Println("============================================")
}

// sourceMetrics returns the pre-enhancement metrics of whichever image was
// selected as the enhancement target.
func sourceMetrics(r pipeline.Result) quality.Metrics {
	if r.Target == pipeline.TargetB {
		return r.MetricsB
	}
	return r.MetricsA
}

func printMetrics(m quality.Metrics) {
	fmt.Printf("   Sharpness: %6.2f\n", m.Sharpness)
	fmt.Printf("   Contrast:  %6.2f\n", m.Contrast)
	fmt.Printf("   Noise:     %6.2f\n", m.Noise)
	fmt.Printf("   Natural:   %6.2f\n", m.Natural)
	fmt.Printf("   Overall:   %6.2f\n", m.OverallScore)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))
}
