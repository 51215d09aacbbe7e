package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yourusername/audio-extract-go/internal/client"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/pkg/logger"
)

var (
	serverURL string
	format    string
	bitrate   string
	outputDir string
	rootCmd   = &cobra.Command{
		Use:   "audio-extract",
		Short: "Audio-Extract CLI - Convert video URLs and local media to audio",
		Long:  `A command-line interface for extracting audio from video URLs via the extraction server, and for converting local media files to audio offline.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3001", "Server URL")

	downloadCmd.Flags().StringVarP(&format, "format", "f", "mp3", "Output format (mp3, m4a, wav)")
	downloadCmd.Flags().StringVarP(&bitrate, "bitrate", "b", "128k", "Audio bitrate")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")

	convertCmd.Flags().StringVarP(&format, "format", "f", "mp3", "Output format (mp3, m4a, wav)")
	convertCmd.Flags().StringVarP(&bitrate, "bitrate", "b", "128k", "Audio bitrate")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(convertCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Fetch video metadata",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		api := client.NewAPIClient(serverURL, logger.NewDefault())
		info, err := api.Info(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Video Info:")
		fmt.Printf("  ID:       %s\n", info.ID)
		fmt.Printf("  Title:    %s\n", info.Title)
		fmt.Printf("  Uploader: %s\n", info.Uploader)
		fmt.Printf("  Duration: %.0fs\n", info.Duration)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [taskId]",
	Short: "Show progress for a download task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		api := client.NewAPIClient(serverURL, logger.NewDefault())
		task, err := api.Progress(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Status: %s, Progress: %d%%\n", task.Status, task.Progress)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/health")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var health map[string]interface{}
		json.Unmarshal(body, &health)
		fmt.Printf("Status:  %v\n", health["status"])
		if downloader, ok := health["downloader"]; ok {
			fmt.Printf("Downloader: %v\n", downloader)
		}
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Extract audio from a video URL via the server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings := domain.ConversionSettings{
			Format:  domain.AudioFormat(format),
			Bitrate: bitrate,
		}

		api := client.NewAPIClient(serverURL, logger.NewDefault())
		result, err := api.Download(cmd.Context(), args[0], settings, func(percent int) {
			fmt.Printf("\rDownloading... %d%%", percent)
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		outPath := filepath.Join(outputDir, result.FileName)
		if err := os.WriteFile(outPath, result.Data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s (%d bytes)\n", outPath, len(result.Data))
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert local media files to audio and zip the results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.NewDefault()
		ctx := cmd.Context()

		config := domain.DefaultConfig()
		settings := domain.ConversionSettings{
			Format:  domain.AudioFormat(format),
			Bitrate: bitrate,
		}
		if !domain.ValidateFormat(settings.Format) {
			fmt.Fprintf(os.Stderr, "Error: unsupported format %q\n", format)
			os.Exit(1)
		}

		var items []*client.FileItem
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
				os.Exit(1)
			}
			items = append(items, client.NewFileItem(filepath.Base(path), data))
		}

		fetcher := client.NewAssetFetcher(config.Engine.BaseURL, config.Engine.FallbackBaseURL, log)
		runner := client.NewExecRunner(config.Engine.FFmpegBinary)
		engine := client.NewEngine(fetcher, runner, log)
		defer engine.Close()

		fmt.Println("Loading conversion engine...")
		if err := engine.LoadWithRetry(ctx, config.Engine.LoadRetries, config.Engine.RetryDelay); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		transcoder := client.NewTranscoder(engine, log)
		estimator := client.NewEstimator(config.Engine.TickInterval, 5, config.Engine.ProgressCeiling)
		sequencer := client.NewSequencer(transcoder, estimator, log)

		result, err := sequencer.Run(ctx, items, settings, func(percent int) {
			fmt.Printf("\rConverting... %d%%", percent)
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		archivePath := filepath.Join(outputDir, result.ArchiveName)
		if err := os.WriteFile(archivePath, result.Archive, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Converted %d file(s), %d failed\n", result.Converted, result.Failed)
		for _, convErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", convErr)
		}
		fmt.Printf("Archive: %s\n", archivePath)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
