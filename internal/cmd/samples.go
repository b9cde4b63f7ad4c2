package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/irdumbs/jamcord/internal/config"
	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/samples"
)

var samplesReplace bool

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Manage the shared sample library",
	Long: `Commands for the sample library used by interpreter kinds that play
audio files. Samples are fetched with the configured audio fetcher
(yt-dlp by default) and stored alongside their source metadata.`,
}

var samplesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloaded samples",
	RunE:  runSamplesList,
}

var samplesAddCmd = &cobra.Command{
	Use:   "add <name> <url-or-search>",
	Short: "Download a sample by URL or search terms",
	Long: `Download a sample into the library. The second argument is either a
direct URL or free-text search terms resolved through the fetcher.

If a sample with the same name already exists you are asked whether to
overwrite it; the prompt defaults to no after a timeout.`,
	Args: cobra.ExactArgs(2),
	RunE: runSamplesAdd,
}

var samplesInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show where a sample came from",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesInfo,
}

var samplesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a sample and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesRemove,
}

func init() {
	rootCmd.AddCommand(samplesCmd)
	samplesCmd.AddCommand(samplesListCmd)
	samplesCmd.AddCommand(samplesAddCmd)
	samplesCmd.AddCommand(samplesInfoCmd)
	samplesCmd.AddCommand(samplesRemoveCmd)

	samplesAddCmd.Flags().BoolVarP(&samplesReplace, "replace", "r", false, "Overwrite an existing sample without asking")
}

func openLibrary() (*samples.Library, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	fetcher, err := samples.NewCommandFetcher(cfg.Samples.FetchCommand)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid fetch command: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	lib, err := samples.Open(cfg.ResolveSamplesDir(), fetcher, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sample library: %w", err)
	}
	return lib, cfg, nil
}

func runSamplesList(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	names, err := lib.List()
	if err != nil {
		return fmt.Errorf("failed to list samples: %w", err)
	}
	if len(names) == 0 {
		fmt.Println("No samples downloaded yet.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runSamplesAdd(cmd *cobra.Command, args []string) error {
	lib, cfg, err := openLibrary()
	if err != nil {
		return err
	}
	name, source := args[0], args[1]

	replace := samplesReplace
	if !replace && lib.Exists(name) {
		if !confirmOverwrite(name, cfg.Samples.OverwriteTimeout()) {
			fmt.Println("Keeping the existing sample.")
			return nil
		}
		replace = true
	}

	fmt.Printf("Fetching %s...\n", name)
	task, err := lib.Download(cmd.Context(), name, source, localRequester(), replace)
	if err != nil {
		return fmt.Errorf("failed to start download: %w", err)
	}
	if err := task.Wait(cmd.Context()); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	fmt.Printf("Saved %s (from %s)\n", name, task.URL())
	return nil
}

func runSamplesInfo(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	info, err := lib.Info(args[0])
	if err != nil {
		if errors.Is(err, errors.ErrSampleNotFound) {
			return fmt.Errorf("no sample named %q", args[0])
		}
		return err
	}
	fmt.Printf("Source:    %s\n", info.Source)
	fmt.Printf("Added by:  %s\n", info.Requester)
	if !info.Added.IsZero() {
		fmt.Printf("Added at:  %s\n", info.Added.Format(time.RFC1123))
	}
	return nil
}

func runSamplesRemove(cmd *cobra.Command, args []string) error {
	lib, _, err := openLibrary()
	if err != nil {
		return err
	}
	if err := lib.Remove(args[0]); err != nil {
		if errors.Is(err, errors.ErrSampleNotFound) {
			return fmt.Errorf("no sample named %q", args[0])
		}
		return fmt.Errorf("failed to remove sample: %w", err)
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}

// confirmOverwrite asks whether to replace an existing sample. Anything but
// an explicit yes keeps the old one, and so does silence: the prompt answers
// itself with no after the timeout.
func confirmOverwrite(name string, timeout time.Duration) bool {
	fmt.Printf("Sample %q already exists. Overwrite? [y/N] ", name)

	answer := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		answer <- line
	}()

	select {
	case line := <-answer:
		line = strings.ToLower(strings.TrimSpace(line))
		return line == "y" || line == "yes"
	case <-time.After(timeout):
		fmt.Println("\nNo answer, keeping the existing sample.")
		return false
	}
}

// localRequester names the person running the CLI for sample metadata.
func localRequester() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown person"
}
