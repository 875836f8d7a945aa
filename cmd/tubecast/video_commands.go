package main

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubecast/internal/services/youtube"
	"tubecast/internal/textutil"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your most recent uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			client, err := ctx.youtubeClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			items, err := client.ListUploads(cmd.Context(), count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No uploads found")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for i, item := range items {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					item.Snippet.Title,
					item.Snippet.ResourceID.VideoID,
					item.Status.PrivacyStatus,
					formatPublished(item.Snippet.PublishedAt),
				})
			}
			fmt.Fprintln(out, renderTable([]column{numCol("#"), col("Title"), fixedCol("Video ID"), col("Privacy"), fixedCol("Published")}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of uploads to show")
	return cmd
}

func newPlaylistsCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List your playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			client, err := ctx.youtubeClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			playlists, err := client.ListPlaylists(cmd.Context(), count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(playlists) == 0 {
				fmt.Fprintln(out, "No playlists found")
				return nil
			}
			rows := make([][]string, 0, len(playlists))
			for _, p := range playlists {
				rows = append(rows, []string{
					p.Snippet.Title,
					p.ID,
					strconv.Itoa(p.ContentDetails.ItemCount),
					p.Status.PrivacyStatus,
				})
			}
			fmt.Fprintln(out, renderTable([]column{col("Title"), fixedCol("Playlist ID"), numCol("Videos"), col("Privacy")}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 25, "Number of playlists to show")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <video-id>",
		Short: "Show details and statistics for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.youtubeClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			video, err := client.GetVideo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printVideo(cmd.OutOrStdout(), video)
			return nil
		},
	}
}

type updateFlags struct {
	title       string
	description string
	tags        string
	privacy     string
	category    string
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:   "update <video-id>",
		Short: "Change the title, description, tags, privacy or category of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := youtube.VideoUpdate{
				Title:       strings.TrimSpace(flags.title),
				Description: flags.description,
				Privacy:     strings.ToLower(strings.TrimSpace(flags.privacy)),
				CategoryID:  strings.TrimSpace(flags.category),
			}
			if update.Privacy != "" && !validPrivacy(update.Privacy) {
				return fmt.Errorf("invalid privacy %q (want private, unlisted or public)", flags.privacy)
			}
			if cmd.Flags().Changed("tags") {
				update.Tags = textutil.SplitList(flags.tags)
			}
			if update.Empty() {
				return errors.New("nothing to update; pass at least one of --title, --description, --tags, --privacy, --category")
			}
			client, err := ctx.youtubeClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			video, err := client.UpdateVideo(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderNotice(statusOK, "Updated "+video.ID, shouldColorize(out)))
			printVideo(out, video)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "Comma-separated tags; an empty value clears them")
	cmd.Flags().StringVarP(&flags.privacy, "privacy", "p", "", "New privacy: private, unlisted or public")
	cmd.Flags().StringVarP(&flags.category, "category", "c", "", "New category ID")
	return cmd
}

func printVideo(out io.Writer, video *youtube.Video) {
	fmt.Fprintf(out, "Title:       %s\n", video.Snippet.Title)
	fmt.Fprintf(out, "Video ID:    %s\n", video.ID)
	fmt.Fprintf(out, "URL:         %s\n", youtube.WatchURL(video.ID))
	fmt.Fprintf(out, "Studio:      %s\n", youtube.StudioURL(video.ID))
	fmt.Fprintf(out, "Privacy:     %s\n", video.Status.PrivacyStatus)
	if video.Status.UploadStatus != "" {
		fmt.Fprintf(out, "Status:      %s\n", video.Status.UploadStatus)
	}
	if video.Snippet.CategoryID != "" {
		fmt.Fprintf(out, "Category:    %s\n", video.Snippet.CategoryID)
	}
	if !video.Snippet.PublishedAt.IsZero() {
		fmt.Fprintf(out, "Published:   %s\n", formatPublished(video.Snippet.PublishedAt))
	}
	if video.ContentDetails != nil && video.ContentDetails.Duration != "" {
		fmt.Fprintf(out, "Duration:    %s\n", formatISODuration(video.ContentDetails.Duration))
	}
	if video.Statistics != nil {
		fmt.Fprintf(out, "Views:       %s\n", humanize.Comma(int64(video.Statistics.Views())))
		fmt.Fprintf(out, "Likes:       %s\n", humanize.Comma(int64(video.Statistics.Likes())))
	}
	if len(video.Snippet.Tags) > 0 {
		fmt.Fprintf(out, "Tags:        %s\n", strings.Join(video.Snippet.Tags, ", "))
	}
	if desc := strings.TrimSpace(video.Snippet.Description); desc != "" {
		fmt.Fprintf(out, "Description:\n  %s\n", strings.ReplaceAll(desc, "\n", "\n  "))
	}
}

func formatPublished(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
}

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatISODuration renders the API's ISO 8601 durations ("PT4M13S") as
// "4m13s". Unparsable values are returned unchanged.
func formatISODuration(value string) string {
	m := isoDurationPattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	var total time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return value
		}
		total += time.Duration(n) * unit
	}
	return total.String()
}
