package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podscribe/internal/config"
	"podscribe/internal/jobstore"
	"podscribe/internal/speech"
	"podscribe/internal/transcript"
	"podscribe/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		audioPath string
		audioURI  string
		language  string
		episodeID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Start a remote transcription job for uploaded audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(audioPath)
			if err != nil {
				return err
			}
			manager, err := ctx.manager(cmd.Context(), true)
			if err != nil {
				return err
			}
			job, err := manager.Submit(cmd.Context(), workflow.SubmitRequest{
				AudioPath:    path,
				AudioURI:     audioURI,
				LanguageCode: language,
				EpisodeID:    episodeID,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, job)
			}
			fmt.Fprintln(cmd.OutOrStdout(), job.Handle)
			return nil
		},
	}
	cmd.Flags().StringVar(&audioPath, "audio", "", "Local copy of the uploaded audio")
	cmd.Flags().StringVar(&audioURI, "uri", "", "Storage URI the service reads the audio from")
	cmd.Flags().StringVar(&language, "language", "", "BCP-47 language code (defaults to speech.default_language)")
	cmd.Flags().StringVar(&episodeID, "episode", "", "Episode identifier stored with the job")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the recorded job as JSON")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("uri")
	return cmd
}

func newPollCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "poll HANDLE",
		Short: "Check one job and print its transcript when finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.manager(cmd.Context(), true)
			if err != nil {
				return err
			}
			tr, err := manager.Poll(cmd.Context(), speech.JobHandle(strings.TrimSpace(args[0])))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if tr == nil {
				fmt.Fprintln(out, "Job still running")
				return nil
			}
			if asJSON {
				return writeJSON(cmd, tr)
			}
			fmt.Fprintln(out, tr.Text())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the transcript as JSON")
	return cmd
}

func newPollPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poll-pending",
		Short: "Run one poll pass over every submitted job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.manager(cmd.Context(), true)
			if err != nil {
				return err
			}
			summary, err := manager.PollPending(cmd.Context())
			if errors.Is(err, workflow.ErrPollInProgress) {
				fmt.Fprintln(cmd.OutOrStdout(), "Another poll pass is running")
				return nil
			}
			if err != nil {
				return err
			}
			printSummary(cmd, summary)
			return nil
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll submitted jobs repeatedly until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.manager(cmd.Context(), true)
			if err != nil {
				return err
			}
			return manager.Watch(cmd.Context(), interval, func(summary workflow.PollSummary) {
				printSummary(cmd, summary)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between poll passes (e.g. 30s)")
	_ = cmd.MarkFlagRequired("interval")
	return cmd
}

func printSummary(cmd *cobra.Command, summary workflow.PollSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "Polled %d: %d pending, %d completed, %d failed\n",
		summary.Polled, summary.Pending, summary.Completed, summary.Failed)
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded transcription jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]jobstore.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, ok := jobstore.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			jobs, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				if jobs == nil {
					jobs = []*jobstore.Job{}
				}
				return writeJSON(cmd, jobs)
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					strconv.FormatInt(job.ID, 10),
					job.Handle.String(),
					statusColor(string(job.Status), colorize),
					job.EpisodeID,
					job.LanguageCode,
					strconv.Itoa(job.PollCount),
					job.UpdatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Handle", "Status", "Episode", "Language", "Polls", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				colorize,
			))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show HANDLE",
		Short: "Show a recorded job and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			handle := speech.JobHandle(strings.TrimSpace(args[0]))
			job, err := store.GetByHandle(cmd.Context(), handle)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %s not found", handle)
			}
			tr, err := job.Transcript()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, struct {
					*jobstore.Job
					Transcript *transcript.Transcript `json:"transcript,omitempty"`
				}{job, tr})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := [][]string{
				{"Handle", job.Handle.String()},
				{"Status", statusColor(string(job.Status), colorize)},
				{"Episode", job.EpisodeID},
				{"Source", job.SourcePath},
				{"Audio URI", job.AudioURI},
				{"Language", job.LanguageCode},
				{"Encoding", fmt.Sprintf("%s @ %d Hz", job.Encoding.Encoding(), job.SampleRateHz)},
				{"Polls", strconv.Itoa(job.PollCount)},
				{"Created", job.CreatedAt.Local().Format(time.DateTime)},
				{"Updated", job.UpdatedAt.Local().Format(time.DateTime)},
			}
			if job.ErrorMessage != "" {
				rows = append(rows, []string{"Error", fmt.Sprintf("%s: %s", job.ErrorKind, job.ErrorMessage)})
			}
			fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}, colorize))
			if tr != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out, tr.Text())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry HANDLE...",
		Short: "Return failed jobs to submitted so the next poll checks them again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, arg := range args {
				handle := speech.JobHandle(strings.TrimSpace(arg))
				err := store.Requeue(cmd.Context(), handle)
				switch {
				case errors.Is(err, jobstore.ErrNotRetryable):
					fmt.Fprintf(out, "Job %s is not in a retryable state (only failed jobs can be retried)\n", handle)
				case errors.Is(err, jobstore.ErrNotFound):
					return fmt.Errorf("job %s not found", handle)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "Job %s reset for retry\n", handle)
				}
			}
			return nil
		},
	}
}
