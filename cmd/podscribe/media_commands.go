package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podscribe/internal/config"
	"podscribe/internal/media/policy"
	"podscribe/internal/media/probe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "Describe the streams of a media file and the transcode decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			prober, err := ctx.prober()
			if err != nil {
				return err
			}
			info, err := prober.Probe(cmd.Context(), path)
			if err != nil {
				return err
			}
			decision := policy.Decide(info)
			if asJSON {
				return writeJSON(cmd, struct {
					probe.MediaFileInfo
					Decision policy.Decision `json:"decision"`
				}{info, decision})
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(info.AudioStreams))
			for _, s := range info.AudioStreams {
				rows = append(rows, []string{
					strconv.Itoa(s.Index),
					s.CodecName,
					s.Codec.String(),
					strconv.Itoa(s.Channels),
					strconv.Itoa(s.SampleRateHz),
					strconv.FormatFloat(s.DurationSeconds, 'f', 2, 64),
				})
			}
			fmt.Fprintf(out, "Container: %s\n", strings.Join(info.FormatNames, ","))
			fmt.Fprintf(out, "Video streams: %s\n", yesNo(info.HasVideoStreams))
			fmt.Fprint(out, renderTable(
				[]string{"Stream", "Codec", "Variant", "Channels", "Rate (Hz)", "Duration (s)"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				shouldColorize(out),
			))
			fmt.Fprintf(out, "Decision: %s\n", decision)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcode INPUT OUTPUT",
		Short: "Write a mono FLAC copy of INPUT to OUTPUT when the source does not qualify",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			output, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			transcoder, err := ctx.transcoder()
			if err != nil {
				return err
			}
			result, err := transcoder.TranscodeIfNeeded(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.Transcoded {
				fmt.Fprintf(out, "%s already qualifies; no output written\n", input)
				return nil
			}
			fmt.Fprintf(out, "Wrote %s (%s)\n", result.OutputPath, result.Decision)
			return nil
		},
	}
}

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prepare FILE",
		Short: "Normalize an episode into the work directory and report what to upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			manager, err := ctx.manager(cmd.Context(), false)
			if err != nil {
				return err
			}
			prepared, err := manager.Prepare(cmd.Context(), input)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, prepared)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio: %s\n", prepared.AudioPath)
			fmt.Fprintf(out, "Transcoded: %s\n", yesNo(prepared.Transcoded))
			fmt.Fprintf(out, "Encoding: %s @ %d Hz\n", prepared.Stream.Codec.Encoding(), prepared.Stream.SampleRateHz)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
