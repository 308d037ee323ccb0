package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/notify"
	"github.com/forPelevin/hlshorts/internal/pipeline"
	"github.com/forPelevin/hlshorts/internal/usecase"
)

func newRunCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.mp4|youtube-url>",
		Short: "Produce shorts from one video and write them to the out dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, *configPath, args[0])
		},
	}

	cmd.Flags().Int("clips", 0, "Number of shorts (1-10, default from config)")
	cmd.Flags().String("out", "", "Output directory (overrides paths.out_dir)")
	cmd.Flags().String("requester", "cli", "Requester id used for gating and output layout")
	return cmd
}

func run(cmd *cobra.Command, configPath, source string) error {
	cfg, logger, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if cfg.Paths.OutDir, err = config.ExpandPath(out); err != nil {
			return err
		}
	}
	requester, _ := cmd.Flags().GetString("requester")

	svc, err := pipeline.Init(cfg, logger, notify.NewLog(logger))
	if err != nil {
		return err
	}
	defer svc.Close()

	clips := svc.DefaultClips()
	if cmd.Flags().Changed("clips") {
		clips, _ = cmd.Flags().GetInt("clips")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 3*time.Hour)
	defer cancel()

	rep, err := svc.Process(ctx, pipeline.Request{
		RequesterID: requester,
		Source:      source,
		Clips:       clips,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderReport(rep))
	fmt.Fprintf(out, "Clips written under %s\n", cfg.Paths.OutDir)
	if rep.State == usecase.JobAborted {
		return rep.Err
	}
	return nil
}
