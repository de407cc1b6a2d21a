package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/stepwright/internal/governance"
	"github.com/rahul/stepwright/internal/notify"
	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/record"
	"github.com/rahul/stepwright/internal/runner"
	"github.com/rahul/stepwright/internal/window"
)

var (
	runBaseURL  string
	runHeadless bool
	runSave     bool
	runNotify   bool
)

var runCmd = &cobra.Command{
	Use:   "run [case.yaml | test-case-id]",
	Short: "Execute a test case live in a new browser window",
	Long: "Execute a test case live in a new browser window.\n\n" +
		"Stored test cases record every run in their history. Case files are\n" +
		"run ad hoc unless --save imports them first.",
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	src, err := loadSource(ctx, a, args[0])
	if err != nil {
		return err
	}
	if src.ID == "" && runSave {
		s, err := a.openStore()
		if err != nil {
			return err
		}
		d, err := src.File.Draft(a.cfg.App.User)
		if err != nil {
			return err
		}
		tc, err := s.Create(ctx, d)
		if err != nil {
			return err
		}
		src.ID = tc.ID
		fmt.Printf("  saved as %s\n", tc.ID)
	}

	baseURL := firstNonEmpty(runBaseURL, src.BaseURL, a.cfg.App.BaseURL)
	browser := a.cfg.Browser
	chrome := window.NewChrome(window.Options{
		Headless:      browser.Headless || runHeadless,
		Width:         browser.Width,
		Height:        browser.Height,
		ScreenWidth:   browser.ScreenWidth,
		ScreenHeight:  browser.ScreenHeight,
		ActionTimeout: browser.ActionTimeout(),
		HostOrigin:    baseURL,
	})
	defer chrome.Shutdown()

	policy, err := governance.NewPolicy(a.cfg.Policy.DeniedURLs, a.cfg.Policy.DeniedActions)
	if err != nil {
		return err
	}

	r := runner.New(chrome, nil)
	r.Policy = policy
	r.Logger = a.logger
	r.BaseURL = baseURL
	r.OnStep = printTransition
	if src.ID != "" {
		s, err := a.openStore()
		if err != nil {
			return err
		}
		r.Store = s
	}

	stopStatus := startLiveStatus(ctx)
	exec, err := r.RunLoaded(ctx, firstNonEmpty(src.ID, src.Name), src.Loaded)
	stopStatus()

	switch {
	case errors.Is(err, runner.ErrWindowUnavailable):
		return fmt.Errorf("window unavailable: %w", err)
	case errors.Is(err, runner.ErrCancelled):
		fmt.Println("  run cancelled")
		return err
	case err != nil:
		return err
	}

	printExecution(exec)
	if runNotify {
		n := buildNotifier(a)
		if err := n.Notify(context.WithoutCancel(ctx), src.Name, exec); err != nil {
			log.Printf("notification failed: %v", err)
		}
	}
	if exec.Status != record.StatusPassed {
		return fmt.Errorf("test %s", exec.Status)
	}
	return nil
}

func printTransition(i int, res record.StepResult) {
	if quiet || res.Status == record.StatusRunning {
		return
	}
	icon := "✓"
	if res.Status == record.StatusFailed {
		icon = "✗"
	}
	observability.ClearLiveStatus(os.Stdout)
	line := fmt.Sprintf("  %s %2d. %s", icon, i+1, res.Step)
	if res.Message != "" {
		line += "  (" + res.Message + ")"
	}
	fmt.Println(line)
}

func printExecution(exec record.Execution) {
	fmt.Printf("\n  %s: %d/%d passed, %d failed in %s\n",
		exec.Status, exec.PassedSteps, exec.TotalSteps, exec.FailedSteps,
		time.Duration(exec.DurationMs)*time.Millisecond)
	if exec.ErrorMessage != "" {
		fmt.Printf("  %s\n", exec.ErrorMessage)
	}
}

// startLiveStatus redraws the status line every second until the returned
// function is called.
func startLiveStatus(ctx context.Context) func() {
	if quiet || !observability.IsTerminal() {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-ctx.Done():
				observability.ClearLiveStatus(os.Stdout)
				return
			case <-ticker.C:
				observability.PrintLiveStatus(os.Stdout, frame)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func buildNotifier(a *app) *notify.Notifier {
	var messengers []notify.Messenger
	if tgCfg, ok := a.cfg.GetTelegramConfig(); ok {
		chatID, err := tgCfg.TelegramChatID()
		if err == nil {
			var tg *notify.Telegram
			tg, err = notify.NewTelegram(tgCfg.Token, chatID)
			if err == nil {
				messengers = append(messengers, tg)
			}
		}
		if err != nil {
			log.Printf("Warning: telegram notifications disabled: %v", err)
		}
	}
	if dcCfg, ok := a.cfg.GetDiscordConfig(); ok {
		dc, err := notify.NewDiscord(dcCfg.Token, dcCfg.ChatID)
		if err != nil {
			log.Printf("Warning: discord notifications disabled: %v", err)
		} else {
			messengers = append(messengers, dc)
		}
	}
	return notify.New(a.logger, messengers...)
}

func init() {
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "base url for relative navigation")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "run the browser without a visible window")
	runCmd.Flags().BoolVar(&runSave, "save", false, "import a case file into the store before running")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "send the result to the configured gateways")
	rootCmd.AddCommand(runCmd)
}
