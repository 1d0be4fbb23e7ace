package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/launcher"
	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/placeholder"
	"github.com/program-tray/program-tray/internal/secret"
	"github.com/program-tray/program-tray/internal/tray/menu"
	"github.com/program-tray/program-tray/internal/watcher"
)

// shutdownSlack is added to the program's stop timeout before the final kill on exit.
const shutdownSlack = 2 * time.Second

func runRoot(cmd *cobra.Command, args []string) error {
	log.SetPrefix("[program-tray] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	fmt.Printf("Loading config file: %s\n", args[0])
	program, err := config.LoadProgram(args[0])
	if err != nil {
		return err
	}
	icons, err := config.LoadIcons(program)
	if err != nil {
		return err
	}
	fmt.Printf("Found program %s\n", styleCommand.Render(program.ID))

	if checkOnly {
		printSummary(program)
		fmt.Println(styleSuccess.Render("Check completed."))
		return nil
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	owner, err := config.ClaimInstance(models.NewInstanceInfo(program.ID, program.Path, os.Getpid()))
	switch {
	case errors.Is(err, config.ErrInstanceRunning) && owner != nil:
		return fmt.Errorf("%s is already managed by another tray (PID %d)", program.ID, owner.PID)
	case errors.Is(err, config.ErrInstanceRunning):
		return fmt.Errorf("%s is already managed by another tray", program.ID)
	case err != nil:
		return fmt.Errorf("failed to write instance info: %w", err)
	}
	defer func() {
		if err := config.RemoveInstance(program.ID); err != nil {
			log.Printf("Failed to remove instance info: %v", err)
		}
	}()

	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Warning: failed to load settings, using defaults: %v", err)
		settings = models.NewSettings()
	}

	if foreground {
		log.Println("Running in foreground mode (no system tray)")
		return runForeground(program, settings)
	}
	runWithTray(program, icons, settings)
	return nil
}

func newDialogPrompter(program *models.Program, settings *models.Settings) *secret.DialogPrompter {
	d := secret.NewDialogPrompter(program.Title())
	d.Tool = settings.Dialog.Tool
	return d
}

// runForeground starts the program right away and blocks until it exits or
// the process receives SIGINT/SIGTERM.
func runForeground(program *models.Program, settings *models.Settings) error {
	changed := make(chan struct{}, 1)
	ctrl := launcher.New(program,
		launcher.WithOutput(os.Stdout),
		launcher.WithSessionLogs(),
		launcher.WithLogRetention(settings.Logs.Keep),
		launcher.WithOnChange(func() { poke(changed) }),
	)
	secrets := &secret.Chain{
		ProgramID: program.ID,
		Remember:  program.Secret.Remember,
		Store:     secret.NewStore(),
		Prompters: []secret.Prompter{&secret.TerminalPrompter{}, newDialogPrompter(program, settings)},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx, secrets); err != nil {
		return err
	}
	log.Printf("Started %s (PID %d)", program.ID, ctrl.Status().PID)

	for {
		select {
		case <-ctx.Done():
			log.Println("Received signal, shutting down...")
			ctrl.StopAndWait(program.StopGrace() + shutdownSlack)
			return nil
		case <-changed:
			if ctrl.IsRunning() {
				continue
			}
			ctrl.StopAndWait(shutdownSlack) // already exited; waits for the session log
			if st := ctrl.Status(); st.State == models.StateCrashed {
				return fmt.Errorf("%s exited with status %d", program.ID, st.ExitCode)
			}
			fmt.Println(styleSuccess.Render(program.ID + " exited."))
			return nil
		}
	}
}

// runWithTray runs the tray on the main goroutine until Quit.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(program *models.Program, icons *config.IconSet, settings *models.Settings) {
	changed := make(chan struct{}, 1)
	ctrl := launcher.New(program,
		launcher.WithSessionLogs(),
		launcher.WithLiveOutput(),
		launcher.WithLogRetention(settings.Logs.Keep),
		launcher.WithOnChange(func() { poke(changed) }),
	)

	configChanged := make(chan struct{}, 1)
	w := watchProgramFiles(program, configChanged)

	onReady := func() {
		log.Printf("Tray ready for %s (PID %d)", program.ID, os.Getpid())

		// Quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			menu.Quit()
		}()
	}

	onExit := func() {
		if w != nil {
			w.Stop()
		}
		if ctrl.IsRunning() {
			fmt.Println("Shutting down running program")
		}
		ctrl.StopAndWait(program.StopGrace() + shutdownSlack)
		fmt.Println("Tray stopped")
	}

	// This blocks the main goroutine until the tray exits.
	menu.Run(menu.Options{
		Controller:           ctrl,
		Icons:                icons,
		Store:                secret.NewStore(),
		Prompter:             newDialogPrompter(program, settings),
		DisableNotifications: !settings.Notifications.Enabled,
		Changed:              changed,
		ConfigChanged:        configChanged,
		OnReady:              onReady,
		OnExit:               onExit,
	})
}

// watchProgramFiles reports edits of the config file and the files it
// references. A watcher failure only disables the hint.
func watchProgramFiles(program *models.Program, out chan<- struct{}) *watcher.Watcher {
	w, err := watcher.New()
	if err != nil {
		log.Printf("Warning: config watcher unavailable: %v", err)
		return nil
	}

	dir := filepath.Dir(program.Path)
	files := map[string]watcher.EventType{program.Path: watcher.EventProgramChanged}
	if program.EnvFile != "" {
		files[resolvePath(dir, program.EnvFile)] = watcher.EventEnvFileChanged
	}
	for _, icon := range []string{program.UI.Icons.On, program.UI.Icons.Off} {
		if icon != "" {
			files[resolvePath(dir, icon)] = watcher.EventIconChanged
		}
	}
	for path, t := range files {
		if err := w.WatchFile(path, t); err != nil {
			log.Printf("Warning: failed to watch %s: %v", path, err)
		}
	}

	w.Start()
	go func() {
		for range w.Events() {
			poke(out)
		}
	}()
	return w
}

func printSummary(program *models.Program) {
	fmt.Println()
	printField("Title", program.Title())
	printField("Command", program.Command)
	if program.Input != "" {
		printField("Input", program.Input)
	}
	if program.Superuser {
		printField("Superuser", "yes (via "+launcher.SudoCommand+")")
	}
	if program.WorkDir != "" {
		printField("Workdir", program.WorkDir)
	}
	if len(program.Env) > 0 {
		keys := make([]string, 0, len(program.Env))
		for k := range program.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		printField("Env", strings.Join(keys, ", "))
	}
	printField("Stop", fmt.Sprintf("%s, kill after %s", program.Signal(), program.StopGrace()))
	if placeholder.Contains(program.Input, program.SecretName()) {
		remember := "asked on every start"
		if program.Secret.Remember {
			remember = "remembered in the keyring"
		}
		printField("Secret", fmt.Sprintf("$%s (%s), %s", program.SecretName(), program.SecretLabel(), remember))
	}
	fmt.Println()
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// poke does a non-blocking send; one pending value is enough to trigger a refresh.
func poke(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
