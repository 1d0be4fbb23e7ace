// Package menu binds tray.Sync to the desktop system tray.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/getlantern/systray"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/launcher"
	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/secret"
	"github.com/program-tray/program-tray/internal/tray"
)

const refreshInterval = 2 * time.Second

// Options wires the tray to the rest of the application.
type Options struct {
	Controller tray.Controller
	Icons      *config.IconSet
	Store      *secret.Store
	Prompter   secret.Prompter

	// DisableNotifications logs notifications instead of showing them.
	DisableNotifications bool

	// Changed receives a value whenever the controller state changes.
	Changed <-chan struct{}
	// ConfigChanged receives a value when the program file was edited on disk.
	ConfigChanged <-chan struct{}

	OnReady func()
	OnExit  func()
}

type secretResult struct {
	value string
	err   error
}

type app struct {
	opts    Options
	program *models.Program
	sync    *tray.Sync
	secrets chan secretResult
	ctx     context.Context
	cancel  context.CancelFunc

	toggleItem  *systray.MenuItem
	statusItem  *systray.MenuItem
	outputItem  *systray.MenuItem
	logsItem    *systray.MenuItem
	forgetItem  *systray.MenuItem
	changedItem *systray.MenuItem
	quitItem    *systray.MenuItem
}

var _ tray.View = (*app)(nil)

// Run starts the system tray. This blocks the calling goroutine (must be main)
// until Quit is called or the Quit menu item is clicked.
func Run(opts Options) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &app{
		opts:    opts,
		program: opts.Controller.Program(),
		secrets: make(chan secretResult, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	a.sync = tray.NewSync(opts.Controller, a, opts.Store)
	systray.Run(a.onReady, a.onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func (a *app) onReady() {
	systray.SetIcon(a.opts.Icons.Off)
	systray.SetTooltip(a.program.Title())
	if runtime.GOOS == "darwin" {
		systray.SetTitle(a.program.Title())
	}

	header := systray.AddMenuItem(a.program.Title(), "")
	header.Disable()

	a.statusItem = systray.AddMenuItem("Stopped", "")
	a.statusItem.Disable()

	systray.AddSeparator()

	a.toggleItem = systray.AddMenuItem("Start", "Start or stop "+a.program.ID)
	a.outputItem = systray.AddMenuItem("Show Output", "Follow the output of "+a.program.ID+" in a terminal")
	a.logsItem = systray.AddMenuItem("Open Logs", "Open the session log directory")
	a.forgetItem = systray.AddMenuItem("Forget Saved Secret", "Remove the remembered "+a.program.SecretLabel())
	if !a.program.Secret.Remember {
		a.forgetItem.Hide()
	}

	a.changedItem = systray.AddMenuItem("Config changed, restart to apply", "")
	a.changedItem.Disable()
	a.changedItem.Hide()

	systray.AddSeparator()
	a.quitItem = systray.AddMenuItem("Quit", "Stop "+a.program.ID+" and quit")

	if a.opts.OnReady != nil {
		a.opts.OnReady()
	}

	a.sync.Refresh()
	go a.handleEvents()
}

func (a *app) onQuit() {
	a.cancel()
	if a.opts.OnExit != nil {
		a.opts.OnExit()
	}
}

// handleEvents is the only goroutine that talks to tray.Sync.
func (a *app) handleEvents() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.toggleItem.ClickedCh:
			a.sync.OnToggleRequested()

		case <-a.outputItem.ClickedCh:
			a.showOutput()

		case <-a.logsItem.ClickedCh:
			a.openLogs()

		case <-a.forgetItem.ClickedCh:
			a.sync.ForgetSecret()

		case <-a.quitItem.ClickedCh:
			systray.Quit()
			return

		case r := <-a.secrets:
			switch {
			case r.err == nil:
				a.sync.OnSecretSubmitted(r.value)
			case errors.Is(r.err, secret.ErrCancelled):
				a.sync.OnSecretCancelled()
			default:
				log.Printf("[tray] Secret prompt: %v", r.err)
				a.Notify(a.program.Title(), fmt.Sprintf("Cannot ask for %s: %v", a.program.SecretLabel(), r.err))
				a.sync.OnSecretCancelled()
			}

		case <-a.opts.ConfigChanged:
			log.Printf("[tray] %s changed on disk", a.program.Path)
			a.changedItem.Show()

		case <-a.opts.Changed:
			a.sync.Refresh()

		case <-ticker.C:
			a.sync.Refresh()

		case <-a.ctx.Done():
			return
		}
	}
}

// ShowState updates icon, labels and tooltip.
func (a *app) ShowState(st launcher.Status) {
	systray.SetTooltip(tray.Tooltip(a.program.Title(), st))
	if st.Stopping {
		systray.SetIcon(a.opts.Icons.Off)
		a.toggleItem.SetTitle("Stopping...")
		a.toggleItem.Disable()
		a.statusItem.SetTitle("Stopping")
		return
	}
	a.toggleItem.Enable()
	switch st.State {
	case models.StateRunning:
		systray.SetIcon(a.opts.Icons.On)
		a.toggleItem.SetTitle("Stop")
		a.statusItem.SetTitle(fmt.Sprintf("Running (pid %d)", st.PID))
	case models.StateCrashed:
		systray.SetIcon(a.opts.Icons.Off)
		a.toggleItem.SetTitle("Start")
		a.statusItem.SetTitle(fmt.Sprintf("Exited with status %d", st.ExitCode))
	default:
		systray.SetIcon(a.opts.Icons.Off)
		a.toggleItem.SetTitle("Start")
		a.statusItem.SetTitle("Stopped")
	}
}

// RequestSecret asks for the secret off the event goroutine.
func (a *app) RequestSecret(label string) {
	if a.opts.Prompter == nil {
		a.secrets <- secretResult{err: secret.ErrNoPrompter}
		return
	}
	go func() {
		value, err := a.opts.Prompter.Prompt(a.ctx, label)
		select {
		case a.secrets <- secretResult{value: value, err: err}:
		case <-a.ctx.Done():
		}
	}()
}

// Notify shows a desktop notification.
func (a *app) Notify(title, message string) {
	if a.opts.DisableNotifications {
		log.Printf("[tray] %s: %s", title, message)
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		log.Printf("[tray] Notification failed: %v", err)
	}
}

// showOutput opens a terminal running `logs --live` for this program. Without
// a terminal emulator the live output file is handed to the desktop opener.
func (a *app) showOutput() {
	exe, err := os.Executable()
	if err != nil {
		log.Printf("[tray] %v", err)
		return
	}
	argv, err := tray.TerminalCommand(runtime.GOOS, os.Getenv("TERMINAL"), exec.LookPath,
		[]string{exe, "logs", "--live", a.program.Path})
	if err != nil {
		log.Printf("[tray] %v, opening the live output file instead", err)
		path, err := config.LiveOutputFile(a.program.ID)
		if err != nil {
			log.Printf("[tray] %v", err)
			return
		}
		a.open(path)
		return
	}
	a.launch(argv)
}

func (a *app) openLogs() {
	dir, err := config.EnsureProgramLogsDir(a.program.ID)
	if err != nil {
		log.Printf("[tray] %v", err)
		return
	}
	a.open(dir)
}

// open hands path to the desktop opener.
func (a *app) open(path string) {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	a.launch([]string{opener, path})
}

func (a *app) launch(argv []string) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		a.Notify(a.program.Title(), fmt.Sprintf("Failed to run %s: %v", argv[0], err))
		return
	}
	go cmd.Wait()
}
