package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mmcdole/trackctl/internal/domain"
)

// Launcher plays audio URLs in an external player
type Launcher struct {
	command string   // configured player command, empty for auto-detection
	args    []string // additional arguments for the player
	logger  *slog.Logger

	lookPath func(string) (string, error)
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path string // Command name or absolute path
}

// playerConfig defines platform-specific launch configurations for a player
type playerConfig struct {
	args      []string                // Flags for headless audio playback
	platforms map[string][]launchPath // Platform -> launch paths to try in order
}

// players registry - single source of truth for all player configuration
var players = map[string]playerConfig{
	"mpv": {
		args: []string{"--no-video", "--really-quiet"},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "mpv"}},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"ffplay": {
		args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "ffplay"}},
			"linux":   {{path: "ffplay"}},
			"windows": {{path: "ffplay"}},
		},
	},
	"cvlc": {
		args: []string{"--play-and-exit", "--quiet"},
		platforms: map[string][]launchPath{
			"linux": {{path: "cvlc"}},
		},
	},
	"vlc": {
		args: []string{"--intf", "dummy", "--play-and-exit"},
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "vlc"},
				{path: "/Applications/VLC.app/Contents/MacOS/VLC"},
			},
			"linux":   {{path: "vlc"}},
			"windows": {{path: "vlc"}},
		},
	},
	"afplay": {
		platforms: map[string][]launchPath{
			"darwin": {{path: "afplay"}},
		},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "ffplay", "vlc"},
	"linux":   {"mpv", "ffplay", "cvlc", "vlc"},
	"windows": {"mpv", "ffplay", "vlc"},
}

// ErrNoPlayer is returned when no audio player could be started.
var ErrNoPlayer = errors.New("no audio player found (install mpv or ffplay, or set player.command)")

// NewLauncher creates a new Launcher. Known players get their headless
// flags added when no args are configured.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	resolvedArgs := args
	if len(resolvedArgs) == 0 && command != "" {
		base := filepath.Base(command)
		// Strip any extension (for Windows .exe)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		base = strings.ToLower(base)

		if playerCfg, ok := players[base]; ok && len(playerCfg.args) > 0 {
			resolvedArgs = playerCfg.args
			logger.Debug("auto-detected player args", "player", base, "args", resolvedArgs)
		}
	}

	return &Launcher{
		command:  command,
		args:     resolvedArgs,
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// Launch starts playing url in the configured player or the first
// available candidate.
func (l *Launcher) Launch(url string) (domain.PlayerProcess, error) {
	// Tier 1: User configured a specific player
	if l.command != "" {
		l.logger.Info("using configured player", "command", l.command)
		return l.start(l.command, l.command, l.args, url)
	}

	// Tier 2: Try candidate chain
	return l.detectAndLaunch(url)
}

// detectAndLaunch tries candidate players in order using configured launch paths
func (l *Launcher) detectAndLaunch(url string) (domain.PlayerProcess, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"] // default
	}

	for _, playerName := range candidates {
		player, exists := players[playerName]
		if !exists {
			continue
		}

		launchPaths, ok := player.platforms[runtime.GOOS]
		if !ok {
			l.logger.Debug("player not available on this platform", "player", playerName, "platform", runtime.GOOS)
			continue
		}

		for _, lp := range launchPaths {
			proc, err := l.start(playerName, lp.path, player.args, url)
			if err == nil {
				l.logger.Info("launched with detected player", "player", playerName, "path", lp.path)
				return proc, nil
			}
			l.logger.Debug("launch path not available", "player", playerName, "path", lp.path, "error", err)
		}
	}

	return nil, ErrNoPlayer
}

// start launches command if it exists in PATH
func (l *Launcher) start(name, command string, args []string, url string) (domain.PlayerProcess, error) {
	path, err := l.lookPath(command)
	if err != nil {
		return nil, err
	}

	cmdArgs := append(append([]string{}, args...), url)
	cmd := exec.Command(path, cmdArgs...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	l.logger.Info("launching player", "command", path, "args", args, "url", url, "pid", cmd.Process.Pid)
	return newProcess(name, cmd, l.logger), nil
}

// Process is a running player started by a Launcher.
type Process struct {
	name   string
	cmd    *exec.Cmd
	logger *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

func newProcess(name string, cmd *exec.Cmd, logger *slog.Logger) *Process {
	p := &Process{name: name, cmd: cmd, logger: logger, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		logger.Debug("player exited", "player", name, "error", err)
		close(p.done)
	}()
	return p
}

// Name returns the player name.
func (p *Process) Name() string {
	return p.name
}

// Done is closed when the player exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Stop kills the player and waits for it to exit.
func (p *Process) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = fmt.Errorf("failed to stop %s: %w", p.name, kerr)
			return
		}
		<-p.done
	})
	return err
}
