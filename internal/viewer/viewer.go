// Package viewer opens downloaded image data in a desktop image viewer.
package viewer

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/pders01/feedcore/internal/debuglog"
)

//go:embed viewers.toml
var viewersTOML []byte

// ErrNoViewer is returned when no viewer command can be found.
var ErrNoViewer = errors.New("no image viewer found")

type platformConfig struct {
	Image         []string `toml:"image"`
	DefaultOpener string   `toml:"default_opener"`
}

type viewersConfig struct {
	Platforms map[string]platformConfig `toml:"platforms"`
	Args      map[string][]string       `toml:"args"`
}

type Launcher struct {
	command  string
	args     []string
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

type Option func(*Launcher)

// WithCommand forces a viewer instead of probing the platform list.
func WithCommand(name string) Option {
	return func(l *Launcher) { l.command = name }
}

func withLookPath(fn func(string) (string, error)) Option {
	return func(l *Launcher) { l.lookPath = fn }
}

func withStart(fn func(string, ...string) error) Option {
	return func(l *Launcher) { l.start = fn }
}

func NewLauncher(opts ...Option) (*Launcher, error) {
	l := &Launcher{lookPath: exec.LookPath, start: startDetached}
	for _, opt := range opts {
		opt(l)
	}

	var cfg viewersConfig
	if _, err := toml.NewDecoder(bytes.NewReader(viewersTOML)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}

	if l.command == "" {
		platform, ok := cfg.Platforms[runtime.GOOS]
		if !ok {
			platform = cfg.Platforms["fallback"]
		}
		l.command = l.find(append(platform.Image, platform.DefaultOpener)...)
	}
	if l.command == "" {
		return nil, ErrNoViewer
	}
	l.args = cfg.Args[l.command]
	return l, nil
}

func (l *Launcher) find(commands ...string) string {
	for _, cmd := range commands {
		if cmd == "" {
			continue
		}
		if _, err := l.lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}

// Command returns the viewer the launcher will start.
func (l *Launcher) Command() string {
	return l.command
}

// Open starts the viewer on path without waiting for it to exit.
func (l *Launcher) Open(path string) error {
	args := append(append([]string{}, l.args...), path)
	debuglog.Debugf("Opening %s with %s", path, l.command)
	if err := l.start(l.command, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	return nil
}

// WriteTemp stores data in a temp file whose extension matches the sniffed
// image type, so viewers that dispatch on extension can open it.
func WriteTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "feedcore-*"+Extension(data))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Extension guesses a file extension from the leading bytes of data.
func Extension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".img"
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
