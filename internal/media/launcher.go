package media

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/debuglog"
)

var ErrNoLink = errors.New("entry has no link")

type Launcher struct {
	detector *Detector
	opener   []string
	apps     map[Kind][]string

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

func NewLauncher(cfg config.MediaConfig) (*Launcher, error) {
	detector, err := NewDetector()
	if err != nil {
		return nil, err
	}
	l := &Launcher{
		detector: detector,
		apps: map[Kind][]string{
			KindVideo: cfg.Video,
			KindAudio: cfg.Audio,
			KindImage: cfg.Image,
			KindPDF:   cfg.PDF,
		},
		lookPath: exec.LookPath,
		start:    startDetached,
	}
	if cfg.DefaultOpener != "" {
		l.opener = strings.Fields(cfg.DefaultOpener)
	} else {
		l.opener = systemOpener(runtime.GOOS)
	}
	return l, nil
}

func systemOpener(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Command returns the program and arguments that would open rawURL: the
// first configured application for its kind that is installed, else the
// system opener.
func (l *Launcher) Command(rawURL string) (string, []string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", nil, ErrNoLink
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", nil, fmt.Errorf("refusing to open %q: only http and https links are opened", rawURL)
	}

	kind := l.detector.Detect(rawURL)
	for _, app := range l.apps[kind] {
		fields := strings.Fields(app)
		if len(fields) == 0 {
			continue
		}
		if _, err := l.lookPath(fields[0]); err == nil {
			return fields[0], append(fields[1:], rawURL), nil
		}
	}
	if len(l.opener) == 0 {
		return "", nil, fmt.Errorf("no application configured to open %s links", kind)
	}
	return l.opener[0], append(append([]string(nil), l.opener[1:]...), rawURL), nil
}

// Open starts the application for rawURL without waiting for it.
func (l *Launcher) Open(rawURL string) error {
	name, args, err := l.Command(rawURL)
	if err != nil {
		return err
	}
	debuglog.WithFields(map[string]any{"app": name, "kind": l.detector.Detect(rawURL)}).Debugf("opening %s", rawURL)
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
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
