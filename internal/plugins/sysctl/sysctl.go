// Package sysctl implements desktop control: launching applications, volume,
// brightness, screen lock, process management and basic system information.
//
// All side effects go through the SystemControl interface so command parsing
// can be tested without touching the host.
package sysctl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// SystemControl abstracts the host desktop operations.
type SystemControl interface {
	OpenApp(ctx context.Context, name string) error
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	MuteVolume(ctx context.Context) error
	BrightnessUp(ctx context.Context) error
	BrightnessDown(ctx context.Context) error
	LockScreen(ctx context.Context) error
	Processes(ctx context.Context) (string, error)
	KillProcess(ctx context.Context, name string) error
	SystemInfo(ctx context.Context) (string, error)
}

// ExecControl implements SystemControl with platform commands.
type ExecControl struct{}

// NewExecControl creates the real desktop controller.
func NewExecControl() *ExecControl {
	return &ExecControl{}
}

// OpenApp launches an application or opens a target with the platform opener.
func (e *ExecControl) OpenApp(ctx context.Context, name string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-a", name)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", name)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", name)
	}
	return cmd.Start()
}

// VolumeUp raises the output volume a step.
func (e *ExecControl) VolumeUp(ctx context.Context) error {
	return e.volume(ctx, "up")
}

// VolumeDown lowers the output volume a step.
func (e *ExecControl) VolumeDown(ctx context.Context) error {
	return e.volume(ctx, "down")
}

// MuteVolume toggles mute.
func (e *ExecControl) MuteVolume(ctx context.Context) error {
	return e.volume(ctx, "mute")
}

func (e *ExecControl) volume(ctx context.Context, action string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := map[string]string{
			"up":   "set volume output volume (output volume of (get volume settings) + 10)",
			"down": "set volume output volume (output volume of (get volume settings) - 10)",
			"mute": "set volume with output muted",
		}[action]
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "windows":
		// nircmd is the conventional volume tool on Windows; fail loudly
		// if it's not installed rather than guessing.
		args := map[string][]string{
			"up":   {"changesysvolume", "6553"},
			"down": {"changesysvolume", "-6553"},
			"mute": {"mutesysvolume", "2"},
		}[action]
		cmd = exec.CommandContext(ctx, "nircmd", args...)
	default:
		args := map[string][]string{
			"up":   {"set-sink-volume", "@DEFAULT_SINK@", "+10%"},
			"down": {"set-sink-volume", "@DEFAULT_SINK@", "-10%"},
			"mute": {"set-sink-mute", "@DEFAULT_SINK@", "toggle"},
		}[action]
		cmd = exec.CommandContext(ctx, "pactl", args...)
	}
	return cmd.Run()
}

// BrightnessUp raises the display brightness a step.
func (e *ExecControl) BrightnessUp(ctx context.Context) error {
	return e.brightness(ctx, "up")
}

// BrightnessDown lowers the display brightness a step.
func (e *ExecControl) BrightnessDown(ctx context.Context) error {
	return e.brightness(ctx, "down")
}

func (e *ExecControl) brightness(ctx context.Context, action string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		// Key codes 144/145 are the hardware brightness keys.
		code := map[string]string{"up": "144", "down": "145"}[action]
		cmd = exec.CommandContext(ctx, "osascript", "-e",
			`tell application "System Events" to key code `+code)
	case "windows":
		delta := map[string]string{"up": "10", "down": "-10"}[action]
		script := `$b=(Get-CimInstance -Namespace root/WMI -ClassName WmiMonitorBrightness).CurrentBrightness; ` +
			`(Get-CimInstance -Namespace root/WMI -ClassName WmiMonitorBrightnessMethods) | ` +
			`Invoke-CimMethod -MethodName WmiSetBrightness -Arguments @{Timeout=1; Brightness=[Math]::Max(0, [Math]::Min(100, $b+(` + delta + `)))}`
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script)
	default:
		arg := map[string]string{"up": "+10%", "down": "10%-"}[action]
		cmd = exec.CommandContext(ctx, "brightnessctl", "set", arg)
	}
	return cmd.Run()
}

// LockScreen locks the desktop session.
func (e *ExecControl) LockScreen(ctx context.Context) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "pmset", "displaysleepnow")
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
	default:
		cmd = exec.CommandContext(ctx, "loginctl", "lock-session")
	}
	return cmd.Run()
}

// maxProcessLines caps the process listing echoed back to the user.
const maxProcessLines = 12

// Processes returns the busiest running processes.
func (e *ExecControl) Processes(ctx context.Context) (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "tasklist")
	case "darwin":
		cmd = exec.CommandContext(ctx, "ps", "-Ao", "pid,pcpu,comm", "-r")
	default:
		cmd = exec.CommandContext(ctx, "ps", "-Ao", "pid,pcpu,comm", "--sort=-pcpu")
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > maxProcessLines {
		lines = lines[:maxProcessLines]
	}
	return strings.Join(lines, "\n"), nil
}

// KillProcess terminates processes matching the given name.
func (e *ExecControl) KillProcess(ctx context.Context, name string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "taskkill", "/IM", name, "/F")
	default:
		cmd = exec.CommandContext(ctx, "pkill", "-i", name)
	}
	return cmd.Run()
}

// SystemInfo returns a short host summary.
func (e *ExecControl) SystemInfo(ctx context.Context) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("Host %s, %s/%s, %d CPUs, %s",
		host, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version()), nil
}
