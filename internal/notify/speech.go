package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Speaker voices short guidance prompts. Speak is fire-and-forget: it must
// never block the caller and silently no-ops when synthesis is unavailable.
type Speaker interface {
	Speak(text string)
}

// Silent returns a Speaker that does nothing.
func Silent() Speaker { return silentSpeaker{} }

type silentSpeaker struct{}

func (silentSpeaker) Speak(string) {}

// SystemSpeaker shells out to the platform's text-to-speech command.
// Capability is probed once at construction; if no command exists the
// speaker degrades to silent.
func SystemSpeaker() Speaker {
	name := ttsBinary()
	if name == "" {
		return silentSpeaker{}
	}
	if _, err := exec.LookPath(name); err != nil {
		return silentSpeaker{}
	}
	return &execSpeaker{name: name}
}

type execSpeaker struct {
	name string
}

func (s *execSpeaker) Speak(text string) {
	if text == "" {
		return
	}
	cmd := s.command(text)
	// Detached: synthesis failures never reach the tick loop.
	go func() { _ = cmd.Run() }()
}

func (s *execSpeaker) command(text string) *exec.Cmd {
	if s.name == "powershell" {
		// SAPI via System.Speech; single quotes stripped from the prompt
		// so it can be embedded in the script literal.
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('%s')",
			strings.ReplaceAll(text, "'", ""),
		)
		return exec.Command(s.name, "-NoProfile", "-Command", script)
	}
	return exec.Command(s.name, text)
}

func ttsBinary() string {
	switch runtime.GOOS {
	case "darwin":
		return "say"
	case "windows":
		return "powershell"
	case "linux":
		return "espeak"
	default:
		return ""
	}
}
