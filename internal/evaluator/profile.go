package evaluator

import (
	"fmt"
	"strings"

	"github.com/irdumbs/jamcord/internal/errors"
)

// Profile describes one interpreter kind: how to start it, the intro banner
// shown when a session opens, the hush command a lone "." substitutes for,
// and statements preloaded before the first submission.
type Profile struct {
	Kind     string
	Command  []string // argv to start the interpreter process
	Intro    []string
	Hush     string
	Preloads []string
}

const introRule = "---------------------------------------------------"

// Profiles returns the built-in interpreter profiles, keyed by kind.
// samplesPath, when non-empty, is preloaded into kinds that support
// external sample directories.
func Profiles(samplesPath string) map[string]Profile {
	foxdotIntro := []string{
		"Welcome!!\nThis is a collaborative window into FoxDot\n" +
			" p1 >> piano([0,[-1, 1],(2, 4)])\n" +
			" p2 >> play(\"(xo){[--]-}\")\n" +
			"execute a reset() or cls() to reposition your terminal\n" +
			"execute a . to stop all sound\n" +
			"close this console to reposition it also\n" + introRule + "\n",
	}
	tidalIntro := []string{
		"Welcome!!\nThis is a collaborative window into TidalCycles\n" +
			"execute a `reset` or `cls` to reposition your terminal\n" +
			"execute a `.` to stop all sound\n" +
			"close this console to reposition it also\n" + introRule + "\n",
	}

	var foxdotPreloads []string
	if samplesPath != "" {
		foxdotPreloads = []string{fmt.Sprintf("Samples.addPath(%q)", samplesPath)}
	}

	profiles := map[string]Profile{
		"foxdot": {
			Kind:     "foxdot",
			Command:  []string{"python3", "-u", "-m", "FoxDot", "--pipe"},
			Intro:    foxdotIntro,
			Hush:     "Clock.clear()",
			Preloads: foxdotPreloads,
		},
		"tidal": {
			Kind:    "tidal",
			Command: []string{"ghci", "-ghci-script", "BootTidal.hs"},
			Intro:   tidalIntro,
			Hush:    "hush",
		},
	}
	// Same environment started through stack, for stack installs of Tidal.
	profiles["stack"] = Profile{
		Kind:    "stack",
		Command: []string{"stack", "ghci", "--ghci-options", "-ghci-script BootTidal.hs"},
		Intro:   tidalIntro,
		Hush:    "hush",
	}
	return profiles
}

// Lookup resolves a kind name (case-insensitive) to its profile.
func Lookup(kind, samplesPath string) (Profile, error) {
	p, ok := Profiles(samplesPath)[strings.ToLower(kind)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", errors.ErrUnknownKind, kind)
	}
	return p, nil
}

// Kinds lists the supported interpreter kinds.
func Kinds() []string {
	return []string{"foxdot", "tidal", "stack"}
}
