// SPDX-License-Identifier: MPL-2.0

package check

import "strings"

// ProbeKind says how a check's test string should be executed.
type ProbeKind int

const (
	// ProbeShell runs the test string as a shell command.
	ProbeShell ProbeKind = iota
	// ProbeHTTP issues an HTTP request and passes on a non-error status.
	ProbeHTTP
	// ProbeFile passes when the path exists on the local filesystem.
	ProbeFile
)

// String returns a human-readable probe kind name.
func (k ProbeKind) String() string {
	switch k {
	case ProbeShell:
		return "shell"
	case ProbeHTTP:
		return "http"
	case ProbeFile:
		return "file"
	default:
		return "unknown"
	}
}

// Probe is a classified test string ready for execution.
type Probe struct {
	Kind ProbeKind

	// Command is set for ProbeShell.
	Command string
	// Method and URL are set for ProbeHTTP.
	Method string
	URL    string
	// Path is set for ProbeFile.
	Path string
}

// ClassifyProbe decides how a test string executes:
//   - "HTTP <METHOD> <url>" or a bare http(s) URL is an HTTP probe
//   - a whitespace-free path-like string (absolute, ./, ~/, or containing a
//     separator) is a file-existence check
//   - anything else is a shell command
func ClassifyProbe(test string) Probe {
	test = strings.TrimSpace(test)

	if fields := strings.Fields(test); len(fields) == 3 && strings.EqualFold(fields[0], "HTTP") {
		return Probe{Kind: ProbeHTTP, Method: strings.ToUpper(fields[1]), URL: fields[2]}
	}
	if (strings.HasPrefix(test, "http://") || strings.HasPrefix(test, "https://")) && !strings.ContainsAny(test, " \t") {
		return Probe{Kind: ProbeHTTP, Method: "GET", URL: test}
	}

	if !strings.ContainsAny(test, " \t") && looksLikePath(test) {
		return Probe{Kind: ProbeFile, Path: test}
	}

	return Probe{Kind: ProbeShell, Command: test}
}

// looksLikePath reports whether a whitespace-free token names a filesystem
// location rather than a bare command.
func looksLikePath(s string) bool {
	return strings.HasPrefix(s, "/") ||
		strings.HasPrefix(s, "./") ||
		strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "~/") ||
		strings.Contains(s, "/")
}
