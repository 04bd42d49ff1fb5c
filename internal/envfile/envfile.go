// SPDX-License-Identifier: MPL-2.0

// Package envfile reads workspace-local dotenv files and resolves environment
// variables with process-environment-first precedence: a variable set in the
// process environment always wins over the same variable in the .env file,
// never the reverse.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the workspace-local dotenv file name.
const FileName = ".env"

// Vars holds parsed key/value pairs from a dotenv file.
type Vars map[string]string

// Lookup resolves variable values against the process environment first and a
// workspace .env file second.
type Lookup struct {
	// File holds the fallback values parsed from the workspace .env file.
	File Vars
}

// NewLookup loads <workspaceRoot>/.env as the fallback source. A missing .env
// file is not an error; the lookup then answers from the process environment
// alone.
func NewLookup(workspaceRoot string) (Lookup, error) {
	vars, err := Load(filepath.Join(workspaceRoot, FileName))
	if err != nil {
		return Lookup{}, err
	}
	return Lookup{File: vars}, nil
}

// Get returns the value of name, consulting the process environment first and
// the .env file second.
func (l Lookup) Get(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	v, ok := l.File[name]
	return v, ok
}

// Load reads and parses a dotenv file. A missing file yields an empty Vars
// and no error.
func Load(path string) (Vars, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Vars{}, nil
		}
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	vars := Vars{}
	if err := Parse(vars, content, path); err != nil {
		return nil, err
	}
	return vars, nil
}

// Parse parses dotenv format content and merges into the vars map.
// Supported format:
//   - Lines starting with # are comments
//   - Empty lines are ignored
//   - KEY=value (unquoted)
//   - KEY="value" (double-quoted, escape sequences: \n, \r, \t, \\, \")
//   - KEY='value' (single-quoted, literal - no escape processing)
//   - export KEY=value (export prefix is optional and ignored)
//   - KEY= (empty value)
//
// The filename parameter is used for error messages.
func Parse(vars Vars, content []byte, filename string) error {
	lines := strings.Split(string(content), "\n")

	for i, line := range lines {
		lineNum := i + 1

		// Trim trailing carriage return (for Windows line endings)
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Remove optional 'export ' prefix
		line = strings.TrimPrefix(line, "export ")
		line = strings.TrimSpace(line)

		// Split on first '='
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("%s:%d: invalid format (missing '=')", filename, lineNum)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s:%d: empty variable name", filename, lineNum)
		}

		parsedValue, err := parseValue(value)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", filename, lineNum, err)
		}

		vars[key] = parsedValue
	}

	return nil
}

// parseValue parses a dotenv value, handling quoting and escape sequences.
func parseValue(value string) (string, error) {
	value = strings.TrimSpace(value)

	if value == "" {
		return "", nil
	}

	if value[0] == '"' {
		// Double-quoted value
		if len(value) < 2 || value[len(value)-1] != '"' {
			return "", fmt.Errorf("unterminated double quote")
		}
		return parseDoubleQuoted(value[1 : len(value)-1])
	}
	if value[0] == '\'' {
		// Single-quoted: literal value, no escape processing
		if len(value) < 2 || value[len(value)-1] != '\'' {
			return "", fmt.Errorf("unterminated single quote")
		}
		return value[1 : len(value)-1], nil
	}

	// Unquoted: strip inline comments and return
	if idx := strings.Index(value, " #"); idx != -1 {
		value = strings.TrimSpace(value[:idx])
	}

	return value, nil
}

// parseDoubleQuoted processes escape sequences in a double-quoted value.
func parseDoubleQuoted(value string) (string, error) {
	var result strings.Builder
	result.Grow(len(value))

	i := 0
	for i < len(value) {
		if value[i] == '\\' && i+1 < len(value) {
			next := value[i+1]
			switch next {
			case 'n':
				result.WriteByte('\n')
			case 'r':
				result.WriteByte('\r')
			case 't':
				result.WriteByte('\t')
			case '\\':
				result.WriteByte('\\')
			case '"':
				result.WriteByte('"')
			case '$':
				result.WriteByte('$')
			default:
				// Unknown escape - keep both characters
				result.WriteByte('\\')
				result.WriteByte(next)
			}
			i += 2
		} else {
			result.WriteByte(value[i])
			i++
		}
	}

	return result.String(), nil
}
