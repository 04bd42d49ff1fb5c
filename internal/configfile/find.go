// SPDX-License-Identifier: MPL-2.0

package configfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CandidateNames are the accepted workspace config file names, in the order
// they are probed. Exactly one may exist per workspace root.
var CandidateNames = []string{"devduck.yml", "devduck.yaml", ".devduck.yml"}

// ErrConfigNotFound is the sentinel wrapped whenever a referenced layer
// cannot be located.
var ErrConfigNotFound = errors.New("config not found")

// MultipleCandidatesError is returned when a workspace root contains more
// than one candidate config file.
type MultipleCandidatesError struct {
	Root  string
	Found []string
}

func (e *MultipleCandidatesError) Error() string {
	return fmt.Sprintf("multiple config files in %s: %s (keep exactly one)",
		e.Root, strings.Join(e.Found, ", "))
}

// Find locates the single workspace config file under root. It fails with
// ErrConfigNotFound when none of the candidate names exist and with
// MultipleCandidatesError when more than one does.
func Find(root string) (string, error) {
	var found []string
	for _, name := range CandidateNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, name)
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no %s in %s", ErrConfigNotFound, strings.Join(CandidateNames, "/"), root)
	case 1:
		return filepath.Join(root, found[0]), nil
	default:
		return "", &MultipleCandidatesError{Root: root, Found: found}
	}
}
