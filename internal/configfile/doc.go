// SPDX-License-Identifier: MPL-2.0

// Package configfile loads workspace configuration layers and resolves them
// into a single effective configuration.
//
// A layer is one YAML file's parsed content. Layers never mutate after load;
// resolution follows the layer's extends references depth-first, deep-merges
// the bases in listed order, and merges the layer's own fields on top. The
// walk keeps a visiting stack for cycle detection and a visited set so a
// diamond base is applied exactly once.
package configfile
