// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error types with actionable context:
// what operation failed, which resource was involved, and how to fix it.
package issue
