// SPDX-License-Identifier: MPL-2.0

package check

import "testing"

func TestClassifyProbe(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		test string
		want Probe
	}{
		{
			name: "http line with method",
			test: "HTTP GET https://api.example.com/health",
			want: Probe{Kind: ProbeHTTP, Method: "GET", URL: "https://api.example.com/health"},
		},
		{
			name: "http line lowercase keyword",
			test: "http HEAD https://example.com",
			want: Probe{Kind: ProbeHTTP, Method: "HEAD", URL: "https://example.com"},
		},
		{
			name: "bare url",
			test: "https://example.com/status",
			want: Probe{Kind: ProbeHTTP, Method: "GET", URL: "https://example.com/status"},
		},
		{
			name: "absolute path",
			test: "/usr/local/bin/terraform",
			want: Probe{Kind: ProbeFile, Path: "/usr/local/bin/terraform"},
		},
		{
			name: "relative path",
			test: "./scripts/setup.sh",
			want: Probe{Kind: ProbeFile, Path: "./scripts/setup.sh"},
		},
		{
			name: "home path",
			test: "~/.ssh/id_rsa",
			want: Probe{Kind: ProbeFile, Path: "~/.ssh/id_rsa"},
		},
		{
			name: "nested relative path without dot prefix",
			test: "bin/tool",
			want: Probe{Kind: ProbeFile, Path: "bin/tool"},
		},
		{
			name: "bare command word",
			test: "make",
			want: Probe{Kind: ProbeShell, Command: "make"},
		},
		{
			name: "shell command with args",
			test: "git --version",
			want: Probe{Kind: ProbeShell, Command: "git --version"},
		},
		{
			name: "shell command mentioning a path",
			test: "test -x /usr/bin/env",
			want: Probe{Kind: ProbeShell, Command: "test -x /usr/bin/env"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyProbe(tt.test)
			if got != tt.want {
				t.Errorf("ClassifyProbe(%q) = %+v, want %+v", tt.test, got, tt.want)
			}
		})
	}
}

func TestIdentity_String(t *testing.T) {
	t.Parallel()
	id := NewIdentity(ScopeModule, "node", "auth-npm")
	if got := id.String(); got != "module:node/auth-npm" {
		t.Errorf("String() = %q", got)
	}
}

func TestSpec_EffectiveTier(t *testing.T) {
	t.Parallel()
	if got := (Spec{}).EffectiveTier(); got != TierPreInstall {
		t.Errorf("default tier = %q, want pre-install", got)
	}
	if got := (Spec{Tier: TierTests}).EffectiveTier(); got != TierTests {
		t.Errorf("explicit tier = %q, want tests", got)
	}
}
