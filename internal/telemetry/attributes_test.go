// SPDX-License-Identifier: MIT

package telemetry

import "testing"

func TestChannelAttributes(t *testing.T) {
	if got := ChannelAttributes("a", ""); len(got) != 1 {
		t.Errorf("ChannelAttributes without name len = %d, want 1", len(got))
	}
	got := ChannelAttributes("a", "Alpha")
	if len(got) != 2 || string(got[1].Key) != ChannelNameKey || got[1].Value.AsString() != "Alpha" {
		t.Errorf("ChannelAttributes() = %v", got)
	}
}

func TestRefreshAttributes(t *testing.T) {
	got := RefreshAttributes("run-1", 5, 3, 1, 1, 0)
	if len(got) != 6 {
		t.Fatalf("RefreshAttributes len = %d, want 6", len(got))
	}
	if got[0].Value.AsString() != "run-1" {
		t.Errorf("run id = %q", got[0].Value.AsString())
	}
	if got[1].Value.AsInt64() != 5 {
		t.Errorf("channels = %d, want 5", got[1].Value.AsInt64())
	}
}
