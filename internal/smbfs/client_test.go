package smbfs

import (
	"context"
	"strings"
	"testing"
)

func TestClientRejectsForeignServerPaths(t *testing.T) {
	c := NewClient(Options{Server: "nas"}, nil)
	ctx := context.Background()

	if _, err := c.FileSize(ctx, "//other/recorded/a.ts"); err == nil {
		t.Fatal("FileSize must reject a path naming another server")
	} else if !strings.Contains(err.Error(), "configured for nas") {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.MoveFiles(ctx, "//other/recorded/a*", "//nas/archives"); err == nil {
		t.Fatal("MoveFiles must reject a foreign source server")
	}
	if err := c.MoveFiles(ctx, "//nas/recorded/a*", "//other/archives"); err == nil {
		t.Fatal("MoveFiles must reject a foreign destination server")
	}
	if _, err := c.DeleteFiles(ctx, "//other/recorded/a*"); err == nil {
		t.Fatal("DeleteFiles must reject a foreign server")
	}
}

func TestClientRejectsMalformedPaths(t *testing.T) {
	c := NewClient(Options{Server: "nas"}, nil)
	ctx := context.Background()

	if _, err := c.FileSize(ctx, "plain.ts"); err == nil {
		t.Fatal("FileSize must reject a non-share path")
	}
	if _, err := c.DeleteFiles(ctx, "//nas"); err == nil {
		t.Fatal("DeleteFiles must reject a path without a root segment")
	}
}

func TestRemoteName(t *testing.T) {
	if got := remoteName("2025/05/a.ts"); got != `2025\05\a.ts` {
		t.Fatalf("remoteName = %q", got)
	}
}
