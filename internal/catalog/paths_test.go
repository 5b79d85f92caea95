package catalog_test

import (
	"testing"

	"mytvlog/internal/catalog"
)

func TestValidSharePath(t *testing.T) {
	valid := []string{
		"//server/repo/x",
		"//server/repo/deep/nested/file.ts",
		"//server/repo/",
	}
	for _, p := range valid {
		if !catalog.ValidSharePath(p) {
			t.Errorf("ValidSharePath(%q) = false, want true", p)
		}
	}

	invalid := []string{
		"/server/repo/x",
		"///server/repo/x",
		"//server//x",
		"//onlyserver",
		"no_slash",
		"",
	}
	for _, p := range invalid {
		if catalog.ValidSharePath(p) {
			t.Errorf("ValidSharePath(%q) = true, want false", p)
		}
	}
}

func TestSplitSharePath(t *testing.T) {
	server, root, rest, ok := catalog.SplitSharePath("//nas/recorded/anime/ep01.ts")
	if !ok {
		t.Fatal("expected split to succeed")
	}
	if server != "nas" || root != "recorded" || rest != "anime/ep01.ts" {
		t.Fatalf("unexpected split: %q %q %q", server, root, rest)
	}

	if _, _, _, ok := catalog.SplitSharePath("//nas/recorded"); ok {
		t.Fatal("expected split to fail for a path without a rest segment")
	}
	if _, _, _, ok := catalog.SplitSharePath(""); ok {
		t.Fatal("expected split to fail for an empty path")
	}
}

func TestReplaceRoot(t *testing.T) {
	replaced, ok := catalog.ReplaceRoot("//nas/recorded/anime/ep01.ts", "archives")
	if !ok {
		t.Fatal("expected replace to succeed")
	}
	if replaced != "//nas/archives/anime/ep01.ts" {
		t.Fatalf("unexpected replaced path: %q", replaced)
	}

	if _, ok := catalog.ReplaceRoot("//nas/short", "archives"); ok {
		t.Fatal("expected replace to fail for a short path")
	}
}

func TestRoot(t *testing.T) {
	if got := catalog.Root("//nas/recorded/anime/ep01.ts"); got != "recorded" {
		t.Fatalf("Root = %q, want recorded", got)
	}
	if got := catalog.Root(""); got != "" {
		t.Fatalf("Root of empty path = %q, want empty", got)
	}
}

func TestParentDirAndBaseName(t *testing.T) {
	p := "//nas/recorded/anime/ep01.ts*"
	if got := catalog.ParentDir(p); got != "//nas/recorded/anime" {
		t.Fatalf("ParentDir = %q", got)
	}
	if got := catalog.BaseName(p); got != "ep01.ts*" {
		t.Fatalf("BaseName = %q", got)
	}
}

func TestFoldName(t *testing.T) {
	if !catalog.NameMatches("【ニュース】朝の情報", "ﾆｭｰｽ") {
		t.Fatal("expected half-width query to match full-width name")
	}
	if !catalog.NameMatches("Morning News", "news") {
		t.Fatal("expected case-insensitive match")
	}
	if catalog.NameMatches("Morning News", "sports") {
		t.Fatal("unexpected match")
	}
}
