package main

import (
	"testing"

	"github.com/oriys/probe/internal/config"
	"github.com/oriys/probe/internal/extconfig"
)

func TestIndexByte(t *testing.T) {
	cases := map[string]int{
		"a=b":   1,
		"=b":    0,
		"abc":   -1,
		"":      -1,
		"k=v=w": 1,
	}
	for in, want := range cases {
		if got := indexByte(in, '='); got != want {
			t.Fatalf("indexByte(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestApplySetString(t *testing.T) {
	ext := extconfig.NewManager()
	ext.Register(extconfig.NewServerExtension(&config.ServerConfig{Address: ":9700"}))

	if err := applySetString(ext, "server.address=:9800"); err != nil {
		t.Fatalf("applySetString: %v", err)
	}
	got, err := ext.Get("server.address")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != ":9800" {
		t.Fatalf("server.address = %q", got)
	}
}

func TestApplySetStringMalformed(t *testing.T) {
	ext := extconfig.NewManager()
	if err := applySetString(ext, "no-equals-sign"); err == nil {
		t.Fatal("expected error for malformed set statement")
	}
}

func TestSubcommandConstructorsReportExpectedNames(t *testing.T) {
	root := daemonCmd()
	if root.Use != "daemon" {
		t.Fatalf("daemonCmd Use = %q", root.Use)
	}

	want := map[string]bool{
		"attach":  false,
		"inject":  false,
		"query":   false,
		"ctrl":    false,
		"version": false,
	}
	for _, cmd := range []interface {
		Name() string
	}{attachCmd(), injectCmd(), queryCmd(), ctrlCmd(), versionCmd()} {
		name := cmd.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected subcommand %q to be constructible", name)
		}
	}
}
