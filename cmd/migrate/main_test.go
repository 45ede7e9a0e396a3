package main

import (
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"

	appmigrations "github.com/wolfman30/clinic-calendar/migrations"
)

func TestParseArgs(t *testing.T) {
	cases := []struct {
		args    []string
		cmd     string
		version int
		wantErr bool
	}{
		{nil, "up", 0, false},
		{[]string{"up"}, "up", 0, false},
		{[]string{"down"}, "down", 0, false},
		{[]string{"version"}, "version", 0, false},
		{[]string{"force", "3"}, "force", 3, false},
		{[]string{"force"}, "", 0, true},
		{[]string{"force", "x"}, "", 0, true},
		{[]string{"sideways"}, "", 0, true},
	}
	for _, tc := range cases {
		cmd, version, err := parseArgs(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%v: expected error", tc.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tc.args, err)
		}
		if cmd != tc.cmd || version != tc.version {
			t.Fatalf("%v: got %s %d", tc.args, cmd, version)
		}
	}
}

func TestEmbeddedMigrationsPair(t *testing.T) {
	ups, err := fs.Glob(appmigrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, err := fs.Glob(appmigrations.FS, "*.down.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up and %d down", len(ups), len(downs))
	}

	src, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		t.Fatalf("iofs: %v", err)
	}
	defer src.Close()
	first, err := src.First()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected first version 1, got %d", first)
	}
}
