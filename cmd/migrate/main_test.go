package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  int
	version uint
	verErr  error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(version int) error {
	f.forced = version
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, false, f.verErr }

func TestRunDefaultsToUpAndIgnoresNoChange(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	if err := run(m, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	m.upErr = errors.New("boom")
	if err := run(m, []string{"up"}); err == nil {
		t.Fatalf("expected up error")
	}
}

func TestRunDownRollsBackSteps(t *testing.T) {
	m := &fakeMigrator{}
	if err := run(m, []string{"down", "2"}); err != nil {
		t.Fatalf("down: %v", err)
	}
	if len(m.steps) != 1 || m.steps[0] != -2 {
		t.Fatalf("expected Steps(-2), got %v", m.steps)
	}
	if err := run(m, []string{"down"}); err == nil {
		t.Fatalf("expected usage error without steps")
	}
	if err := run(m, []string{"down", "zero"}); err == nil {
		t.Fatalf("expected error for bad steps")
	}
}

func TestRunForceAndVersion(t *testing.T) {
	m := &fakeMigrator{version: 6}
	if err := run(m, []string{"force", "5"}); err != nil {
		t.Fatalf("force: %v", err)
	}
	if m.forced != 5 {
		t.Fatalf("expected forced version 5, got %d", m.forced)
	}
	if err := run(m, []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	m.verErr = migrate.ErrNilVersion
	if err := run(m, []string{"version"}); err != nil {
		t.Fatalf("nil version should not fail: %v", err)
	}
	if err := run(m, []string{"sideways"}); err == nil {
		t.Fatalf("expected usage error")
	}
}
