package tests

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func buildNutrilensBinary(t *testing.T) string {
	t.Helper()
	repoRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}
	binPath := filepath.Join(t.TempDir(), "nutrilens")
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build nutrilens binary: %v\n%s", err, string(out))
	}
	return binPath
}

func runNutrilens(t *testing.T, binPath, dbPath, stdin string, args ...string) (string, string, int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		t.Fatalf("create db dir: %v", err)
	}
	cfgPath := filepath.Join(filepath.Dir(dbPath), "nutrilens.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		if err := os.WriteFile(cfgPath, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	allArgs := append([]string{"--config", cfgPath, "--db", dbPath}, args...)
	cmd := exec.Command(binPath, allArgs...)
	cmd.Dir = filepath.Dir(dbPath)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.String(), stderr.String(), 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("run nutrilens command: %v", err)
	}
	return stdout.String(), stderr.String(), exitErr.ExitCode()
}

func initDB(t *testing.T, binPath, dbPath string) {
	t.Helper()
	_, stderr, exit := runNutrilens(t, binPath, dbPath, "", "init")
	if exit != 0 {
		t.Fatalf("init db failed: exit=%d stderr=%s", exit, stderr)
	}
}

func TestCLIRejectsInvalidBarcode(t *testing.T) {
	binPath := buildNutrilensBinary(t)
	dbPath := filepath.Join(t.TempDir(), "nutrilens.db")
	initDB(t, binPath, dbPath)

	_, stderr, exit := runNutrilens(t, binPath, dbPath, "", "detail", "12ab")
	if exit == 0 {
		t.Fatalf("expected non-zero exit for invalid barcode")
	}
	if !strings.Contains(stderr, "invalid barcode") {
		t.Fatalf("expected validation error in stderr, got: %s", stderr)
	}

	_, stderr, exit = runNutrilens(t, binPath, dbPath, "", "history", "save", "1234", "--nutrient", "fat")
	if exit == 0 || !strings.Contains(stderr, "expected key=value") {
		t.Fatalf("expected bad nutrient to fail: exit=%d stderr=%s", exit, stderr)
	}
}

func TestCLIManualEntryLifecycle(t *testing.T) {
	binPath := buildNutrilensBinary(t)
	dbPath := filepath.Join(t.TempDir(), "nutrilens.db")
	initDB(t, binPath, dbPath)

	for _, code := range []string{"11111111", "22222222"} {
		_, stderr, exit := runNutrilens(t, binPath, dbPath, "", "history", "save", code, "--name", "Item "+code, "--ingredients", "water, citric acid")
		if exit != 0 {
			t.Fatalf("save %s: exit=%d stderr=%s", code, exit, stderr)
		}
	}
	// Saving again moves the product to the top of the history.
	if _, stderr, exit := runNutrilens(t, binPath, dbPath, "", "history", "save", "11111111", "--name", "Item again"); exit != 0 {
		t.Fatalf("re-save: exit=%d stderr=%s", exit, stderr)
	}

	stdout, stderr, exit := runNutrilens(t, binPath, dbPath, "", "history", "list")
	if exit != 0 {
		t.Fatalf("history list: exit=%d stderr=%s", exit, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "11111111\tItem again") || !strings.HasPrefix(lines[2], "22222222") {
		t.Fatalf("unexpected history:\n%s", stdout)
	}

	stdout, _, exit = runNutrilens(t, binPath, dbPath, "22222222\nq\n", "scan")
	if exit != 0 || !strings.Contains(stdout, "22222222\tItem 22222222") || !strings.HasSuffix(strings.TrimSpace(stdout), "cache") {
		t.Fatalf("scan of cached barcode: exit=%d out=%s", exit, stdout)
	}

	if _, stderr, exit := runNutrilens(t, binPath, dbPath, "", "doctor"); exit != 0 {
		t.Fatalf("doctor on clean db: exit=%d stderr=%s", exit, stderr)
	}

	stdout, _, exit = runNutrilens(t, binPath, dbPath, "", "history", "clear")
	if exit != 0 || !strings.Contains(stdout, "Deleted 2 product(s)") {
		t.Fatalf("history clear: exit=%d out=%s", exit, stdout)
	}
}

func TestCLIBackupRoundTrip(t *testing.T) {
	binPath := buildNutrilensBinary(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nutrilens.db")
	initDB(t, binPath, dbPath)
	if _, stderr, exit := runNutrilens(t, binPath, dbPath, "", "history", "save", "12345678", "--name", "Kept"); exit != 0 {
		t.Fatalf("save: exit=%d stderr=%s", exit, stderr)
	}

	backupPath := filepath.Join(dir, "backups", "snapshot.db")
	if _, stderr, exit := runNutrilens(t, binPath, dbPath, "", "backup", "create", "--out", backupPath); exit != 0 {
		t.Fatalf("backup create: exit=%d stderr=%s", exit, stderr)
	}
	stdout, _, exit := runNutrilens(t, binPath, dbPath, "", "backup", "list")
	if exit != 0 || !strings.Contains(stdout, "snapshot.db") {
		t.Fatalf("backup list: exit=%d out=%s", exit, stdout)
	}

	restored := filepath.Join(dir, "restored", "nutrilens.db")
	if _, stderr, exit := runNutrilens(t, binPath, restored, "", "backup", "restore", "--file", backupPath); exit != 0 {
		t.Fatalf("backup restore: exit=%d stderr=%s", exit, stderr)
	}
	stdout, _, exit = runNutrilens(t, binPath, restored, "", "history", "list")
	if exit != 0 || !strings.Contains(stdout, "12345678\tKept") {
		t.Fatalf("restored history: exit=%d out=%s", exit, stdout)
	}
}

func TestCLIVersion(t *testing.T) {
	binPath := buildNutrilensBinary(t)
	dbPath := filepath.Join(t.TempDir(), "nutrilens.db")
	stdout, _, exit := runNutrilens(t, binPath, dbPath, "", "version")
	if exit != 0 || !strings.HasPrefix(stdout, "nutrilens ") {
		t.Fatalf("version: exit=%d out=%s", exit, stdout)
	}
}
