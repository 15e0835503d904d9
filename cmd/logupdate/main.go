// Command logupdate records one deploy in the site_updates table: the latest
// git commit (short hash, subject, author, changed files) plus this machine's
// outbound local IP. A version that is already logged is skipped, so the
// command is safe to run repeatedly from a deploy script.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portfolio-site/internal/config"
	"portfolio-site/internal/db"
	"portfolio-site/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbConn, err := db.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := dbConn.Migrate(ctx); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	version := gitOutput("rev-parse", "--short", "HEAD")
	summary := gitOutput("log", "-1", "--format=%s")
	author := gitOutput("log", "-1", "--format=%an <%ae>")
	changedFiles := gitOutput("diff-tree", "--no-commit-id", "-r", "--name-only", "HEAD")
	machineIP := localIP()

	if version == "" {
		fmt.Println("No git repo detected. Falling back to manual entry.")
		version = prompt("Version (e.g. v1.2 or 1.0): ", "unknown")
		summary = prompt("Summary (what changed?): ", "-")
		author = prompt("Author (optional): ", "")
		changedFiles = prompt("Changed files (comma-separated, optional): ", "")
	}

	var exists bool
	err = dbConn.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM site_updates WHERE version = $1)`, version,
	).Scan(&exists)
	if err != nil {
		logger.Error("duplicate_check_failed", "error", err)
		os.Exit(1)
	}
	if exists {
		fmt.Printf("Version %q is already logged. Skipping.\nMake a new commit first, then run this again.\n", version)
		return
	}

	_, err = dbConn.Pool.Exec(ctx,
		`INSERT INTO site_updates (version, summary, changed_files, author, machine_ip)
		 VALUES ($1, $2, $3, $4, $5)`,
		version, summary, changedFiles, author, machineIP,
	)
	if err != nil {
		logger.Error("update_insert_failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Logged update %s (%s)\n", version, summary)
}

// gitOutput runs one git command and returns trimmed stdout, empty on any
// failure.
func gitOutput(args ...string) string {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// localIP resolves the machine's outbound interface address. No packet is
// sent: dialing UDP only selects a route.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

func prompt(label, fallback string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}
