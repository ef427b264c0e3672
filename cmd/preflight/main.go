// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/hamed0406/uptimatum/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	for _, f := range config.LoadDotEnv() {
		ok("loaded " + f)
	}

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	if admin == "" {
		fail("ADMIN_API_KEYS is empty (write routes are open to anyone).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS is empty; read routes accept admin keys only.")
	}
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	// numeric settings must parse if present
	for _, name := range []string{
		"CHECK_TICK_INTERVAL_MS", "CHECK_COALESCE_THRESHOLD_MS", "CHECK_RETENTION_DAYS",
		"MAX_CONCURRENT_CHECKS", "SHUTDOWN_GRACE_MS", "ALERT_COOLDOWN_MS",
		"PUBLIC_RPM", "PUBLIC_BURST", "ADMIN_RPM", "ADMIN_BURST",
	} {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			fail(name + "=" + v + " is not a non-negative integer")
		}
	}

	cfg := config.FromEnv()
	if _, err := cron.ParseStandard(cfg.RetentionSchedule); err != nil {
		fail("CHECK_RETENTION_SCHEDULE is not a valid cron spec: " + err.Error())
	}
	ok("retention sweep: " + cfg.RetentionSchedule + ", keep " + strconv.Itoa(cfg.RetentionDays) + " days")
	ok("API_ADDR=" + cfg.Addr)

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; API will use the in-memory store and lose history on restart.")
	} else {
		ok("DATABASE_URL present")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty; status transitions will not be alerted.")
	} else {
		ok("Slack alerts enabled")
	}

	ok("preflight passed")
}
