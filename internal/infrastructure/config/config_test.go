package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/seblum/octiv-booker/internal/domain/booking"
)

const sample = `
base_url: https://app.octivfitness.com/login
days_before_bookable: 4
execution_booking_time: "23:59:59.500000"
book_class: true
class_dict:
  Tuesday:
    - { time: "19:00", class: "Open Gym", wl: false }
    - { time: "20:00", class: "CrossFit", wl: true }
  sunday:
    - { time: "10:00", class: "None", wl: false }
locators:
  booking_head: "//main/div"
email:
  format: plain
  send_on: [on_failure]
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	t.Setenv("OCTIV_USERNAME", "me@example.com")
	t.Setenv("OCTIV_PASSWORD", "pw")
	t.Setenv("EMAIL_RECEIVER", "a@example.com; b@example.com;")

	cfg, err := Load(Options{File: writeFile(t, "config.yaml", sample)})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DaysBeforeBookable != 4 || cfg.ExecutionBookingTime != "23:59:59.500000" {
		t.Fatalf("cfg = %+v", cfg)
	}
	tue := cfg.ClassDict[time.Tuesday]
	if len(tue) != 2 || tue[0].ClassName != "Open Gym" || tue[1].Time != "20:00" || !tue[1].PrioritizeWaitingList {
		t.Fatalf("tuesday = %+v", tue)
	}
	if sun := cfg.ClassDict[time.Sunday]; len(sun) != 1 || !sun[0].IsNoClass() {
		t.Fatalf("sunday = %+v", sun)
	}
	if cfg.Octiv.Username != "me@example.com" || !cfg.Octiv.Complete() {
		t.Fatalf("octiv = %+v", cfg.Octiv)
	}
	if strings.Join(cfg.Email.Receivers, ",") != "a@example.com,b@example.com" {
		t.Fatalf("receivers = %v", cfg.Email.Receivers)
	}
	if cfg.Email.Format != "plain" || len(cfg.Email.SendOn) != 1 || cfg.Email.Port != 465 {
		t.Fatalf("email = %+v", cfg.Email)
	}
	if cfg.Locators.BookingHead != "//main/div" || cfg.Locators.LoginErrorBox == "" {
		t.Fatalf("locators = %+v", cfg.Locators)
	}
	if cfg.Action() != booking.Enter || cfg.Retries != 3 || !cfg.Headless {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("DAYS_BEFORE_BOOKABLE", "2")
	t.Setenv("BOOK_CLASS", "false")

	cfg, err := Load(Options{File: writeFile(t, "config.yaml", sample)})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DaysBeforeBookable != 2 || cfg.Action() != booking.Cancel {
		t.Fatalf("days = %d action = %s", cfg.DaysBeforeBookable, cfg.Action())
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("RETRIES", "5")
	fs := pflag.NewFlagSet("book", pflag.ContinueOnError)
	fs.Int("retries", 3, "")
	fs.Bool("headless", true, "")
	if err := fs.Parse([]string{"--retries=1", "--headless=false"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Options{File: writeFile(t, "config.yaml", sample), Flags: fs})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retries != 1 || cfg.Headless {
		t.Fatalf("retries = %d headless = %v", cfg.Retries, cfg.Headless)
	}
}

func TestLoadEnvFile(t *testing.T) {
	env := writeFile(t, ".env", "OCTIV_USERNAME=dotenv-user\nOCTIV_PASSWORD=dotenv-pw\n")
	// godotenv does not override variables that are already set; t.Setenv
	// also restores the environment godotenv writes to.
	t.Setenv("OCTIV_USERNAME", "")
	os.Unsetenv("OCTIV_USERNAME")
	t.Setenv("OCTIV_PASSWORD", "")
	os.Unsetenv("OCTIV_PASSWORD")

	cfg, err := Load(Options{File: writeFile(t, "config.yaml", sample), EnvFile: env})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Octiv.Username != "dotenv-user" {
		t.Fatalf("username = %q", cfg.Octiv.Username)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown weekday": "class_dict:\n  Funday:\n    - { time: \"10:00\", class: \"Yoga\" }\n",
		"bad time":        "class_dict:\n  Monday:\n    - { time: \"7pm\", class: \"Yoga\" }\n",
		"bad format":      "email:\n  format: rtf\n",
		"bad send_on":     "email:\n  send_on: [always]\n",
		"negative days":   "days_before_bookable: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(Options{File: writeFile(t, "config.yaml", body)}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}
