package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/medassist/internal/config"
)

// EnvCheckResult lists the MEDASSIST_ overrides present in the environment.
type EnvCheckResult struct {
	Present  map[string]string // Variables that are set
	Warnings []string          // Non-fatal warnings
}

// knownEnvVars are the overrides the application understands.
var knownEnvVars = []string{
	"MEDASSIST_API__BASE_URL",
	"MEDASSIST_API__CHAT_PATH",
	"MEDASSIST_API__UPLOAD_PATH",
	"MEDASSIST_API__HEALTH_PATH",
	"MEDASSIST_API__TIMEOUT",
	"MEDASSIST_UI__THEME",
	"MEDASSIST_UI__WORD_WRAP",
	"MEDASSIST_UI__MARKDOWN",
	"MEDASSIST_LOG__LEVEL",
	"MEDASSIST_LOG__TRANSCRIPT_DIR",
	"MEDASSIST_PATIENT_ID",
}

// CheckEnvironment collects every MEDASSIST_ variable that is set and warns
// about the ones nothing reads.
func CheckEnvironment() *EnvCheckResult {
	result := &EnvCheckResult{
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	known := make(map[string]bool, len(knownEnvVars))
	for _, v := range knownEnvVars {
		known[v] = true
	}

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, config.EnvPrefix) {
			continue
		}
		result.Present[key] = value
		if !known[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is not a recognised setting", key))
		}
	}
	sort.Strings(result.Warnings)

	return result
}

// PrintEnvironmentCheck prints the environment check results
func PrintEnvironmentCheck(w io.Writer, result *EnvCheckResult) {
	fmt.Fprintln(w, "=== Environment Check ===")
	fmt.Fprintln(w, "")

	if len(result.Present) == 0 {
		fmt.Fprintln(w, "No MEDASSIST_ overrides set")
	} else {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "✓ Configured variables:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
	}
	fmt.Fprintln(w, "")

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	fmt.Fprintln(w, "=========================")
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	return scanner.Err()
}
