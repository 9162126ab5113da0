package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	defaultReportName   = "report.json"
	checksumsName       = "checksums.sha256"
	runLogName          = "egra-insight.run.log"
	classificationsName = "classifications.csv"
	htmlReportName      = "report.html"
)

func artifactPath(outJSONPath, name string) string {
	if strings.TrimSpace(outJSONPath) == "" {
		outJSONPath = defaultReportName
	}
	return filepath.Join(filepath.Dir(outJSONPath), name)
}

func DefaultChecksumsPath(outJSONPath string) string {
	return artifactPath(outJSONPath, checksumsName)
}

func DefaultRunLogPath(outJSONPath string) string {
	return artifactPath(outJSONPath, runLogName)
}

func DefaultCSVPath(outJSONPath string) string {
	return artifactPath(outJSONPath, classificationsName)
}

func DefaultHTMLPath(outJSONPath string) string {
	return artifactPath(outJSONPath, htmlReportName)
}

// WriteChecksums writes "<sha256>  <basename>" lines sorted by path, in the
// format sha256sum -c accepts.
func WriteChecksums(checksumsPath string, artifactPaths []string) error {
	clean := make([]string, 0, len(artifactPaths))
	for _, p := range artifactPaths {
		if strings.TrimSpace(p) != "" {
			clean = append(clean, p)
		}
	}
	sort.Strings(clean)

	lines := make([]string, 0, len(clean))
	for _, p := range clean {
		sum, err := fileSHA256(p)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", p, err)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.Base(p)))
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	return writeFile(checksumsPath, []byte(content))
}

func fileSHA256(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}

func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
