package insights

import "github.com/solardome/egra-insight/internal/report"

func DefaultChecksumsPath(outJSONPath string) string {
	return report.DefaultChecksumsPath(outJSONPath)
}

func DefaultRunLogPath(outJSONPath string) string {
	return report.DefaultRunLogPath(outJSONPath)
}

func DefaultHTMLPath(outJSONPath string) string {
	return report.DefaultHTMLPath(outJSONPath)
}

func DefaultCSVPath(outJSONPath string) string {
	return report.DefaultCSVPath(outJSONPath)
}

func writeArtifactChecksums(checksumsPath string, artifactPaths []string) error {
	return report.WriteChecksums(checksumsPath, artifactPaths)
}
