// # internal/report/sarif.go
package report

import (
	"encoding/json"
	"path/filepath"

	"deadvar/internal/parser"
	"deadvar/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDUnusedLocal = "DV001"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from per-file analysis
// results. All file URIs are made relative to projectRoot; absolute paths
// are never included so that reports are safe to share.
func GenerateSARIF(projectRoot string, files []*parser.FileReport) ([]byte, error) {
	results := make([]sarifResult, 0)

	for _, file := range files {
		uri := relativeURI(projectRoot, file.Path)
		for _, finding := range file.Findings {
			result := sarifResult{
				RuleID:  ruleIDUnusedLocal,
				Level:   "warning",
				Message: sarifMessage{Text: finding.Message},
				Locations: []sarifLocation{
					{
						PhysicalLocation: sarifPhysicalLocation{
							ArtifactLocation: sarifArtifactLocation{
								URI:       uri,
								URIBaseID: "%SRCROOT%",
							},
							Region: &sarifRegion{
								StartLine:   finding.Span.StartLine,
								StartColumn: finding.Span.StartCol,
								EndLine:     finding.Span.EndLine,
								EndColumn:   finding.Span.EndCol,
							},
						},
					},
				},
			}
			results = append(results, result)
		}
	}

	document := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "deadvar",
						Version: version.Version,
						Rules: []sarifRule{
							{
								ID:               ruleIDUnusedLocal,
								Name:             "UnusedLocalVariable",
								ShortDescription: sarifMessage{Text: "A local variable is assigned but its value is never read."},
								DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
							},
						},
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(document, "", "  ")
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
