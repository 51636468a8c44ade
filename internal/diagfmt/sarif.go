package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"dotgate/internal/diag"
	"dotgate/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool         `json:"tool"`
	AutomationDetails sarifAutomation   `json:"automationDetails"`
	Invocations       []sarifInvocation `json:"invocations,omitempty"`
	Results           []sarifResult     `json:"results"`
	Artifacts         []sarifArtifact   `json:"artifacts,omitempty"`
	Properties        map[string]any    `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	ShortDescription     sarifText          `json:"shortDescription"`
	DefaultConfiguration sarifConfiguration `json:"defaultConfiguration"`
}

type sarifConfiguration struct {
	Level string `json:"level"`
}

type sarifAutomation struct {
	GUID string `json:"guid"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifURI struct {
	URI string `json:"uri"`
}

type sarifArtifact struct {
	Location sarifURI `json:"location"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        int             `json:"ruleIndex"`
	Level            string          `json:"level"`
	Message          sarifText       `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	ID               int                   `json:"id,omitempty"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifText            `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifURI    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description     sarifText             `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifURI           `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion `json:"deletedRegion"`
	InsertedContent sarifText   `json:"insertedContent"`
}

// SarifRunGUID is the automation GUID of the next run; tests pin it.
var SarifRunGUID = func() string { return uuid.NewString() }

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0). Every registered
// identity is listed as a rule so viewers can show rules without results.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	ids := diag.All()
	rules := make([]sarifRule, len(ids))
	ruleIndex := make(map[diag.Code]int, len(ids))
	for i, id := range ids {
		rules[i] = sarifRule{
			ID:                   id.Code().ID(),
			Name:                 id.Name(),
			ShortDescription:     sarifText{Text: id.Template()},
			DefaultConfiguration: sarifConfiguration{Level: sarifLevel(id.Severity())},
		}
		ruleIndex[id.Code()] = i
	}

	results := make([]sarifResult, 0, bag.Len())
	seenFiles := make(map[string]struct{})
	var artifacts []sarifArtifact
	locate := func(sp source.Span) (sarifPhysicalLocation, bool) {
		loc := makeLocation(sp, fs, PathModeAuto, true)
		if loc.File == "" {
			return sarifPhysicalLocation{}, false
		}
		if _, ok := seenFiles[loc.File]; !ok {
			seenFiles[loc.File] = struct{}{}
			artifacts = append(artifacts, sarifArtifact{Location: sarifURI{URI: loc.File}})
		}
		return sarifPhysicalLocation{
			ArtifactLocation: sarifURI{URI: loc.File},
			Region: sarifRegion{
				StartLine:   loc.StartLine,
				StartColumn: loc.StartCol,
				EndLine:     loc.EndLine,
				EndColumn:   loc.EndCol,
				ByteOffset:  sp.Start,
				ByteLength:  sp.Len(),
			},
		}, true
	}

	for _, d := range bag.Items() {
		r := sarifResult{
			RuleID:    d.Code.ID(),
			RuleIndex: ruleIndex[d.Code],
			Level:     sarifLevel(d.Severity),
			Message:   sarifText{Text: d.Message},
		}
		if pl, ok := locate(d.Primary); ok {
			r.Locations = []sarifLocation{{PhysicalLocation: pl}}
		}
		for i, n := range d.Notes {
			if pl, ok := locate(n.Span); ok {
				r.RelatedLocations = append(r.RelatedLocations, sarifLocation{
					ID:               i + 1,
					PhysicalLocation: pl,
					Message:          &sarifText{Text: n.Msg},
				})
			}
		}
		for _, fx := range d.Fixes {
			f := sarifFix{Description: sarifText{Text: fx.Title}}
			for _, e := range fx.Edits {
				pl, ok := locate(e.Span)
				if !ok {
					continue
				}
				f.ArtifactChanges = append(f.ArtifactChanges, sarifArtifactChange{
					ArtifactLocation: pl.ArtifactLocation,
					Replacements: []sarifReplacement{{
						DeletedRegion:   pl.Region,
						InsertedContent: sarifText{Text: e.NewText},
					}},
				})
			}
			if len(f.ArtifactChanges) > 0 {
				r.Fixes = append(r.Fixes, f)
			}
		}
		results = append(results, r)
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           meta.ToolName,
			Version:        meta.ToolVersion,
			InformationURI: meta.InformationURI,
			Rules:          rules,
		}},
		AutomationDetails: sarifAutomation{GUID: SarifRunGUID()},
		Results:           results,
		Artifacts:         artifacts,
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{
			Arguments:           meta.InvocationArgs,
			ExecutionSuccessful: true,
		}}
	}
	if n := bag.Dropped(); n > 0 {
		run.Properties = map[string]any{"droppedResults": n}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	})
}
