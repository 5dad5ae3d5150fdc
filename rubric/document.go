package rubric

// document.go implements grading against a rubric document: point values come
// from a YAML file instead of the test labels, and every test the document
// declares must have a result.

import (
	"fmt"
	"os"
	"strings"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Document is a rubric declaring suites and the points of each test.
//
//	name: HW1
//	suites:
//	  Suite1:
//	    - add: 5
//	    - sub: 2.5
type Document struct {
	Name   string
	Suites []DocumentSuite
}

// DocumentSuite is an ordered list of declared tests.
type DocumentSuite struct {
	Name  string
	Tests []DocumentTest
}

// DocumentTest is a declared test and its weight.
type DocumentTest struct {
	Name   string
	Points float64
}

type documentFile struct {
	Name   string    `yaml:"name"`
	Suites yaml.Node `yaml:"suites"`
}

// LoadDocument reads a rubric document from a YAML file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rubric document: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a rubric document, keeping suite and test order.
func ParseDocument(data []byte) (*Document, error) {
	var f documentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid rubric yaml: %w", err)
	}

	if f.Suites.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rubric suites must be a mapping of suite name to tests")
	}

	doc := &Document{Name: strings.TrimSpace(f.Name)}
	seen := map[string]bool{}
	for i := 0; i+1 < len(f.Suites.Content); i += 2 {
		suiteName := f.Suites.Content[i].Value
		if seen[suiteName] {
			return nil, fmt.Errorf("duplicate suite %q", suiteName)
		}
		seen[suiteName] = true

		var entries []map[string]float64
		if err := f.Suites.Content[i+1].Decode(&entries); err != nil {
			return nil, fmt.Errorf("suite %q: tests must be a list of {name: points}: %w", suiteName, err)
		}

		suite := DocumentSuite{Name: suiteName}
		for _, entry := range entries {
			if len(entry) != 1 {
				return nil, fmt.Errorf("suite %q: each test entry must have exactly one name", suiteName)
			}
			for name, points := range entry {
				if points < 0 {
					return nil, fmt.Errorf("suite %q: test %q has negative points", suiteName, name)
				}
				suite.Tests = append(suite.Tests, DocumentTest{Name: name, Points: points})
			}
		}
		doc.Suites = append(doc.Suites, suite)
	}

	if len(doc.Suites) == 0 {
		return nil, fmt.Errorf("rubric declares no suites")
	}
	return doc, nil
}

// Possible returns the total points of the document.
func (d *Document) Possible() float64 {
	var total float64
	for _, suite := range d.Suites {
		for _, test := range suite.Tests {
			total += test.Points
		}
	}
	return total
}

type testKey struct {
	suite string
	name  string
}

// Grade looks up every declared test among the completed events and
// aggregates the points the document assigns to them.
func (d *Document) Grade(events []model.RawEvent, logger zerolog.Logger) (*model.Result, error) {
	completed := Completed(events)
	if len(completed) == 0 {
		return nil, &EmptyResultError{}
	}

	bySuite := make(map[testKey]bool)
	byName := make(map[string]bool)
	for _, ev := range completed {
		if len(ev.Labels) == 0 {
			return nil, fmt.Errorf("line %d: %w", ev.Line, &InvalidLabelError{Labels: ev.Labels})
		}
		name := testName(ev.Labels[len(ev.Labels)-1])
		passed, known := decodeStatus(ev.Status)
		if !known {
			logger.Warn().Str("status", ev.Status).Str("test", name).Msg("Unexpected test status, counting test as failed")
		}
		// The first result of a repeated test counts
		if len(ev.Labels) > 1 {
			key := testKey{suite: ev.Labels[len(ev.Labels)-2], name: name}
			if _, dup := bySuite[key]; !dup {
				bySuite[key] = passed
			}
		}
		if _, dup := byName[name]; !dup {
			byName[name] = passed
		}
	}

	name := d.Name
	if name == "" {
		name = completed[0].Labels[0]
	}

	var tests []model.ParsedTest
	for _, suite := range d.Suites {
		for _, declared := range suite.Tests {
			passed, ok := bySuite[testKey{suite: suite.Name, name: declared.Name}]
			if !ok {
				passed, ok = byName[declared.Name]
			}
			if !ok {
				return nil, &MissingTestError{Suite: suite.Name, Test: declared.Name}
			}
			tests = append(tests, model.ParsedTest{
				Report: name,
				Suite:  suite.Name,
				Name:   declared.Name,
				Points: declared.Points,
				Passed: passed,
			})
		}
	}

	return Aggregate(tests)
}

// testName strips an optional "@points" suffix from a test label.
func testName(label string) string {
	name, _, _ := strings.Cut(label, pointSeparator)
	return strings.TrimSpace(name)
}
