package interpreter

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// fixtureManifest describes one directory under fixtures/.
type fixtureManifest struct {
	Description string `json:"description"`
	Entry       string `json:"entry"`
	Expect      struct {
		Result *struct {
			Kind  string      `json:"kind"`
			Value interface{} `json:"value"`
		} `json:"result"`
		Errors      []string `json:"errors"`
		Diagnostics []string `json:"diagnostics"`
	} `json:"expect"`
}

// testingT captures the subset of testing.T used by fixture helpers.
type testingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

func readManifest(t testingT, dir string) fixtureManifest {
	t.Helper()
	manifestPath := filepath.Join(dir, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fixtureManifest{}
		}
		t.Fatalf("read manifest %s: %v", manifestPath, err)
	}
	var manifest fixtureManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("parse manifest %s: %v", manifestPath, err)
	}
	return manifest
}

func readSource(t testingT, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read source %s: %v", path, err)
	}
	return string(data)
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
