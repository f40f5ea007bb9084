package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/dei"
	imageRepo      = "ghcr.io/panbanda/dei"

	// publisherMeta is the _meta key the registry reserves for publisher data.
	publisherMeta = "io.modelcontextprotocol.registry/publisher-provided"
)

// Manifest is the registry entry (server.json) for the dei MCP server.
type Manifest struct {
	Schema      string         `json:"$schema"`
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Repository  *Repository    `json:"repository,omitempty"`
	Packages    []Package      `json:"packages,omitempty"`
	Meta        map[string]any `json:"_meta,omitempty"`
}

// Repository is where the server's source lives.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is the container image that runs `dei mcp`.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []Environment `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument is a command-line argument passed to the image.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Environment is a variable the server reads at startup.
type Environment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
	Format      string `json:"format,omitempty"`
}

// Transport is how clients talk to the server.
type Transport struct {
	Type string `json:"type"`
}

// Capabilities is the publisher metadata listing what the server offers.
type Capabilities struct {
	Tools   []CatalogEntry `json:"tools"`
	Prompts []CatalogEntry `json:"prompts"`
}

// GenerateManifest returns the indented server.json for version. The
// publisher metadata lists the tools and prompts this build registers.
func GenerateManifest(version string) ([]byte, error) {
	version = registryVersion(version)

	prompts := loadPrompts()
	caps := Capabilities{Tools: toolCatalog(), Prompts: make([]CatalogEntry, 0, len(prompts))}
	for _, p := range prompts {
		caps.Prompts = append(caps.Prompts, CatalogEntry{Name: p.Name, Summary: p.Description})
	}

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Title:       "dei",
		Description: "Finds god classes, god methods and god files, suggests extractions and reports coupling",
		Version:     version,
		Repository:  &Repository{URL: "https://github.com/panbanda/dei", Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageRepo + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []Environment{{
				Name:        "DEI_CONFIG",
				Description: "Path to a dei config file with thresholds and excludes",
				Format:      "filepath",
			}},
			Transport: Transport{Type: "stdio"},
		}},
		Meta: map[string]any{publisherMeta: caps},
	}

	return json.MarshalIndent(manifest, "", "  ")
}

// registryVersion turns a build version into the registry's form: no
// leading "v", and 0.0.0 for unreleased builds.
func registryVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "dev" {
		return "0.0.0"
	}
	return v
}
