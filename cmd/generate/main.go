package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-marketdata/internal/config"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata"
	"gopkg.in/yaml.v3"
)

const (
	outputDir            = "./config"
	configSchemaName     = "marketdata-config.json"
	downloadSchemaName   = "download-config.json"
	sampleConfigFileName = "marketdata.yaml"
)

func main() {
	if err := generate(outputDir); err != nil {
		log.Fatal(err)
	}
}

func generate(dir string) error {
	configSchema, err := config.Schema()
	if err != nil {
		return err
	}

	if err := generateSchemaFile(configSchema, filepath.Join(dir, configSchemaName)); err != nil {
		return err
	}

	downloadSchema, err := marketdata.GetDownloadConfigSchema()
	if err != nil {
		return err
	}

	if err := generateSchemaFile(downloadSchema, filepath.Join(dir, downloadSchemaName)); err != nil {
		return err
	}

	if err := generateSampleConfig(config.Default(), filepath.Join(dir, sampleConfigFileName), configSchemaName); err != nil {
		return err
	}

	log.Printf("Schemas successfully generated in %s", dir)

	return nil
}

func generateSchemaFile(schema string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes cfg as YAML unless a file already exists at path.
func generateSampleConfig(cfg config.Config, path string, schemaName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", path)

	return nil
}
