package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/frasertheking/toy-snowmodel/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	ok := true

	fmt.Printf("Scenarios - YAML: %d, SQLite: %d\n", len(yamlConfig.Scenarios), len(sqliteConfig.Scenarios))
	if len(yamlConfig.Scenarios) != len(sqliteConfig.Scenarios) {
		fmt.Println("✗ Scenario count mismatch")
		ok = false
	}
	for _, ys := range yamlConfig.Scenarios {
		ss, found := sqliteConfig.Scenario(ys.Name)
		switch {
		case !found:
			fmt.Printf("✗ Scenario %s missing from SQLite\n", ys.Name)
			ok = false
		case reflect.DeepEqual(ys, ss):
			fmt.Printf("✓ Scenario %s matches\n", ys.Name)
		default:
			fmt.Printf("✗ Scenario %s differs\n", ys.Name)
			fmt.Printf("  YAML:   %+v\n", ys)
			fmt.Printf("  SQLite: %+v\n", ss)
			ok = false
		}
	}

	ok = compareSection("Output", yamlConfig.Output, sqliteConfig.Output) && ok
	ok = compareSection("Storage", yamlConfig.Storage, sqliteConfig.Storage) && ok
	ok = compareSection("Server", yamlConfig.Server, sqliteConfig.Server) && ok

	if !ok {
		fmt.Println("\n✗ Configurations differ")
		os.Exit(1)
	}
	fmt.Println("\n✓ Configurations match")
}

func compareSection(name string, yamlValue, sqliteValue interface{}) bool {
	if reflect.DeepEqual(yamlValue, sqliteValue) {
		fmt.Printf("✓ %s configuration matches\n", name)
		return true
	}
	fmt.Printf("✗ %s configuration differs\n", name)
	fmt.Printf("  YAML:   %+v\n", yamlValue)
	fmt.Printf("  SQLite: %+v\n", sqliteValue)
	return false
}
