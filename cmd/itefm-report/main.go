// itefm-report builds the per-camp equipment status workbooks without the
// web server.
//
// Usage:
//
//	go run ./cmd/itefm-report -job job_listing.xlsx -asset asset_list.xlsx -group AC1 [-out reports] [-camps camps.yaml]
//
// Exits 1 when any camp failed; the other camps are still written.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/workflow"
)

func main() {
	jobPath := flag.String("job", "", "Required: job listing workbook (.xlsx)")
	assetPath := flag.String("asset", "", "Required: asset list workbook (.xlsx)")
	groupName := flag.String("group", "", "Required: camp group (e.g. AC1)")
	outDir := flag.String("out", ".", "Optional: output directory")
	campsPath := flag.String("camps", "", "Optional: YAML camp configuration (defaults to CAMP_CONFIG_FILE or the built-in groups)")
	flag.Parse()

	if strings.TrimSpace(*jobPath) == "" || strings.TrimSpace(*assetPath) == "" || strings.TrimSpace(*groupName) == "" {
		fmt.Fprintln(os.Stderr, "-job, -asset and -group are required")
		flag.Usage()
		os.Exit(2)
	}

	campConfig, err := loadCampConfig(*campsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "camp config: %v\n", err)
		os.Exit(1)
	}
	group, ok := campConfig.FindGroup(*groupName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown camp group %q (known: %s)\n", *groupName, strings.Join(campConfig.GroupNames(), ", "))
		os.Exit(2)
	}

	jobData, err := os.ReadFile(*jobPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read job listing: %v\n", err)
		os.Exit(1)
	}
	assetData, err := os.ReadFile(*assetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read asset list: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output directory: %v\n", err)
		os.Exit(1)
	}

	outputs := workflow.GenerateReports(context.Background(), workflow.Request{
		JobFile:   jobData,
		AssetFile: assetData,
		Group:     *group,
		Keywords:  campConfig.Keywords,
	})

	failed := 0
	for _, o := range outputs {
		if o.Err != nil {
			failed++
			fmt.Println(o.ErrorMessage())
			continue
		}
		path := filepath.Join(*outDir, o.FileName)
		if err := os.WriteFile(path, o.Data, 0o644); err != nil {
			failed++
			fmt.Printf("%s Error: %v\n", o.Camp, err)
			continue
		}
		fmt.Printf("%s: matched=%d unmatched=%d total=%d -> %s\n", o.Camp, o.Matched, o.Unmatched, o.Total, path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func loadCampConfig(path string) (*config.CampConfig, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadCampConfigFile(path)
	}
	return config.GetCampConfig()
}
