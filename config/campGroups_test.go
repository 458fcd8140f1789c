package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultCampConfig(t *testing.T) {
	cfg := DefaultCampConfig()
	if err := validate.Struct(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if want := []string{"AC1", "AC2", "AC3"}; !reflect.DeepEqual(cfg.GroupNames(), want) {
		t.Fatalf("expected groups %v, got %v", want, cfg.GroupNames())
	}

	ac2, ok := cfg.FindGroup("AC2")
	if !ok || len(ac2.Camps) != 3 {
		t.Fatalf("expected AC2 with 3 camps, got %+v", ac2)
	}
	kc := ac2.Camps[1]
	if kc.Name != "KC" || !reflect.DeepEqual(kc.Prefixes, []string{"KC-", "KC2-", "KC3-"}) {
		t.Fatalf("unexpected KC camp %+v", kc)
	}

	if _, ok := cfg.FindGroup("AC4"); ok {
		t.Fatalf("AC4 must not exist")
	}
}

func TestParseCampConfig(t *testing.T) {
	cfg, err := ParseCampConfig([]byte(`
keywords: [CCTV]
groups:
  - name: North
    camps:
      - name: NC
        prefixes: [NC-, NC2-]
`))
	if err != nil {
		t.Fatalf("ParseCampConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg.Keywords, []string{"CCTV"}) {
		t.Fatalf("unexpected keywords %v", cfg.Keywords)
	}
	north, ok := cfg.FindGroup("North")
	if !ok || !reflect.DeepEqual(north.Camps[0].Prefixes, []string{"NC-", "NC2-"}) {
		t.Fatalf("unexpected group %+v", north)
	}
}

func TestParseCampConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"duplicate camp": `
keywords: [CCTV]
groups:
  - name: G
    camps:
      - {name: A, prefixes: [A-]}
      - {name: A, prefixes: [B-]}
`,
		"missing prefixes": `
keywords: [CCTV]
groups:
  - name: G
    camps:
      - {name: A}
`,
		"no keywords": `
groups:
  - name: G
    camps:
      - {name: A, prefixes: [A-]}
`,
		"not yaml": `groups: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCampConfig([]byte(doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestGetCampConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camps.yaml")
	err := os.WriteFile(path, []byte(`
keywords: [Host]
groups:
  - name: Solo
    camps:
      - {name: S, prefixes: [S-]}
`), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("CAMP_CONFIG_FILE", path)
	SetCampConfig(nil)
	t.Cleanup(func() { SetCampConfig(nil) })

	cfg, err := GetCampConfig()
	if err != nil {
		t.Fatalf("GetCampConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg.GroupNames(), []string{"Solo"}) {
		t.Fatalf("expected Solo, got %v", cfg.GroupNames())
	}

	t.Setenv("CAMP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	SetCampConfig(nil)
	if _, err := GetCampConfig(); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}
