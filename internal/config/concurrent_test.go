package config

import (
	"context"
	"sync"
	"testing"

	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
)

// TestParser_Concurrent tests that the parser is safe for concurrent use.
func TestParser_Concurrent(t *testing.T) {
	parser := NewParser(nil)
	luaCode := `esptools = { tools = { "esptool", "espsecure" }, verify_cache = true }`

	const numGoroutines = 100
	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := parser.ParseString(context.Background(), luaCode); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent parse failed: %v", err)
	}
}

// TestGenerator_Concurrent tests that the generator is safe for concurrent use.
func TestGenerator_Concurrent(t *testing.T) {
	gen := NewGenerator()
	cfg := &Config{Tools: []string{"esptool", "espefuse"}, LogLevel: "info"}

	const numGoroutines = 100
	var wg sync.WaitGroup
	results := make(chan string, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := gen.Generate(cfg)
			if err != nil {
				t.Errorf("Generate() error = %v", err)
				return
			}
			results <- out
		}()
	}

	wg.Wait()
	close(results)

	var first string
	for out := range results {
		if first == "" {
			first = out
			continue
		}
		if out != first {
			t.Fatal("concurrent Generate() calls produced different output")
		}
	}
}

func TestParser_ConcurrentWithPlatform(t *testing.T) {
	parser := NewParser(&mockDetector{info: &platform.Info{
		OS:   "linux",
		Arch: "arm64",
		ABI:  platform.ABIGNU,
	}})
	luaCode := `
		esptools = {
			tools = { platform.when(platform.is_arm64, "espidfnvs") },
		}
	`

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := parser.ParseString(context.Background(), luaCode)
			if err != nil {
				t.Errorf("ParseString() error = %v", err)
				return
			}
			if len(cfg.Tools) != 1 || cfg.Tools[0] != "espidfnvs" {
				t.Errorf("Tools = %v, want [espidfnvs]", cfg.Tools)
			}
		}()
	}
	wg.Wait()
}
